package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"projecthub/models"
	"projecthub/utils"
)

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// GetMembers returns the members set, credential fields stripped.
// Owner and members may read it.
func (pc *ProjectController) GetMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	if err := pc.DB.Preload("Members").First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if !project.CanAccess(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this project",
		})
	}

	return c.JSON(fiber.Map{
		"members": project.Members,
	})
}

// AddMember directly adds an already registered user. Owner only.
func (pc *ProjectController) AddMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var project models.Project
	if err := pc.DB.Preload("Members").First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if !project.IsOwner(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the owner can add members",
		})
	}

	var member models.User
	if err := pc.DB.Where("email = ?", req.Email).First(&member).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if project.HasMember(member.ID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already a member",
		})
	}

	if err := pc.DB.Model(&project).Association("Members").Append(&member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	return c.JSON(fiber.Map{
		"member": member,
	})
}

// RemoveMember is owner-only and removes exactly one entry.
func (pc *ProjectController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	if err := pc.DB.Preload("Members").First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if !project.IsOwner(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the owner can remove members",
		})
	}

	memberID := utils.ParseUint(c.Params("memberId"))
	if !project.HasMember(memberID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Member not found",
		})
	}

	if err := pc.DB.Model(&project).Association("Members").Delete(&models.User{Model: gorm.Model{ID: memberID}}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member removed successfully",
	})
}
