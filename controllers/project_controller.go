package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"projecthub/models"
	"projecthub/utils"
)

type ProjectController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewProjectController(db *gorm.DB, logger *log.Logger) *ProjectController {
	return &ProjectController{
		DB:     db,
		Logger: logger,
	}
}

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateProject makes the caller the owner and seeds the members set
// with them.
func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateProjectRequest
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

	project := models.Project{
		Name:    req.Name,
		OwnerID: user.ID,
		Members: []models.User{*user},
	}

	if err := pc.DB.Create(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}

	if err := pc.DB.Preload("Owner").Preload("Members").First(&project, project.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load project",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"project": project,
	})
}

// GetProjects lists every project the caller owns or belongs to.
func (pc *ProjectController) GetProjects(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var projects []models.Project
	err := pc.DB.
		Preload("Owner").
		Preload("Members").
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id").
		Where("projects.owner_id = ? OR pm.user_id = ?", user.ID, user.ID).
		Group("projects.id").
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch projects",
		})
	}

	return c.JSON(fiber.Map{
		"projects": projects,
	})
}

func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	if err := pc.DB.Preload("Owner").Preload("Members").First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
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
		"project": project,
	})
}

// DeleteProject is owner-only and removes the project's issues,
// invitations and member rows alongside it.
func (pc *ProjectController) DeleteProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	if err := pc.DB.First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if !project.IsOwner(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the owner can delete the project",
		})
	}

	tx := pc.DB.Begin()

	if err := tx.Where("project_id = ?", project.ID).Delete(&models.Issue{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete project",
		})
	}

	if err := tx.Where("project_id = ?", project.ID).Delete(&models.Invitation{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete project",
		})
	}

	if err := tx.Model(&project).Association("Members").Clear(); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete project",
		})
	}

	if err := tx.Delete(&project).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete project",
		})
	}

	tx.Commit()

	return c.JSON(fiber.Map{
		"message": "Project deleted successfully",
	})
}
