package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"projecthub/models"
	"projecthub/utils"
)

type IssueController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewIssueController(db *gorm.DB, logger *log.Logger) *IssueController {
	return &IssueController{
		DB:     db,
		Logger: logger,
	}
}

type CreateIssueRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	ProjectID   uint   `json:"project_id" validate:"required"`
	AssigneeID  *uint  `json:"assignee_id"`
}

type UpdateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeID  *uint   `json:"assignee_id"`
}

// GetIssues lists a project's issues, newest first. Members only.
func (isc *IssueController) GetIssues(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID := utils.ParseUint(c.Query("projectId"))
	if projectID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project ID is required",
		})
	}

	project, errResp := isc.requireMembership(c, user, projectID)
	if project == nil {
		return errResp
	}

	var issues []models.Issue
	err := isc.DB.
		Preload("Assignee").
		Preload("CreatedBy").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&issues).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch issues",
		})
	}

	return c.JSON(fiber.Map{
		"issues": issues,
	})
}

func (isc *IssueController) CreateIssue(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateIssueRequest
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

	project, errResp := isc.requireMembership(c, user, req.ProjectID)
	if project == nil {
		return errResp
	}

	priority := req.Priority
	if priority == "" {
		priority = models.IssuePriorityMedium
	}

	issue := models.Issue{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.IssueStatusTodo,
		Priority:    priority,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		CreatedByID: user.ID,
	}

	if err := isc.DB.Create(&issue).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create issue",
		})
	}

	if err := isc.DB.Preload("Assignee").Preload("CreatedBy").First(&issue, issue.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load issue",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"issue": issue,
	})
}

// UpdateIssue mutates fields including kanban status. Any member of the
// issue's project may update.
func (isc *IssueController) UpdateIssue(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var issue models.Issue
	if err := isc.DB.First(&issue, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Issue not found",
		})
	}

	project, errResp := isc.requireMembership(c, user, issue.ProjectID)
	if project == nil {
		return errResp
	}

	var req UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Status != nil && !models.ValidIssueStatus(*req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}
	if req.Priority != nil && !models.ValidIssuePriority(*req.Priority) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid priority",
		})
	}

	if req.Title != nil {
		issue.Title = *req.Title
	}
	if req.Description != nil {
		issue.Description = *req.Description
	}
	if req.Status != nil {
		issue.Status = *req.Status
	}
	if req.Priority != nil {
		issue.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		issue.AssigneeID = req.AssigneeID
	}

	if err := isc.DB.Save(&issue).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update issue",
		})
	}

	if err := isc.DB.Preload("Assignee").Preload("CreatedBy").First(&issue, issue.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load issue",
		})
	}

	return c.JSON(fiber.Map{
		"issue": issue,
	})
}

func (isc *IssueController) DeleteIssue(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var issue models.Issue
	if err := isc.DB.First(&issue, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Issue not found",
		})
	}

	project, errResp := isc.requireMembership(c, user, issue.ProjectID)
	if project == nil {
		return errResp
	}

	if err := isc.DB.Delete(&issue).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete issue",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Issue deleted successfully",
	})
}

// requireMembership loads the project and applies the membership gate.
// On failure it returns nil and the already-written error response.
func (isc *IssueController) requireMembership(c *fiber.Ctx, user *models.User, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := isc.DB.Preload("Members").First(&project, projectID).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if !project.CanAccess(user.ID) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this project",
		})
	}

	return &project, nil
}
