package controller

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"projecthub/models"
	"projecthub/utils"
)

type InvitationController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Mailer utils.Mailer
	AppURL string
}

func NewInvitationController(db *gorm.DB, logger *log.Logger, mailer utils.Mailer, appURL string) *InvitationController {
	return &InvitationController{
		DB:     db,
		Logger: logger,
		Mailer: mailer,
		AppURL: appURL,
	}
}

type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type invitationDetails struct {
	ProjectName  string    `json:"project_name"`
	InviterName  string    `json:"inviter_name"`
	InviterEmail string    `json:"inviter_email"`
	InviteeEmail string    `json:"invitee_email"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateInvitation issues a capability token for joining the project.
// Owner only. Email dispatch is best effort: on failure the invitation
// stands and the link is still returned to the caller.
func (ic *InvitationController) CreateInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateInvitationRequest
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

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email must be a valid email",
		})
	}

	var project models.Project
	if err := ic.DB.Preload("Members").First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if !project.IsOwner(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the owner can invite members",
		})
	}

	// The invitee may be unregistered; only reject when the resolved
	// account is already on the project.
	var invitee models.User
	if err := ic.DB.Where("email = ?", email).First(&invitee).Error; err == nil {
		if project.HasMember(invitee.ID) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already a member",
			})
		}
	}

	token, err := utils.GenerateInvitationToken()
	if err != nil {
		ic.Logger.Printf("token generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	invitation := models.Invitation{
		Token:        token,
		ProjectID:    project.ID,
		InviterID:    user.ID,
		InviteeEmail: email,
		Status:       models.InvitationStatusPending,
		ExpiresAt:    time.Now().Add(models.InvitationTTL),
	}

	// The pending-uniqueness check and the insert run in one
	// transaction so concurrent invites for the same address cannot
	// both slip past the check.
	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Invitation
		err := tx.Where("project_id = ? AND invitee_email = ? AND status = ?",
			project.ID, email, models.InvitationStatusPending).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "Invitation already sent")
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(&invitation).Error
	})
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}
		ic.Logger.Printf("failed to persist invitation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	link := fmt.Sprintf("%s/invitations/%s", ic.AppURL, token)

	if err := ic.Mailer.SendInvitation(email, project.Name, user.Name, link); err != nil {
		// The invitation stands; the caller still gets the link.
		logrus.WithFields(logrus.Fields{
			"project_id":    project.ID,
			"invitee_email": email,
		}).WithError(err).Warn("failed to send invitation email")
		sentry.CaptureException(err)
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"invitation_link": link,
		"message":         "Invitation sent successfully",
	})
}

// GetMyInvitations lists invitations addressed to the caller's email,
// newest first.
func (ic *InvitationController) GetMyInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invitations []models.Invitation
	err := ic.DB.
		Preload("Project").
		Preload("Inviter").
		Where("invitee_email = ?", strings.ToLower(user.Email)).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invitations",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"invitations": invitations,
	})
}

// GetInvitation returns invitation details for the landing page. No
// auth: the token itself is the credential. A pending invitation past
// its expiry is flipped to expired and persisted before responding.
func (ic *InvitationController) GetInvitation(c *fiber.Ctx) error {
	var invitation models.Invitation
	if err := ic.DB.Where("token = ?", c.Params("token")).First(&invitation).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	}

	if invitation.Status == models.InvitationStatusPending && invitation.IsExpired(time.Now()) {
		if err := ic.expire(&invitation); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch invitation",
			})
		}
	}

	var project models.Project
	if err := ic.DB.First(&project, invitation.ProjectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	var inviter models.User
	if err := ic.DB.First(&inviter, invitation.InviterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Inviter not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"invitation": invitationDetails{
			ProjectName:  project.Name,
			InviterName:  inviter.Name,
			InviterEmail: inviter.Email,
			InviteeEmail: invitation.InviteeEmail,
			Status:       invitation.Status,
			ExpiresAt:    invitation.ExpiresAt,
		},
	})
}

// AcceptInvitation redeems a pending token for the authenticated
// caller. The token is not checked against the caller's email: any
// account presenting a valid pending token may join. Accepting twice is
// safe; a caller who is already a member gets success and the
// invitation still flips to accepted.
func (ic *InvitationController) AcceptInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invitation models.Invitation
	err := ic.DB.Where("token = ? AND status = ?",
		c.Params("token"), models.InvitationStatusPending).First(&invitation).Error
	if err != nil {
		// Re-submitting a link the caller already redeemed stays a
		// success; any other non-pending token is indistinguishable
		// from a missing one.
		if resp := ic.acceptedByCaller(c, user); resp != nil {
			return resp()
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found or expired",
		})
	}

	if invitation.IsExpired(time.Now()) {
		if err := ic.expire(&invitation); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to accept invitation",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invitation has expired",
		})
	}

	var project models.Project
	if err := ic.DB.Preload("Members").First(&project, invitation.ProjectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if project.HasMember(user.ID) {
		// Re-submission of a consumed link; consume the invitation and
		// report success instead of erroring.
		if err := ic.DB.Model(&invitation).Update("status", models.InvitationStatusAccepted).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to accept invitation",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "You are already a member of this project",
		})
	}

	// Member append and status flip commit together; a crash cannot
	// leave the user joined with the invitation still pending.
	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Association("Members").Append(user); err != nil {
			return err
		}
		return tx.Model(&invitation).Update("status", models.InvitationStatusAccepted).Error
	})
	if err != nil {
		ic.Logger.Printf("failed to accept invitation %d: %v", invitation.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invitation",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Invitation accepted successfully",
		"project_id": project.ID,
	})
}

// acceptedByCaller handles the consumed-token resubmission case: the
// token exists in accepted state and the caller is already on the
// project. Returns nil when that does not apply.
func (ic *InvitationController) acceptedByCaller(c *fiber.Ctx, user *models.User) func() error {
	var invitation models.Invitation
	err := ic.DB.Where("token = ? AND status = ?",
		c.Params("token"), models.InvitationStatusAccepted).First(&invitation).Error
	if err != nil {
		return nil
	}

	var project models.Project
	if err := ic.DB.Preload("Members").First(&project, invitation.ProjectID).Error; err != nil {
		return nil
	}
	if !project.HasMember(user.ID) {
		return nil
	}

	return func() error {
		return c.JSON(fiber.Map{
			"success":    true,
			"message":    "You are already a member of this project",
			"project_id": project.ID,
		})
	}
}

func (ic *InvitationController) expire(invitation *models.Invitation) error {
	invitation.Status = models.InvitationStatusExpired
	return ic.DB.Model(invitation).Update("status", models.InvitationStatusExpired).Error
}
