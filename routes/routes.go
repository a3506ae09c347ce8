package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "projecthub/controllers"
	"projecthub/middleware"
	"projecthub/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, mailer utils.Mailer, appURL string) {
	authController := controller.NewAuthController(db, log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile))
	projectController := controller.NewProjectController(db, log.New(os.Stdout, "PROJECT: ", log.LstdFlags))
	invitationController := controller.NewInvitationController(db, log.New(os.Stdout, "INVITE: ", log.LstdFlags), mailer, appURL)
	issueController := controller.NewIssueController(db, log.New(os.Stdout, "ISSUE: ", log.LstdFlags))

	requestLogger := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	auth := app.Group("/auth", requestLogger)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/logout", authController.Logout)

	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Patch("/profile", authController.UpdateProfile)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	// Project routes
	projects := app.Group("/projects", middleware.Protected(), requestLogger)
	projects.Get("/", projectController.GetProjects)
	projects.Post("/", projectController.CreateProject)
	projects.Get("/:id", projectController.GetProject)
	projects.Delete("/:id", projectController.DeleteProject)
	projects.Get("/:id/members", projectController.GetMembers)
	projects.Post("/:id/members", projectController.AddMember)
	projects.Delete("/:id/members/:memberId", projectController.RemoveMember)
	projects.Post("/:id/invite", invitationController.CreateInvitation)

	// Invitation routes. Details are public: the token is the credential.
	invitations := app.Group("/invitations", requestLogger)
	invitations.Get("/", middleware.Protected(), invitationController.GetMyInvitations)
	invitations.Get("/:token", invitationController.GetInvitation)
	invitations.Post("/:token/accept", middleware.Protected(), invitationController.AcceptInvitation)

	// Issue routes
	issues := app.Group("/issues", middleware.Protected(), requestLogger)
	issues.Get("/", issueController.GetIssues)
	issues.Post("/", issueController.CreateIssue)
	issues.Patch("/:id", issueController.UpdateIssue)
	issues.Delete("/:id", issueController.DeleteIssue)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not Found",
		})
	})

	log.Println("Routes initialized successfully")
}
