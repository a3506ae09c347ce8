package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"projecthub/config"
	"projecthub/routes"
)

// mailerSpy records invitation dispatches so tests can assert on them.
type mailerSpy struct {
	mu    sync.Mutex
	sent  []sentInvitation
	fail  bool
	calls int
}

type sentInvitation struct {
	To          string
	ProjectName string
	InviterName string
	Link        string
}

func (m *mailerSpy) SendInvitation(to, projectName, inviterName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}
	m.sent = append(m.sent, sentInvitation{to, projectName, inviterName, link})
	return nil
}

func bootstrapApp(t *testing.T, mailer *mailerSpy) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A pooled in-memory sqlite would hand every connection its own
	// empty database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get DB instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	config.DB = db
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.AppURL = "http://localhost:3000"

	app := fiber.New()
	routes.SetupRoutes(app, db, mailer, config.AppConfig.AppURL)
	return app
}

func jsonBody(t *testing.T, payload interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return bytes.NewReader(raw)
}

// request performs a JSON request against the app and decodes the body.
func request(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return resp.StatusCode, decoded
}

// registerUser creates an account and returns its token and id.
func registerUser(t *testing.T, app *fiber.App, name, email string) (string, uint) {
	t.Helper()

	status, body := request(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	if status != http.StatusCreated {
		t.Fatalf("failed to register %s, status %d: %v", email, status, body)
	}

	token := body["token"].(string)
	user := body["user"].(map[string]interface{})
	return token, uint(user["ID"].(float64))
}

// createProject returns the new project's id.
func createProject(t *testing.T, app *fiber.App, token, name string) uint {
	t.Helper()

	status, body := request(t, app, http.MethodPost, "/projects", token, map[string]string{
		"name": name,
	})
	if status != http.StatusCreated {
		t.Fatalf("failed to create project %s, status %d: %v", name, status, body)
	}

	project := body["project"].(map[string]interface{})
	return uint(project["ID"].(float64))
}

// invite creates an invitation and returns its capability token.
func invite(t *testing.T, app *fiber.App, ownerToken string, projectID uint, email string) string {
	t.Helper()

	status, body := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/invite", projectID), ownerToken, map[string]string{
		"email": email,
	})
	if status != http.StatusOK {
		t.Fatalf("failed to invite %s, status %d: %v", email, status, body)
	}

	link := body["invitation_link"].(string)
	return link[len("http://localhost:3000/invitations/"):]
}
