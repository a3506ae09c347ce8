package controller_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"projecthub/config"
	"projecthub/models"
)

func TestInvitationFlow(t *testing.T) {
	mailer := &mailerSpy{}
	app := bootstrapApp(t, mailer)
	ownerToken, _ := registerUser(t, app, "Olivia", "olivia@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	// Owner invites an address that is not registered yet.
	status, body := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/invite", projectID), ownerToken, map[string]string{
		"email": "bob@x.com",
	})
	if status != http.StatusOK {
		t.Fatalf("invite failed, status %d: %v", status, body)
	}

	link := body["invitation_link"].(string)
	if !strings.HasPrefix(link, "http://localhost:3000/invitations/") {
		t.Fatalf("unexpected invitation link shape: %s", link)
	}
	token := strings.TrimPrefix(link, "http://localhost:3000/invitations/")
	if len(token) != 64 {
		t.Errorf("expected a 32-byte hex token, got %d characters", len(token))
	}

	if len(mailer.sent) != 1 || mailer.sent[0].To != "bob@x.com" {
		t.Fatalf("expected one invitation email to bob@x.com, got %+v", mailer.sent)
	}
	if mailer.sent[0].Link != link {
		t.Errorf("email link %q does not match returned link %q", mailer.sent[0].Link, link)
	}

	// Details are readable without authentication.
	status, body = request(t, app, http.MethodGet, "/invitations/"+token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("unauthenticated details fetch failed, status %d", status)
	}
	details := body["invitation"].(map[string]interface{})
	if details["project_name"] != "Alpha" {
		t.Errorf("expected project name Alpha, got %v", details["project_name"])
	}
	if details["status"] != models.InvitationStatusPending {
		t.Errorf("expected pending status, got %v", details["status"])
	}
	if details["inviter_name"] != "Olivia" {
		t.Errorf("expected inviter name Olivia, got %v", details["inviter_name"])
	}

	// Bob registers and redeems the token.
	bobToken, bobID := registerUser(t, app, "Bob", "bob@x.com")
	status, body = request(t, app, http.MethodPost, "/invitations/"+token+"/accept", bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("accept failed, status %d: %v", status, body)
	}
	if uint(body["project_id"].(float64)) != projectID {
		t.Errorf("expected project id %d in response, got %v", projectID, body["project_id"])
	}

	assertMemberCount(t, app, ownerToken, projectID, bobID, 1)

	// A consumed invitation reads back as accepted.
	_, body = request(t, app, http.MethodGet, "/invitations/"+token, "", nil)
	if got := body["invitation"].(map[string]interface{})["status"]; got != models.InvitationStatusAccepted {
		t.Errorf("expected accepted status, got %v", got)
	}

	// Re-submission stays successful and does not duplicate membership.
	status, body = request(t, app, http.MethodPost, "/invitations/"+token+"/accept", bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("re-accept of consumed token should stay successful, got %d: %v", status, body)
	}
	if msg := body["message"].(string); !strings.Contains(msg, "already a member") {
		t.Errorf("expected an already-a-member message, got %q", msg)
	}
	assertMemberCount(t, app, ownerToken, projectID, bobID, 1)

	// A stranger presenting the consumed token is turned away.
	strangerToken, strangerID := registerUser(t, app, "Mallory", "mallory@example.com")
	status, _ = request(t, app, http.MethodPost, "/invitations/"+token+"/accept", strangerToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("consumed token from a non-member should be not found, got %d", status)
	}
	assertMemberCount(t, app, ownerToken, projectID, strangerID, 0)
}

func TestAcceptIsIdempotentForExistingMembers(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	memberToken, memberID := registerUser(t, app, "Member", "member@example.com")
	status, _ := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/members", projectID), ownerToken, map[string]string{
		"email": "member@example.com",
	})
	if status != http.StatusOK {
		t.Fatalf("failed to add member, status %d", status)
	}

	// A pending invitation redeemed by someone who is already a member
	// succeeds and is consumed.
	token := invite(t, app, ownerToken, projectID, "member-alt@example.com")

	status, body := request(t, app, http.MethodPost, "/invitations/"+token+"/accept", memberToken, nil)
	if status != http.StatusOK {
		t.Fatalf("accept by existing member failed, status %d: %v", status, body)
	}
	if msg := body["message"].(string); !strings.Contains(msg, "already a member") {
		t.Errorf("expected an already-a-member message, got %q", msg)
	}

	assertMemberCount(t, app, ownerToken, projectID, memberID, 1)

	var invitation models.Invitation
	if err := config.DB.Where("token = ?", token).First(&invitation).Error; err != nil {
		t.Fatalf("invitation disappeared: %v", err)
	}
	if invitation.Status != models.InvitationStatusAccepted {
		t.Errorf("expected invitation to be consumed, status is %s", invitation.Status)
	}
}

func TestDuplicatePendingInvitationConflicts(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	invite(t, app, ownerToken, projectID, "bob@x.com")

	status, body := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/invite", projectID), ownerToken, map[string]string{
		"email": "bob@x.com",
	})
	if status != http.StatusConflict {
		t.Errorf("second pending invite should conflict, got %d (%v)", status, body)
	}
}

func TestInviteExistingMemberConflicts(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	registerUser(t, app, "Member", "member@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	status, _ := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/members", projectID), ownerToken, map[string]string{
		"email": "member@example.com",
	})
	if status != http.StatusOK {
		t.Fatalf("failed to add member, status %d", status)
	}

	status, body := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/invite", projectID), ownerToken, map[string]string{
		"email": "member@example.com",
	})
	if status != http.StatusConflict {
		t.Errorf("inviting an existing member should conflict, got %d (%v)", status, body)
	}
}

func TestInvitationExpiryIsLazyAndMonotonic(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	token := invite(t, app, ownerToken, projectID, "late@example.com")

	// Simulate the clock passing the expiry.
	if err := config.DB.Model(&models.Invitation{}).
		Where("token = ?", token).
		Update("expires_at", time.Now().Add(-time.Second)).Error; err != nil {
		t.Fatalf("failed to backdate invitation: %v", err)
	}

	// The first read flips the stored status, no explicit expire call.
	_, body := request(t, app, http.MethodGet, "/invitations/"+token, "", nil)
	if got := body["invitation"].(map[string]interface{})["status"]; got != models.InvitationStatusExpired {
		t.Fatalf("expected expired status on read, got %v", got)
	}

	var invitation models.Invitation
	if err := config.DB.Where("token = ?", token).First(&invitation).Error; err != nil {
		t.Fatalf("invitation disappeared: %v", err)
	}
	if invitation.Status != models.InvitationStatusExpired {
		t.Fatalf("expired status was not persisted, got %s", invitation.Status)
	}

	// Every subsequent read keeps reporting expired.
	for i := 0; i < 3; i++ {
		_, body = request(t, app, http.MethodGet, "/invitations/"+token, "", nil)
		if got := body["invitation"].(map[string]interface{})["status"]; got != models.InvitationStatusExpired {
			t.Errorf("read %d: expected expired status, got %v", i, got)
		}
	}

	// Accepting an expired token fails and never grants membership.
	accepterToken, accepterID := registerUser(t, app, "Late", "late@example.com")
	status, _ := request(t, app, http.MethodPost, "/invitations/"+token+"/accept", accepterToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("accept of expired token should be not found, got %d", status)
	}
	assertMemberCount(t, app, ownerToken, projectID, accepterID, 0)
}

func TestAcceptExpiresPendingTokenOnRedemption(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	token := invite(t, app, ownerToken, projectID, "late@example.com")
	if err := config.DB.Model(&models.Invitation{}).
		Where("token = ?", token).
		Update("expires_at", time.Now().Add(-time.Second)).Error; err != nil {
		t.Fatalf("failed to backdate invitation: %v", err)
	}

	// Accept is the first reader here, so it performs the lazy
	// transition itself and reports the expiry.
	accepterToken, _ := registerUser(t, app, "Late", "late@example.com")
	status, body := request(t, app, http.MethodPost, "/invitations/"+token+"/accept", accepterToken, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired token, got %d (%v)", status, body)
	}

	var invitation models.Invitation
	if err := config.DB.Where("token = ?", token).First(&invitation).Error; err != nil {
		t.Fatalf("invitation disappeared: %v", err)
	}
	if invitation.Status != models.InvitationStatusExpired {
		t.Errorf("expected persisted expired status, got %s", invitation.Status)
	}
}

func TestInvitationSurvivesEmailFailure(t *testing.T) {
	mailer := &mailerSpy{fail: true}
	app := bootstrapApp(t, mailer)
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	projectID := createProject(t, app, ownerToken, "Alpha")

	status, body := request(t, app, http.MethodPost, fmt.Sprintf("/projects/%d/invite", projectID), ownerToken, map[string]string{
		"email": "bob@x.com",
	})
	if status != http.StatusOK {
		t.Fatalf("invite must succeed despite email failure, got %d (%v)", status, body)
	}
	if mailer.calls != 1 {
		t.Errorf("expected one dispatch attempt, got %d", mailer.calls)
	}
	if _, ok := body["invitation_link"].(string); !ok {
		t.Error("invitation link missing from response")
	}
}

func TestListMyInvitations(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})
	ownerToken, _ := registerUser(t, app, "Owner", "owner@example.com")
	first := createProject(t, app, ownerToken, "Alpha")
	second := createProject(t, app, ownerToken, "Beta")

	invite(t, app, ownerToken, first, "bob@x.com")
	invite(t, app, ownerToken, second, "bob@x.com")

	bobToken, _ := registerUser(t, app, "Bob", "bob@x.com")
	status, body := request(t, app, http.MethodGet, "/invitations", bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("listing invitations failed, status %d", status)
	}
	if got := len(body["invitations"].([]interface{})); got != 2 {
		t.Errorf("expected 2 invitations for bob, got %d", got)
	}
}

func TestGetUnknownInvitation(t *testing.T) {
	app := bootstrapApp(t, &mailerSpy{})

	status, _ := request(t, app, http.MethodGet, "/invitations/doesnotexist", "", nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown token, got %d", status)
	}
}

// assertMemberCount checks how many times userID appears in the
// project's members set.
func assertMemberCount(t *testing.T, app *fiber.App, ownerToken string, projectID, userID uint, expected int) {
	t.Helper()

	status, body := request(t, app, http.MethodGet, fmt.Sprintf("/projects/%d/members", projectID), ownerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("failed to list members, status %d", status)
	}

	count := 0
	for _, m := range body["members"].([]interface{}) {
		if uint(m.(map[string]interface{})["ID"].(float64)) == userID {
			count++
		}
	}
	if count != expected {
		t.Errorf("expected user %d to appear %d time(s) in members, got %d", userID, expected, count)
	}
}
