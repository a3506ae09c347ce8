package models

import (
	"time"

	"gorm.io/gorm"
)

// Invitation lifecycle. Accepted and expired are terminal; declined is
// only ever set by clients navigating away and is kept for
// compatibility with stored data.
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
	InvitationStatusExpired  = "expired"
)

// InvitationTTL is how long an invitation stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation invites an email address into a project. The token is a
// capability credential: whoever presents it may join, it is not bound
// to the invitee's account email.
type Invitation struct {
	gorm.Model

	Token        string    `gorm:"uniqueIndex;not null" json:"-"`
	ProjectID    uint      `gorm:"not null;index" json:"project_id"`
	InviterID    uint      `gorm:"not null;index" json:"inviter_id"`
	InviteeEmail string    `gorm:"not null;index" json:"invitee_email"`
	Status       string    `gorm:"default:'pending';index" json:"status"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`

	// Relations
	Project Project `json:"project,omitempty"`
	Inviter User    `json:"inviter,omitempty"`
}

// IsExpired reports whether the invitation is past its expiry at now.
// Expiry is lazy: callers persist the status change on first read past
// this point instead of running a background sweep.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
