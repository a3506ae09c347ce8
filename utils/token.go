package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// invitationTokenBytes gives 256 bits of entropy; collisions are
// negligible and the token is unguessable.
const invitationTokenBytes = 32

// GenerateInvitationToken returns a random hex capability token.
func GenerateInvitationToken() (string, error) {
	buf := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
