package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// Payload is the identity snapshot held server-side for one session. It is
// denormalized at login time; profile updates patch it explicitly.
type Payload struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
}

// newSessionID creates an opaque, unguessable session identifier:
// 32 bytes from crypto/rand, base64url-encoded.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
