package ports

import (
	"time"

	"github.com/google/uuid"
)

// PasscodeHasher computes and verifies one-way passcode digests.
// Compare must not leak timing correlated to the mismatch position.
type PasscodeHasher interface {
	Hash(passcode string) (string, error)
	Compare(hash, passcode string) error
}

// AuthClaims identifies the authenticated principal behind a guard call.
type AuthClaims struct {
	PrincipalID string    `json:"principal_id"`
	Email       string    `json:"email"`
	SessionID   uuid.UUID `json:"session_id"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenVerifier parses and validates guard tokens issued by the auth backend.
type TokenVerifier interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
}
