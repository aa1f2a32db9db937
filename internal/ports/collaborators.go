package ports

import (
	"context"

	"github.com/google/uuid"
)

// AuthProvider is the primary authentication backend consumed by the guard.
// The guard never mutates principal state directly; it only requests
// termination and out-of-band reverification through this port.
type AuthProvider interface {
	SignOut(ctx context.Context, principalID string, sessionID uuid.UUID) error
	// SendReverification triggers the out-of-band email challenge carrying
	// the one-time completion token. It is fire-and-forget from the guard's
	// perspective; delivery tracking stays with the auth backend.
	SendReverification(ctx context.Context, principalID, token string) error
}
