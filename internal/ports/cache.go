package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReverifyChallenge is a short-lived email-reverification envelope.
// It carries enough context to clear escalated visits without a profile lookup.
type ReverifyChallenge struct {
	PrincipalID string    `json:"principal_id"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReverifyChallengeStore persists one-time reverification tokens with TTL.
type ReverifyChallengeStore interface {
	Put(ctx context.Context, token string, challenge ReverifyChallenge, ttl time.Duration) error
	Get(ctx context.Context, token string) (*ReverifyChallenge, error)
	Delete(ctx context.Context, token string) error
}

// TerminationMarkerStore keeps terminated-session markers with TTL.
// Markers let replayed guard calls observe an ended session without a
// round-trip to the auth backend.
type TerminationMarkerStore interface {
	MarkTerminated(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error
	IsTerminated(ctx context.Context, sessionID uuid.UUID) (bool, error)
}
