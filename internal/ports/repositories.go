package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
)

// ProfileStore owns the persisted lock policy for each principal.
// The policy is written by the profile-settings flow and read on every
// protected-route entry, so reads must tolerate concurrent updates.
type ProfileStore interface {
	GetLockPolicy(ctx context.Context, principalID string) (domain.LockPolicy, error)
	UpsertLockPolicy(ctx context.Context, principalID, passcodeHash string, now time.Time) (domain.LockPolicy, error)
	DisableLock(ctx context.Context, principalID string, now time.Time) error
}

// PasscodeAttemptRepository stores challenge outcomes used for audit.
type PasscodeAttemptRepository interface {
	Insert(ctx context.Context, attempt domain.PasscodeAttempt) error
	ListByPrincipal(ctx context.Context, principalID string, limit, offset int, since *time.Time) ([]domain.PasscodeAttempt, error)
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	FirstSeenAt    time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for guard events.
// This explicit contract enables transactional outbox patterns without leaking DB details.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
