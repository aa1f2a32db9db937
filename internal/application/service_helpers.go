package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/ports"
)

// Guard event types published through the outbox.
const (
	eventSessionTerminated = "guard.session.terminated"
	eventLockEnabled       = "profile_lock.enabled"
	eventLockDisabled      = "profile_lock.disabled"
	eventLockEscalated     = "profile_lock.escalated"
	eventLockReverified    = "profile_lock.reverified"
)

// emitEvent enqueues a guard event on the transactional outbox. Event loss
// is logged but never fails the triggering operation.
func (s *Service) emitEvent(ctx context.Context, eventType, partitionKey string, payload map[string]any) {
	raw, _ := json.Marshal(payload)
	if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   s.nowFn(),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue guard event",
			"module", "application",
			"operation", "emit_event",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a cryptographically random hex token.
func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}
