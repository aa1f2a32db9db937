package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/ports"
)

type memClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMemClock() *memClock {
	return &memClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *memClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *memClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubProfiles struct {
	mu       sync.Mutex
	policies map[string]domain.LockPolicy
	fetchErr error
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{policies: map[string]domain.LockPolicy{}}
}

func (s *stubProfiles) GetLockPolicy(_ context.Context, principalID string) (domain.LockPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return domain.LockPolicy{}, s.fetchErr
	}
	policy, ok := s.policies[principalID]
	if !ok {
		return domain.LockPolicy{}, domain.ErrNotFound
	}
	return policy, nil
}

func (s *stubProfiles) UpsertLockPolicy(_ context.Context, principalID, passcodeHash string, now time.Time) (domain.LockPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy := domain.LockPolicy{
		PrincipalID:  principalID,
		Enabled:      true,
		PasscodeHash: passcodeHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.policies[principalID] = policy
	return policy, nil
}

func (s *stubProfiles) DisableLock(_ context.Context, principalID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[principalID]
	if !ok {
		return domain.ErrNotFound
	}
	policy.Enabled = false
	policy.UpdatedAt = now
	s.policies[principalID] = policy
	return nil
}

func (s *stubProfiles) policy(principalID string) (domain.LockPolicy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[principalID]
	return policy, ok
}

// stubHasher compares cleartext so tests control match/mismatch directly.
type stubHasher struct{}

func (stubHasher) Hash(passcode string) (string, error) { return "hash:" + passcode, nil }

func (stubHasher) Compare(hash, passcode string) error {
	if hash == "hash:"+passcode {
		return nil
	}
	return errors.New("hash mismatch")
}

type stubAuth struct {
	mu         sync.Mutex
	signOuts   int
	sentTokens []string
}

func (s *stubAuth) SignOut(context.Context, string, uuid.UUID) error {
	s.mu.Lock()
	s.signOuts++
	s.mu.Unlock()
	return nil
}

func (s *stubAuth) SendReverification(_ context.Context, _ string, token string) error {
	s.mu.Lock()
	s.sentTokens = append(s.sentTokens, token)
	s.mu.Unlock()
	return nil
}

func (s *stubAuth) lastToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sentTokens) == 0 {
		return ""
	}
	return s.sentTokens[len(s.sentTokens)-1]
}

type stubAttempts struct {
	mu       sync.Mutex
	inserted []domain.PasscodeAttempt
}

func (s *stubAttempts) Insert(_ context.Context, attempt domain.PasscodeAttempt) error {
	s.mu.Lock()
	attempt.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, attempt)
	s.mu.Unlock()
	return nil
}

func (s *stubAttempts) ListByPrincipal(_ context.Context, principalID string, limit, offset int, since *time.Time) ([]domain.PasscodeAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.PasscodeAttempt
	for _, attempt := range s.inserted {
		if attempt.PrincipalID != principalID {
			continue
		}
		if since != nil && attempt.AttemptAt.Before(*since) {
			continue
		}
		matched = append(matched, attempt)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *stubAttempts) all() []domain.PasscodeAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PasscodeAttempt(nil), s.inserted...)
}

type stubOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (s *stubOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *stubOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (s *stubOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}

func (s *stubOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (s *stubOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (s *stubOutbox) byType(eventType string) []ports.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []ports.OutboxEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type stubReverify struct {
	mu         sync.Mutex
	challenges map[string]ports.ReverifyChallenge
}

func newStubReverify() *stubReverify {
	return &stubReverify{challenges: map[string]ports.ReverifyChallenge{}}
}

func (s *stubReverify) Put(_ context.Context, token string, challenge ports.ReverifyChallenge, _ time.Duration) error {
	s.mu.Lock()
	s.challenges[token] = challenge
	s.mu.Unlock()
	return nil
}

func (s *stubReverify) Get(_ context.Context, token string) (*ports.ReverifyChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[token]
	if !ok {
		return nil, nil
	}
	return &challenge, nil
}

func (s *stubReverify) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.challenges, token)
	s.mu.Unlock()
	return nil
}

func (s *stubReverify) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

type stubMarkers struct {
	mu     sync.Mutex
	marked map[uuid.UUID]time.Time
}

func newStubMarkers() *stubMarkers {
	return &stubMarkers{marked: map[uuid.UUID]time.Time{}}
}

func (s *stubMarkers) MarkTerminated(_ context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	s.marked[sessionID] = expiresAt
	s.mu.Unlock()
	return nil
}

func (s *stubMarkers) IsTerminated(_ context.Context, sessionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.marked[sessionID]
	return ok, nil
}

// stubTokens resolves static bearer tokens to claims.
type stubTokens struct {
	mu     sync.Mutex
	claims map[string]ports.AuthClaims
}

func newStubTokens() *stubTokens {
	return &stubTokens{claims: map[string]ports.AuthClaims{}}
}

func (s *stubTokens) register(token string, claims ports.AuthClaims) {
	s.mu.Lock()
	s.claims[token] = claims
	s.mu.Unlock()
}

func (s *stubTokens) Sign(ports.AuthClaims) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubTokens) ParseAndValidate(token string) (ports.AuthClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.claims[token]
	if !ok {
		return ports.AuthClaims{}, errors.New("unknown token")
	}
	return claims, nil
}
