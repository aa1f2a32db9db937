package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
)

// manualClock advances only when the test says so.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeProfiles struct {
	mu       sync.Mutex
	policies map[string]domain.LockPolicy
	fetchErr error
	getCalls int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{policies: map[string]domain.LockPolicy{}}
}

func (f *fakeProfiles) GetLockPolicy(_ context.Context, principalID string) (domain.LockPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.fetchErr != nil {
		return domain.LockPolicy{}, f.fetchErr
	}
	policy, ok := f.policies[principalID]
	if !ok {
		return domain.LockPolicy{}, domain.ErrNotFound
	}
	return policy, nil
}

func (f *fakeProfiles) UpsertLockPolicy(_ context.Context, principalID, passcodeHash string, now time.Time) (domain.LockPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	policy := domain.LockPolicy{
		PrincipalID:  principalID,
		Enabled:      true,
		PasscodeHash: passcodeHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.policies[principalID] = policy
	return policy, nil
}

func (f *fakeProfiles) DisableLock(_ context.Context, principalID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	policy, ok := f.policies[principalID]
	if !ok {
		return domain.ErrNotFound
	}
	policy.Enabled = false
	policy.UpdatedAt = now
	f.policies[principalID] = policy
	return nil
}

func (f *fakeProfiles) setPolicy(principalID, hash string, enabled bool) {
	f.mu.Lock()
	f.policies[principalID] = domain.LockPolicy{
		PrincipalID:  principalID,
		Enabled:      enabled,
		PasscodeHash: hash,
	}
	f.mu.Unlock()
}

func (f *fakeProfiles) setFetchErr(err error) {
	f.mu.Lock()
	f.fetchErr = err
	f.mu.Unlock()
}

// plainHasher compares cleartext so tests control match/mismatch directly.
type plainHasher struct {
	mu           sync.Mutex
	compareCalls int
}

func (h *plainHasher) Hash(passcode string) (string, error) {
	return "hash:" + passcode, nil
}

func (h *plainHasher) Compare(hash, passcode string) error {
	h.mu.Lock()
	h.compareCalls++
	h.mu.Unlock()
	if hash == "hash:"+passcode {
		return nil
	}
	return errors.New("hash mismatch")
}

func (h *plainHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compareCalls
}

type fakeAuth struct {
	mu           sync.Mutex
	signOutCalls int
	signOutErr   error
	sendCalls    int
	sendErr      error
}

func (f *fakeAuth) SignOut(context.Context, string, uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeAuth) SendReverification(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	return f.sendErr
}

func (f *fakeAuth) signOuts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutCalls
}

type fakeMarkers struct {
	mu     sync.Mutex
	marked map[uuid.UUID]time.Time
}

func newFakeMarkers() *fakeMarkers {
	return &fakeMarkers{marked: map[uuid.UUID]time.Time{}}
}

func (f *fakeMarkers) MarkTerminated(_ context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	f.mu.Lock()
	f.marked[sessionID] = expiresAt
	f.mu.Unlock()
	return nil
}

func (f *fakeMarkers) IsTerminated(_ context.Context, sessionID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.marked[sessionID]
	return ok, nil
}
