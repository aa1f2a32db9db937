package guard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
)

func newTestChallenge(profiles *fakeProfiles, hasher *plainHasher, hash string, onEscalated func(ctx context.Context)) *Challenge {
	return NewChallenge(ChallengeParams{
		PrincipalID:  "principal-1",
		RouteID:      "billing",
		VisitID:      uuid.New(),
		MaxAttempts:  3,
		PasscodeHash: hash,
		Profiles:     profiles,
		Hasher:       hasher,
		OnEscalated:  onEscalated,
	})
}

func TestChallengeUnlocksOnMatch(t *testing.T) {
	t.Parallel()

	hasher := &plainHasher{}
	challenge := newTestChallenge(newFakeProfiles(), hasher, "hash:SECRET99", nil)

	state, err := challenge.Submit(context.Background(), "secret99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Phase != PhaseUnlocked {
		t.Fatalf("expected UNLOCKED, got %s", state.Phase)
	}
	if state.AttemptCount != 0 {
		t.Fatalf("match must not consume an attempt, got %d", state.AttemptCount)
	}
}

func TestChallengeEscalatesAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	hasher := &plainHasher{}
	var mu sync.Mutex
	escalations := 0
	challenge := newTestChallenge(newFakeProfiles(), hasher, "hash:SECRET99", func(context.Context) {
		mu.Lock()
		escalations++
		mu.Unlock()
	})

	for i := 1; i <= 2; i++ {
		state, err := challenge.Submit(context.Background(), "wrongpw1")
		if !errors.Is(err, domain.ErrPasscodeMismatch) {
			t.Fatalf("attempt %d: expected mismatch, got %v", i, err)
		}
		if state.RemainingAttempts != 3-i {
			t.Fatalf("attempt %d: expected %d remaining, got %d", i, 3-i, state.RemainingAttempts)
		}
	}

	state, err := challenge.Submit(context.Background(), "wrongpw1")
	if !errors.Is(err, domain.ErrChallengeEscalated) {
		t.Fatalf("expected escalation on third mismatch, got %v", err)
	}
	if state.Phase != PhaseEscalated {
		t.Fatalf("expected ESCALATED, got %s", state.Phase)
	}
	mu.Lock()
	if escalations != 1 {
		t.Fatalf("expected one escalation callback, got %d", escalations)
	}
	mu.Unlock()
}

func TestEscalatedChallengeRejectsCorrectPasscodeWithoutComparing(t *testing.T) {
	t.Parallel()

	hasher := &plainHasher{}
	challenge := newTestChallenge(newFakeProfiles(), hasher, "hash:SECRET99", nil)

	for i := 0; i < 3; i++ {
		_, _ = challenge.Submit(context.Background(), "wrongpw1")
	}
	comparesBefore := hasher.calls()

	_, err := challenge.Submit(context.Background(), "secret99")
	if !errors.Is(err, domain.ErrChallengeEscalated) {
		t.Fatalf("expected escalated rejection, got %v", err)
	}
	if hasher.calls() != comparesBefore {
		t.Fatalf("no comparison may run after escalation")
	}
}

func TestChallengeValidationConsumesNoAttempt(t *testing.T) {
	t.Parallel()

	hasher := &plainHasher{}
	challenge := newTestChallenge(newFakeProfiles(), hasher, "hash:SECRET99", nil)

	state, err := challenge.Submit(context.Background(), "short")
	if !errors.Is(err, domain.ErrInvalidPasscode) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if state.AttemptCount != 0 {
		t.Fatalf("validation must not consume an attempt, got %d", state.AttemptCount)
	}
	if hasher.calls() != 0 {
		t.Fatalf("validation must not reach the hasher")
	}
}

func TestChallengePolicyFetchFailureIsRetryable(t *testing.T) {
	t.Parallel()

	profiles := newFakeProfiles()
	profiles.setFetchErr(errors.New("backend down"))
	hasher := &plainHasher{}
	challenge := newTestChallenge(profiles, hasher, "", nil)

	state, err := challenge.Submit(context.Background(), "secret99")
	if !errors.Is(err, domain.ErrPolicyUnavailable) {
		t.Fatalf("expected policy unavailable, got %v", err)
	}
	if state.AttemptCount != 0 {
		t.Fatalf("policy failure must not consume an attempt, got %d", state.AttemptCount)
	}

	// Backend recovers; the same challenge proceeds with a real comparison.
	profiles.setFetchErr(nil)
	profiles.setPolicy("principal-1", "hash:SECRET99", true)
	state, err = challenge.Submit(context.Background(), "secret99")
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if state.Phase != PhaseUnlocked {
		t.Fatalf("expected UNLOCKED after recovery, got %s", state.Phase)
	}
}

func TestChallengeUnlocksWhenLockDisabledConcurrently(t *testing.T) {
	t.Parallel()

	profiles := newFakeProfiles()
	profiles.setPolicy("principal-1", "hash:SECRET99", false)
	hasher := &plainHasher{}
	challenge := newTestChallenge(profiles, hasher, "", nil)

	state, err := challenge.Submit(context.Background(), "whatevr1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Phase != PhaseUnlocked {
		t.Fatalf("expected UNLOCKED when lock was disabled, got %s", state.Phase)
	}
	if hasher.calls() != 0 {
		t.Fatalf("disabled lock must not compare digests")
	}
}

func TestClosedChallengeDiscardsSubmissions(t *testing.T) {
	t.Parallel()

	hasher := &plainHasher{}
	challenge := newTestChallenge(newFakeProfiles(), hasher, "hash:SECRET99", nil)

	challenge.Close()
	_, err := challenge.Submit(context.Background(), "secret99")
	if !errors.Is(err, domain.ErrVisitClosed) {
		t.Fatalf("expected ErrVisitClosed, got %v", err)
	}
	if got := challenge.State().Phase; got == PhaseUnlocked {
		t.Fatalf("closed challenge must not unlock")
	}
}
