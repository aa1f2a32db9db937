package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/ports"
)

// ChallengePhase is the passcode challenge's finite state for one visit.
type ChallengePhase int

const (
	// PhaseAwaitingPasscode accepts candidate submissions.
	PhaseAwaitingPasscode ChallengePhase = iota
	// PhaseEscalated means the attempt budget is exhausted and the only exits
	// are leaving the route or out-of-band email reverification. There is no
	// separate locked phase; exhausting the budget escalates immediately.
	PhaseEscalated
	// PhaseUnlocked is terminal for the visit; route content may render.
	PhaseUnlocked
)

func (p ChallengePhase) String() string {
	switch p {
	case PhaseAwaitingPasscode:
		return "AWAITING_PASSCODE"
	case PhaseEscalated:
		return "ESCALATED"
	case PhaseUnlocked:
		return "UNLOCKED"
	default:
		return "UNKNOWN"
	}
}

// ChallengeState is the submit-visible snapshot.
type ChallengeState struct {
	Phase             ChallengePhase
	AttemptCount      int
	RemainingAttempts int
}

// ChallengeParams wires one challenge to its visit.
type ChallengeParams struct {
	PrincipalID string
	RouteID     string
	VisitID     uuid.UUID
	MaxAttempts int
	// PasscodeHash primes the stored digest when the route-entry policy fetch
	// succeeded. Left empty, Submit re-fetches the policy (retryable).
	PasscodeHash string
	Profiles     ports.ProfileStore
	Hasher       ports.PasscodeHasher
	// OnEscalated fires once when the attempt budget is exhausted. The caller
	// owns the fire-and-forget email dispatch and its error handling.
	OnEscalated func(ctx context.Context)
}

// Challenge manages passcode entry, verification, attempt counting and
// escalation for a single protected-route visit. Attempt state survives
// re-renders within the visit and is discarded when the visit closes.
type Challenge struct {
	mu           sync.Mutex
	phase        ChallengePhase
	attemptCount int
	maxAttempts  int
	passcodeHash string
	closed       bool
	principalID  string
	routeID      string
	visitID      uuid.UUID
	profiles     ports.ProfileStore
	hasher       ports.PasscodeHasher
	onEscalated  func(ctx context.Context)
}

func NewChallenge(params ChallengeParams) *Challenge {
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = 3
	}
	return &Challenge{
		phase:        PhaseAwaitingPasscode,
		maxAttempts:  params.MaxAttempts,
		passcodeHash: params.PasscodeHash,
		principalID:  params.PrincipalID,
		routeID:      params.RouteID,
		visitID:      params.VisitID,
		profiles:     params.Profiles,
		hasher:       params.Hasher,
		onEscalated:  params.OnEscalated,
	}
}

// State returns the current snapshot.
func (c *Challenge) State() ChallengeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Challenge) stateLocked() ChallengeState {
	remaining := c.maxAttempts - c.attemptCount
	if remaining < 0 {
		remaining = 0
	}
	return ChallengeState{
		Phase:             c.phase,
		AttemptCount:      c.attemptCount,
		RemainingAttempts: remaining,
	}
}

// Close discards the challenge when the visit ends. Any verification still
// in flight resolves to ErrVisitClosed instead of mutating stale state.
func (c *Challenge) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Submit verifies one candidate passcode.
//
// Outcomes: nil with PhaseUnlocked on match; ErrInvalidPasscode for malformed
// input (no attempt consumed); ErrPasscodeMismatch with remaining attempts;
// ErrChallengeEscalated once the budget is exhausted (and on every submit
// after); ErrPolicyUnavailable when the stored digest cannot be determined
// (retryable, no attempt consumed); ErrVisitClosed when the visit ended.
func (c *Challenge) Submit(ctx context.Context, candidate string) (ChallengeState, error) {
	normalized, validationErr := domain.NormalizePasscode(candidate)

	c.mu.Lock()
	if c.closed {
		state := c.stateLocked()
		c.mu.Unlock()
		return state, domain.ErrVisitClosed
	}
	switch c.phase {
	case PhaseUnlocked:
		state := c.stateLocked()
		c.mu.Unlock()
		return state, nil
	case PhaseEscalated:
		state := c.stateLocked()
		c.mu.Unlock()
		return state, domain.ErrChallengeEscalated
	}
	if validationErr != nil {
		state := c.stateLocked()
		c.mu.Unlock()
		return state, validationErr
	}
	hash := c.passcodeHash
	c.mu.Unlock()

	if hash == "" {
		policy, err := c.profiles.GetLockPolicy(ctx, c.principalID)
		if err != nil {
			return c.State(), fmt.Errorf("%w: %v", domain.ErrPolicyUnavailable, err)
		}
		if !policy.Enabled || policy.PasscodeHash == "" {
			// Lock was disabled in another tab since route entry.
			c.mu.Lock()
			if !c.closed && c.phase == PhaseAwaitingPasscode {
				c.phase = PhaseUnlocked
			}
			state := c.stateLocked()
			c.mu.Unlock()
			return state, nil
		}
		c.mu.Lock()
		if c.closed {
			state := c.stateLocked()
			c.mu.Unlock()
			return state, domain.ErrVisitClosed
		}
		c.passcodeHash = policy.PasscodeHash
		hash = policy.PasscodeHash
		c.mu.Unlock()
	}

	// The digest comparison runs outside the lock; state is re-validated
	// afterwards so a result arriving after Close or escalation is discarded.
	compareErr := c.hasher.Compare(hash, normalized)

	c.mu.Lock()
	if c.closed {
		state := c.stateLocked()
		c.mu.Unlock()
		return state, domain.ErrVisitClosed
	}
	if c.phase != PhaseAwaitingPasscode {
		state := c.stateLocked()
		c.mu.Unlock()
		if state.Phase == PhaseEscalated {
			return state, domain.ErrChallengeEscalated
		}
		return state, nil
	}
	if compareErr == nil {
		c.phase = PhaseUnlocked
		state := c.stateLocked()
		c.mu.Unlock()
		return state, nil
	}

	c.attemptCount++
	if c.attemptCount >= c.maxAttempts {
		c.phase = PhaseEscalated
		state := c.stateLocked()
		escalate := c.onEscalated
		c.mu.Unlock()
		if escalate != nil {
			escalate(ctx)
		}
		return state, domain.ErrChallengeEscalated
	}
	state := c.stateLocked()
	c.mu.Unlock()
	return state, fmt.Errorf("%w: %d attempts remaining", domain.ErrPasscodeMismatch, state.RemainingAttempts)
}
