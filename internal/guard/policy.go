package guard

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/ports"
)

// FailMode selects behavior when the lock policy cannot be loaded.
type FailMode int

const (
	// FailOpen treats an unloadable policy as "no gate" (availability first).
	FailOpen FailMode = iota
	// FailClosed challenges when the policy cannot be loaded.
	FailClosed
)

// ParseFailMode maps config strings to a fail mode; anything other than
// "closed" resolves to open.
func ParseFailMode(raw string) FailMode {
	if strings.EqualFold(strings.TrimSpace(raw), "closed") {
		return FailClosed
	}
	return FailOpen
}

// PolicyDecision is one resolved lock check. FetchFailed distinguishes a
// fail-mode fallback from a genuine "lock disabled" read so callers never
// silently alternate behaviors across renders of the same visit.
type PolicyDecision struct {
	Locked       bool
	PasscodeHash string
	FetchFailed  bool
}

// PolicyEvaluator resolves whether a protected surface requires a passcode
// challenge for a principal. The policy is re-fetched on every route entry;
// it is never cached across visits.
type PolicyEvaluator struct {
	profiles ports.ProfileStore
	failMode FailMode
	logger   *slog.Logger
}

func NewPolicyEvaluator(profiles ports.ProfileStore, failMode FailMode, logger *slog.Logger) *PolicyEvaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyEvaluator{profiles: profiles, failMode: failMode, logger: logger}
}

// Evaluate reads the principal's lock policy. A missing policy means no lock
// was ever configured; a fetch failure resolves per the configured fail mode.
func (e *PolicyEvaluator) Evaluate(ctx context.Context, principalID string) PolicyDecision {
	policy, err := e.profiles.GetLockPolicy(ctx, principalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return PolicyDecision{}
		}
		e.logger.WarnContext(ctx, "lock policy fetch failed",
			"module", "guard",
			"operation", "evaluate_lock_policy",
			"outcome", "failure",
			"fail_closed", e.failMode == FailClosed,
			"error", err,
		)
		return PolicyDecision{Locked: e.failMode == FailClosed, FetchFailed: true}
	}
	if !policy.Enabled {
		return PolicyDecision{}
	}
	return PolicyDecision{Locked: true, PasscodeHash: policy.PasscodeHash}
}
