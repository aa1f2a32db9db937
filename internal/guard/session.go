package guard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/ports"
)

// Termination reasons recorded with the termination hook.
const (
	TerminationReasonIdleExpired = "idle_expired"
	TerminationReasonUserLogout  = "user_logout"
)

// SessionConfig shapes one guard session's timers and challenge budget.
type SessionConfig struct {
	IdleThreshold time.Duration
	WarningWindow time.Duration
	TickInterval  time.Duration
	MaxAttempts   int
	FailMode      FailMode
	MarkerTTL     time.Duration
}

// SessionDeps carries the collaborators a guard session needs. The two hooks
// let the application layer attach auditing and event emission without the
// state machines knowing about either.
type SessionDeps struct {
	Clock    Clock
	Auth     ports.AuthProvider
	Profiles ports.ProfileStore
	Hasher   ports.PasscodeHasher
	Markers  ports.TerminationMarkerStore
	Logger   *slog.Logger
	// OnTerminated fires exactly once per session, after local state is
	// cleared. signOutErr is non-nil when the remote sign-out failed.
	OnTerminated func(reason string, signOutErr error)
	// OnEscalated fires once per challenge when the attempt budget is
	// exhausted. Its context is detached from the triggering request so the
	// email dispatch survives the caller navigating away.
	OnEscalated func(ctx context.Context, routeID string, visitID uuid.UUID)
}

// Session is the guard state for one authenticated session: activity
// tracking, the idle countdown, route visits and the terminator. The idle
// timer and any open passcode challenge are independent machines; idle expiry
// terminates the session regardless of challenge progress.
type Session struct {
	PrincipalID string
	SessionID   uuid.UUID
	Activity    *ActivityMonitor
	Timer       *IdleTimer
	Visits      *Coordinator

	cfg        SessionConfig
	deps       SessionDeps
	terminator *Terminator

	runMu     sync.Mutex
	cancelRun context.CancelFunc
}

// NewSession assembles the guard state machines for one session.
func NewSession(principalID string, sessionID uuid.UUID, cfg SessionConfig, deps SessionDeps) *Session {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	s := &Session{
		PrincipalID: principalID,
		SessionID:   sessionID,
		cfg:         cfg,
		deps:        deps,
	}

	s.Activity = NewActivityMonitor(deps.Clock)
	s.terminator = NewTerminator(TerminatorParams{
		PrincipalID: principalID,
		SessionID:   sessionID,
		Auth:        deps.Auth,
		Markers:     deps.Markers,
		MarkerTTL:   cfg.MarkerTTL,
		Logger:      deps.Logger,
		Cleanup:     s.clearLocalState,
	})
	s.Timer = NewIdleTimer(deps.Clock, s.Activity, IdleTimerConfig{
		IdleThreshold: cfg.IdleThreshold,
		WarningWindow: cfg.WarningWindow,
	}, s.onIdleExpired)

	evaluator := NewPolicyEvaluator(deps.Profiles, cfg.FailMode, deps.Logger)
	s.Visits = NewCoordinator(deps.Clock, principalID, evaluator, func(routeID string, visitID uuid.UUID, passcodeHash string) *Challenge {
		return NewChallenge(ChallengeParams{
			PrincipalID:  principalID,
			RouteID:      routeID,
			VisitID:      visitID,
			MaxAttempts:  cfg.MaxAttempts,
			PasscodeHash: passcodeHash,
			Profiles:     deps.Profiles,
			Hasher:       deps.Hasher,
			OnEscalated: func(ctx context.Context) {
				if deps.OnEscalated != nil {
					deps.OnEscalated(context.WithoutCancel(ctx), routeID, visitID)
				}
			},
		})
	})
	return s
}

// Start launches the periodic tick loop. The loop stops when the session
// terminates or the parent context is cancelled.
func (s *Session) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.runMu.Lock()
	s.cancelRun = cancel
	s.runMu.Unlock()
	go s.Timer.Run(runCtx, s.cfg.TickInterval)
}

// Terminate ends the session for the given reason. Safe to call repeatedly;
// the termination hook fires only for the call that actually terminated.
func (s *Session) Terminate(ctx context.Context, reason string) error {
	first, err := s.terminator.Terminate(ctx)
	if first && s.deps.OnTerminated != nil {
		s.deps.OnTerminated(reason, err)
	}
	return err
}

// Logout is the explicit "Log Me Out" action. It shares the terminal
// transition with countdown expiry: the timer ends Expired and the
// terminator runs exactly once between the two paths.
func (s *Session) Logout(ctx context.Context) error {
	err := s.Terminate(ctx, TerminationReasonUserLogout)
	s.Timer.RequestLogout()
	return err
}

// Ended reports whether the session has terminated.
func (s *Session) Ended() bool {
	return s.terminator.Terminated()
}

func (s *Session) onIdleExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.Terminate(ctx, TerminationReasonIdleExpired)
}

// clearLocalState runs inside the terminator, before the remote sign-out, so
// protected surfaces disappear even when the network call fails.
func (s *Session) clearLocalState() {
	s.runMu.Lock()
	cancel := s.cancelRun
	s.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.Visits.Reset()
}
