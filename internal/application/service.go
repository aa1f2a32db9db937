package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/guard"
	"github.com/docukeep/session-guard/internal/ports"
)

// Config is the application-level guard configuration.
type Config struct {
	IdleThreshold    time.Duration
	WarningWindow    time.Duration
	TickInterval     time.Duration
	MaxAttempts      int
	FailMode         guard.FailMode
	MarkerTTL        time.Duration
	ReverifyTokenTTL time.Duration
}

// Service owns one guard session per authenticated session and fronts every
// guard use-case consumed by the HTTP adapter.
type Service struct {
	cfg      Config
	profiles ports.ProfileStore
	attempts ports.PasscodeAttemptRepository
	outbox   ports.OutboxRepository
	reverify ports.ReverifyChallengeStore
	markers  ports.TerminationMarkerStore
	auth     ports.AuthProvider
	hasher   ports.PasscodeHasher
	tokens   ports.TokenVerifier
	clock    guard.Clock
	logger   *slog.Logger
	nowFn    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*guard.Session
}

type Dependencies struct {
	Config   Config
	Profiles ports.ProfileStore
	Attempts ports.PasscodeAttemptRepository
	Outbox   ports.OutboxRepository
	Reverify ports.ReverifyChallengeStore
	Markers  ports.TerminationMarkerStore
	Auth     ports.AuthProvider
	Hasher   ports.PasscodeHasher
	Tokens   ports.TokenVerifier
	Clock    guard.Clock
	Logger   *slog.Logger
}

func NewService(deps Dependencies) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = guard.SystemClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      deps.Config,
		profiles: deps.Profiles,
		attempts: deps.Attempts,
		outbox:   deps.Outbox,
		reverify: deps.Reverify,
		markers:  deps.Markers,
		auth:     deps.Auth,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		clock:    clock,
		logger:   logger,
		nowFn:    clock.Now,
		sessions: make(map[uuid.UUID]*guard.Session),
	}
}

// Heartbeat records an activity signal and the optional foreground flag.
// Raw activity never resets an open warning countdown; only the explicit
// StillHere acknowledgment does.
func (s *Service) Heartbeat(ctx context.Context, token string, req HeartbeatRequest) (IdleStateResponse, error) {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return IdleStateResponse{}, err
	}
	session.Activity.RecordActivity()
	if req.Foregrounded != nil {
		session.Activity.SetForegrounded(*req.Foregrounded)
		if *req.Foregrounded {
			// Regaining foreground resyncs the countdown from the wall clock
			// in case the backgrounded client missed ticks.
			session.Timer.Tick()
		}
	}
	return idleStateResponse(session.Timer.State()), nil
}

// IdleState returns the countdown snapshot for rendering.
func (s *Service) IdleState(ctx context.Context, token string) (IdleStateResponse, error) {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return IdleStateResponse{}, err
	}
	return idleStateResponse(session.Timer.State()), nil
}

// StillHere is the explicit presence confirmation from the warning dialog.
func (s *Service) StillHere(ctx context.Context, token string) (IdleStateResponse, error) {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return IdleStateResponse{}, err
	}
	session.Timer.StillHere()
	return idleStateResponse(session.Timer.State()), nil
}

// Logout is the explicit "Log Me Out" action.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return err
	}
	return session.Logout(ctx)
}

// sessionFor resolves the guard session behind a bearer token, creating and
// starting it on first contact. Terminated sessions stay ended: the marker
// store is consulted so a replayed token cannot resurrect one.
func (s *Service) sessionFor(ctx context.Context, token string) (*guard.Session, error) {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	s.mu.Lock()
	session, ok := s.sessions[claims.SessionID]
	s.mu.Unlock()
	if ok {
		if session.Ended() {
			return nil, domain.ErrSessionEnded
		}
		return session, nil
	}

	if terminated, markerErr := s.markers.IsTerminated(ctx, claims.SessionID); markerErr == nil && terminated {
		return nil, domain.ErrSessionEnded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok = s.sessions[claims.SessionID]; ok {
		return session, nil
	}
	session = s.newGuardSession(claims)
	s.sessions[claims.SessionID] = session
	session.Start(context.Background())
	s.logger.InfoContext(ctx, "guard session started",
		"module", "application",
		"operation", "start_guard_session",
		"outcome", "success",
		"session_id", claims.SessionID,
	)
	return session, nil
}

func (s *Service) newGuardSession(claims ports.AuthClaims) *guard.Session {
	return guard.NewSession(claims.PrincipalID, claims.SessionID, guard.SessionConfig{
		IdleThreshold: s.cfg.IdleThreshold,
		WarningWindow: s.cfg.WarningWindow,
		TickInterval:  s.cfg.TickInterval,
		MaxAttempts:   s.cfg.MaxAttempts,
		FailMode:      s.cfg.FailMode,
		MarkerTTL:     s.cfg.MarkerTTL,
	}, guard.SessionDeps{
		Clock:    s.clock,
		Auth:     s.auth,
		Profiles: s.profiles,
		Hasher:   s.hasher,
		Markers:  s.markers,
		Logger:   s.logger,
		OnTerminated: func(reason string, signOutErr error) {
			s.handleTerminated(claims, reason, signOutErr)
		},
		OnEscalated: func(ctx context.Context, routeID string, visitID uuid.UUID) {
			s.handleEscalated(ctx, claims, routeID, visitID)
		},
	})
}

func (s *Service) handleTerminated(claims ports.AuthClaims, reason string, signOutErr error) {
	s.mu.Lock()
	delete(s.sessions, claims.SessionID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.emitEvent(ctx, eventSessionTerminated, claims.PrincipalID, map[string]any{
		"principal_id": claims.PrincipalID,
		"session_id":   claims.SessionID,
		"reason":       reason,
		"sign_out_ok":  signOutErr == nil,
		"terminated_at": s.nowFn(),
	})
}

func idleStateResponse(state guard.TimerState) IdleStateResponse {
	return IdleStateResponse{
		Phase:            state.Phase.String(),
		SecondsRemaining: state.SecondsRemaining,
	}
}
