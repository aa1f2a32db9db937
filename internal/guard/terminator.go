package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/ports"
)

// TerminatorParams wires one terminator to its session.
type TerminatorParams struct {
	PrincipalID string
	SessionID   uuid.UUID
	Auth        ports.AuthProvider
	Markers     ports.TerminationMarkerStore
	MarkerTTL   time.Duration
	Logger      *slog.Logger
	// Cleanup clears the owning session's local state. It runs before the
	// remote sign-out so protected surfaces are hidden even if the network
	// call fails.
	Cleanup func()
}

// Terminator ends the guard session. It is idempotent: concurrent calls
// result in exactly one cleanup and one remote sign-out attempt.
type Terminator struct {
	mu          sync.Mutex
	done        bool
	principalID string
	sessionID   uuid.UUID
	auth        ports.AuthProvider
	markers     ports.TerminationMarkerStore
	markerTTL   time.Duration
	logger      *slog.Logger
	cleanup     func()
}

func NewTerminator(params TerminatorParams) *Terminator {
	if params.MarkerTTL <= 0 {
		params.MarkerTTL = time.Hour
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	return &Terminator{
		principalID: params.PrincipalID,
		sessionID:   params.SessionID,
		auth:        params.Auth,
		markers:     params.Markers,
		markerTTL:   params.MarkerTTL,
		logger:      params.Logger,
		cleanup:     params.Cleanup,
	}
}

// Terminate ends the session and reports whether this call performed the
// termination. A second call while the first is in flight is a no-op. Remote
// sign-out failure still leaves the session logically ended; the wrapped
// ErrTermination is surfaced for retry/logging only.
func (t *Terminator) Terminate(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false, nil
	}
	t.done = true
	t.mu.Unlock()

	if t.cleanup != nil {
		t.cleanup()
	}

	if t.markers != nil {
		if err := t.markers.MarkTerminated(ctx, t.sessionID, time.Now().UTC().Add(t.markerTTL)); err != nil {
			t.logger.WarnContext(ctx, "failed to persist termination marker",
				"module", "guard",
				"operation", "terminate",
				"outcome", "failure",
				"session_id", t.sessionID,
				"error", err,
			)
		}
	}

	if err := t.auth.SignOut(ctx, t.principalID, t.sessionID); err != nil {
		t.logger.WarnContext(ctx, "remote sign-out failed; session ended locally",
			"module", "guard",
			"operation", "terminate",
			"outcome", "failure",
			"session_id", t.sessionID,
			"error", err,
		)
		return true, fmt.Errorf("%w: %v", domain.ErrTermination, err)
	}
	return true, nil
}

// Terminated reports whether termination has started.
func (t *Terminator) Terminated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
