package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
)

func TestTerminateRunsExactlyOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{}
	markers := newFakeMarkers()
	cleanups := 0
	var cleanupMu sync.Mutex
	term := NewTerminator(TerminatorParams{
		PrincipalID: "principal-1",
		SessionID:   uuid.New(),
		Auth:        auth,
		Markers:     markers,
		MarkerTTL:   time.Hour,
		Cleanup: func() {
			cleanupMu.Lock()
			cleanups++
			cleanupMu.Unlock()
		},
	})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			first, err := term.Terminate(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = first
		}(i)
	}
	wg.Wait()

	firsts := 0
	for _, first := range results {
		if first {
			firsts++
		}
	}
	if firsts != 1 {
		t.Fatalf("expected exactly one caller to perform termination, got %d", firsts)
	}
	if auth.signOuts() != 1 {
		t.Fatalf("expected exactly one remote sign-out, got %d", auth.signOuts())
	}
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	if cleanups != 1 {
		t.Fatalf("expected exactly one cleanup, got %d", cleanups)
	}
}

func TestTerminateEndsSessionDespiteSignOutFailure(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{signOutErr: errors.New("network down")}
	markers := newFakeMarkers()
	cleanupRan := false
	term := NewTerminator(TerminatorParams{
		PrincipalID: "principal-1",
		SessionID:   uuid.New(),
		Auth:        auth,
		Markers:     markers,
		Cleanup:     func() { cleanupRan = true },
	})

	first, err := term.Terminate(context.Background())
	if !first {
		t.Fatalf("expected the call to perform termination")
	}
	if !errors.Is(err, domain.ErrTermination) {
		t.Fatalf("expected a wrapped termination error, got %v", err)
	}
	if !cleanupRan {
		t.Fatalf("expected cleanup to run before the remote sign-out")
	}
	if !term.Terminated() {
		t.Fatalf("expected the session to be ended locally")
	}

	// Retrying after failure stays a no-op; the session is already over.
	first, err = term.Terminate(context.Background())
	if first || err != nil {
		t.Fatalf("expected a no-op retry, got first=%v err=%v", first, err)
	}
	if auth.signOuts() != 1 {
		t.Fatalf("expected no second sign-out attempt, got %d", auth.signOuts())
	}
}

func TestTerminatePersistsTerminationMarker(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{}
	markers := newFakeMarkers()
	sessionID := uuid.New()
	term := NewTerminator(TerminatorParams{
		PrincipalID: "principal-1",
		SessionID:   sessionID,
		Auth:        auth,
		Markers:     markers,
	})

	if _, err := term.Terminate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	terminated, err := markers.IsTerminated(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !terminated {
		t.Fatalf("expected the termination marker to be persisted")
	}
}
