package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/application"
	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/guard"
	"github.com/docukeep/session-guard/internal/ports"
)

const contractToken = "contract-token"

type memProfiles struct {
	mu       sync.Mutex
	policies map[string]domain.LockPolicy
}

func (m *memProfiles) GetLockPolicy(_ context.Context, principalID string) (domain.LockPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	policy, ok := m.policies[principalID]
	if !ok {
		return domain.LockPolicy{}, domain.ErrNotFound
	}
	return policy, nil
}

func (m *memProfiles) UpsertLockPolicy(_ context.Context, principalID, passcodeHash string, now time.Time) (domain.LockPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	policy := domain.LockPolicy{PrincipalID: principalID, Enabled: true, PasscodeHash: passcodeHash, CreatedAt: now, UpdatedAt: now}
	m.policies[principalID] = policy
	return policy, nil
}

func (m *memProfiles) DisableLock(_ context.Context, principalID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	policy, ok := m.policies[principalID]
	if !ok {
		return domain.ErrNotFound
	}
	policy.Enabled = false
	policy.UpdatedAt = now
	m.policies[principalID] = policy
	return nil
}

type noopAttempts struct{}

func (noopAttempts) Insert(context.Context, domain.PasscodeAttempt) error { return nil }

func (noopAttempts) ListByPrincipal(context.Context, string, int, int, *time.Time) ([]domain.PasscodeAttempt, error) {
	return nil, nil
}

type noopOutbox struct{}

func (noopOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }

func (noopOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (noopOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (noopOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error { return nil }

func (noopOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type memReverify struct {
	mu         sync.Mutex
	challenges map[string]ports.ReverifyChallenge
}

func (m *memReverify) Put(_ context.Context, token string, challenge ports.ReverifyChallenge, _ time.Duration) error {
	m.mu.Lock()
	m.challenges[token] = challenge
	m.mu.Unlock()
	return nil
}

func (m *memReverify) Get(_ context.Context, token string) (*ports.ReverifyChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	challenge, ok := m.challenges[token]
	if !ok {
		return nil, nil
	}
	return &challenge, nil
}

func (m *memReverify) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.challenges, token)
	m.mu.Unlock()
	return nil
}

type memMarkers struct {
	mu     sync.Mutex
	marked map[uuid.UUID]bool
}

func (m *memMarkers) MarkTerminated(_ context.Context, sessionID uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	m.marked[sessionID] = true
	m.mu.Unlock()
	return nil
}

func (m *memMarkers) IsTerminated(_ context.Context, sessionID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marked[sessionID], nil
}

type noopAuth struct{}

func (noopAuth) SignOut(context.Context, string, uuid.UUID) error { return nil }

func (noopAuth) SendReverification(context.Context, string, string) error { return nil }

type plainHasher struct{}

func (plainHasher) Hash(passcode string) (string, error) { return "hash:" + passcode, nil }

func (plainHasher) Compare(hash, passcode string) error {
	if hash == "hash:"+passcode {
		return nil
	}
	return errors.New("hash mismatch")
}

type staticTokens struct{ claims ports.AuthClaims }

func (s staticTokens) Sign(ports.AuthClaims) (string, error) { return "", errors.New("not implemented") }

func (s staticTokens) ParseAndValidate(token string) (ports.AuthClaims, error) {
	if token != contractToken {
		return ports.AuthClaims{}, errors.New("unknown token")
	}
	return s.claims, nil
}

func newContractServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			IdleThreshold: 300 * time.Second,
			WarningWindow: 30 * time.Second,
			TickInterval:  time.Minute,
			MaxAttempts:   3,
			FailMode:      guard.FailOpen,
		},
		Profiles: &memProfiles{policies: map[string]domain.LockPolicy{}},
		Attempts: noopAttempts{},
		Outbox:   noopOutbox{},
		Reverify: &memReverify{challenges: map[string]ports.ReverifyChallenge{}},
		Markers:  &memMarkers{marked: map[uuid.UUID]bool{}},
		Auth:     noopAuth{},
		Hasher:   plainHasher{},
		Tokens:   staticTokens{claims: ports.AuthClaims{PrincipalID: "principal-1", SessionID: uuid.New()}},
	})
	server := httptest.NewServer(NewRouter(NewHandler(service)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, authorized bool) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+contractToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	server := newContractServer(t)
	resp, body := doJSON(t, http.MethodGet, server.URL+"/healthz", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "success" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGuardedRoutesRequireBearerToken(t *testing.T) {
	t.Parallel()

	server := newContractServer(t)
	resp, body := doJSON(t, http.MethodGet, server.URL+"/guard/v1/idle", nil, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body["code"] != "UNAUTHORIZED" {
		t.Fatalf("unexpected error code: %v", body["code"])
	}
}

func TestActivityReportsIdleState(t *testing.T) {
	t.Parallel()

	server := newContractServer(t)
	resp, body := doJSON(t, http.MethodPost, server.URL+"/guard/v1/activity", nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	if data["phase"] != "ACTIVE" {
		t.Fatalf("expected ACTIVE, got %v", data["phase"])
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestProtectedRouteChallengeFlow(t *testing.T) {
	t.Parallel()

	server := newContractServer(t)

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/guard/v1/lock", map[string]string{"passcode": "secret99"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable lock: expected 200, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/guard/v1/routes/billing/enter", nil, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enter route: expected 201, got %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	if data["decision"] != "CHALLENGE" {
		t.Fatalf("expected CHALLENGE, got %v", data["decision"])
	}
	visitID, _ := data["visit_id"].(string)
	if visitID == "" {
		t.Fatalf("expected a visit id")
	}
	passcodeURL := fmt.Sprintf("%s/guard/v1/visits/%s/passcode", server.URL, visitID)

	resp, body = doJSON(t, http.MethodPost, passcodeURL, map[string]string{"passcode": "wrongpw1"}, true)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("mismatch: expected 401, got %d", resp.StatusCode)
	}
	if body["code"] != "PASSCODE_MISMATCH" {
		t.Fatalf("unexpected error code: %v", body["code"])
	}
	data, _ = body["data"].(map[string]any)
	if data["attempts_remaining"] != float64(2) {
		t.Fatalf("expected 2 attempts remaining, got %v", data["attempts_remaining"])
	}

	resp, body = doJSON(t, http.MethodPost, passcodeURL, map[string]string{"passcode": "secret99"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unlock: expected 200, got %d", resp.StatusCode)
	}
	data, _ = body["data"].(map[string]any)
	if data["phase"] != "UNLOCKED" {
		t.Fatalf("expected UNLOCKED, got %v", data["phase"])
	}

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/guard/v1/visits/%s/guard", server.URL, visitID), nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guard: expected 200, got %d", resp.StatusCode)
	}
	data, _ = body["data"].(map[string]any)
	if data["decision"] != "CONTENT" {
		t.Fatalf("expected CONTENT after unlock, got %v", data["decision"])
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/guard/v1/visits/%s", server.URL, visitID), nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave: expected 200, got %d", resp.StatusCode)
	}
	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/guard/v1/visits/%s/guard", server.URL, visitID), nil, true)
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expected 410 for a closed visit, got %d", resp.StatusCode)
	}
	if body["code"] != "VISIT_CLOSED" {
		t.Fatalf("unexpected error code: %v", body["code"])
	}
}

func TestSubmitPasscodeRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	server := newContractServer(t)
	resp, body := doJSON(t, http.MethodPost, server.URL+"/guard/v1/routes/billing/enter", nil, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enter route: expected 201, got %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	visitID, _ := data["visit_id"].(string)

	resp, body = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/guard/v1/visits/%s/passcode", server.URL, visitID),
		map[string]string{"passcode": "secret99", "extra": "field"}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown fields, got %d", resp.StatusCode)
	}
	if body["code"] != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error code: %v", body["code"])
	}
}
