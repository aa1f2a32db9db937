package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/ports"
)

// handleEscalated runs once per exhausted challenge: it issues a one-time
// reverification token, asks the auth backend to email it, and audits the
// escalation. A failed dispatch is logged and the escalated state still
// stands; the user is never stuck behind a silently-failed email.
func (s *Service) handleEscalated(ctx context.Context, claims ports.AuthClaims, routeID string, visitID uuid.UUID) {
	now := s.nowFn()
	rawToken := randomHex(32)
	challenge := ports.ReverifyChallenge{
		PrincipalID: claims.PrincipalID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.reverifyTTL()),
	}
	if err := s.reverify.Put(ctx, hashToken(rawToken), challenge, s.reverifyTTL()); err != nil {
		s.logger.ErrorContext(ctx, "failed to store reverification challenge",
			"module", "application",
			"operation", "escalate_challenge",
			"outcome", "failure",
			"route_id", routeID,
			"error", err,
		)
	}

	if err := s.auth.SendReverification(ctx, claims.PrincipalID, rawToken); err != nil {
		s.logger.ErrorContext(ctx, "reverification dispatch failed",
			"module", "application",
			"operation", "escalate_challenge",
			"outcome", "failure",
			"route_id", routeID,
			"error", fmt.Errorf("%w: %v", domain.ErrChallengeSend, err),
		)
	}

	s.emitEvent(ctx, eventLockEscalated, claims.PrincipalID, map[string]any{
		"principal_id": claims.PrincipalID,
		"session_id":   claims.SessionID,
		"route_id":     routeID,
		"visit_id":     visitID,
		"escalated_at": now,
	})
}

// CompleteReverification consumes an email-reverification token and clears
// the principal's escalated visits so re-entry starts a fresh challenge.
// Tokens are one-time and TTL-bounded.
func (s *Service) CompleteReverification(ctx context.Context, req ReverifyCompleteRequest) (ReverifyCompleteResponse, error) {
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		return ReverifyCompleteResponse{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}

	key := hashToken(raw)
	challenge, err := s.reverify.Get(ctx, key)
	if err != nil {
		return ReverifyCompleteResponse{}, err
	}
	if challenge == nil {
		return ReverifyCompleteResponse{}, domain.ErrUnauthorized
	}
	if challenge.ExpiresAt.Before(s.nowFn()) {
		_ = s.reverify.Delete(ctx, key)
		return ReverifyCompleteResponse{}, domain.ErrTokenExpired
	}
	if err := s.reverify.Delete(ctx, key); err != nil {
		return ReverifyCompleteResponse{}, err
	}

	cleared := 0
	s.mu.Lock()
	for _, session := range s.sessions {
		if session.PrincipalID == challenge.PrincipalID {
			cleared += session.Visits.ClearEscalated()
		}
	}
	s.mu.Unlock()

	s.emitEvent(ctx, eventLockReverified, challenge.PrincipalID, map[string]any{
		"principal_id":  challenge.PrincipalID,
		"reverified_at": s.nowFn(),
	})
	return ReverifyCompleteResponse{PrincipalID: challenge.PrincipalID, ClearedVisits: cleared}, nil
}

func (s *Service) reverifyTTL() time.Duration {
	if s.cfg.ReverifyTokenTTL <= 0 {
		return 30 * time.Minute
	}
	return s.cfg.ReverifyTokenTTL
}
