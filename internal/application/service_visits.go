package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
	"github.com/docukeep/session-guard/internal/guard"
)

// EnterRoute starts a fresh visit for a protected route and returns the
// render decision. A prior visit for the same route is discarded, so the
// challenge always starts from a clean attempt budget.
func (s *Service) EnterRoute(ctx context.Context, token, routeID string) (EnterRouteResponse, error) {
	if routeID == "" {
		return EnterRouteResponse{}, fmt.Errorf("%w: route id is required", domain.ErrInvalidInput)
	}
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return EnterRouteResponse{}, err
	}
	session.Activity.RecordActivity()

	visit := session.Visits.Enter(ctx, routeID)
	res := EnterRouteResponse{
		VisitID:  visit.VisitID,
		Decision: visit.Decision.String(),
	}
	if visit.Challenge != nil {
		res.AttemptsRemaining = visit.Challenge.State().RemainingAttempts
	}
	return res, nil
}

// GuardVisit re-checks the render branch for a mounted visit. Policy is not
// re-evaluated here; re-renders within a visit never re-challenge.
func (s *Service) GuardVisit(ctx context.Context, token string, visitID uuid.UUID) (GuardResponse, error) {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return GuardResponse{}, err
	}
	decision, err := session.Visits.Guard(visitID)
	if err != nil {
		return GuardResponse{}, err
	}
	return GuardResponse{Decision: decision.String()}, nil
}

// LeaveVisit ends a visit, cancelling any in-flight verification.
func (s *Service) LeaveVisit(ctx context.Context, token string, visitID uuid.UUID) error {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return err
	}
	return session.Visits.Leave(visitID)
}

// SubmitPasscode verifies one candidate against the stored digest and audits
// the outcome. Validation and policy-fetch failures consume no attempt and
// are not audited; only real comparisons are.
func (s *Service) SubmitPasscode(ctx context.Context, token string, visitID uuid.UUID, req PasscodeSubmitRequest) (PasscodeSubmitResponse, error) {
	session, err := s.sessionFor(ctx, token)
	if err != nil {
		return PasscodeSubmitResponse{}, err
	}
	session.Activity.RecordActivity()

	visit, err := session.Visits.Lookup(visitID)
	if err != nil {
		return PasscodeSubmitResponse{}, err
	}
	if visit.Challenge == nil {
		// Unlocked visits have nothing to submit against.
		return PasscodeSubmitResponse{Phase: guard.PhaseUnlocked.String()}, nil
	}

	state, submitErr := visit.Challenge.Submit(ctx, req.Passcode)
	s.auditSubmit(ctx, session.PrincipalID, visit, state, submitErr, req)

	res := PasscodeSubmitResponse{
		Phase:             state.Phase.String(),
		AttemptCount:      state.AttemptCount,
		AttemptsRemaining: state.RemainingAttempts,
	}
	return res, submitErr
}

func (s *Service) auditSubmit(ctx context.Context, principalID string, visit *guard.Visit, state guard.ChallengeState, submitErr error, req PasscodeSubmitRequest) {
	var status, reason string
	switch {
	case submitErr == nil && state.Phase == guard.PhaseUnlocked:
		status = domain.AttemptStatusUnlocked
	case errors.Is(submitErr, domain.ErrPasscodeMismatch):
		status = domain.AttemptStatusMismatch
		reason = "PASSCODE_MISMATCH"
	case errors.Is(submitErr, domain.ErrChallengeEscalated) && state.AttemptCount >= s.cfg.MaxAttempts:
		status = domain.AttemptStatusEscalated
		reason = "ATTEMPTS_EXHAUSTED"
	default:
		// Validation, policy-fetch and closed-visit outcomes are not attempts.
		return
	}

	if err := s.attempts.Insert(ctx, domain.PasscodeAttempt{
		PrincipalID: principalID,
		RouteID:     visit.RouteID,
		VisitID:     visit.VisitID,
		AttemptAt:   s.nowFn(),
		Status:      status,
		Reason:      reason,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to persist passcode attempt",
			"module", "application",
			"operation", "record_passcode_attempt",
			"outcome", "failure",
			"status", status,
			"error", err,
		)
	}
}

// AttemptHistory lists the principal's audited passcode attempts.
func (s *Service) AttemptHistory(ctx context.Context, token string, q AttemptHistoryQuery) ([]AttemptHistoryItem, error) {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	offset := (q.Page - 1) * q.Limit

	var since *time.Time
	if q.Days > 0 {
		t := s.nowFn().AddDate(0, 0, -q.Days)
		since = &t
	}

	attempts, err := s.attempts.ListByPrincipal(ctx, claims.PrincipalID, q.Limit, offset, since)
	if err != nil {
		return nil, err
	}

	result := make([]AttemptHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		result = append(result, AttemptHistoryItem{
			ID:        attempt.ID,
			RouteID:   attempt.RouteID,
			Timestamp: attempt.AttemptAt,
			Status:    attempt.Status,
			Reason:    attempt.Reason,
			IPAddress: attempt.IPAddress,
		})
	}
	return result, nil
}
