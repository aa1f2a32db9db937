package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/docukeep/session-guard/internal/domain"
)

// LockStatus reports whether the principal has a profile lock configured.
func (s *Service) LockStatus(ctx context.Context, token string) (LockStatusResponse, error) {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		return LockStatusResponse{}, domain.ErrUnauthorized
	}

	policy, err := s.profiles.GetLockPolicy(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LockStatusResponse{}, nil
		}
		return LockStatusResponse{}, fmt.Errorf("%w: %v", domain.ErrPolicyUnavailable, err)
	}
	updatedAt := policy.UpdatedAt
	return LockStatusResponse{Enabled: policy.Enabled, UpdatedAt: &updatedAt}, nil
}

// EnableLock sets or replaces the profile-lock passcode. Replacing an
// enabled lock requires the current passcode so a stolen session cannot
// silently rotate the gate.
func (s *Service) EnableLock(ctx context.Context, token string, req EnableLockRequest) error {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		return domain.ErrUnauthorized
	}

	normalized, err := domain.NormalizePasscode(req.Passcode)
	if err != nil {
		return err
	}

	existing, err := s.profiles.GetLockPolicy(ctx, claims.PrincipalID)
	switch {
	case err == nil && existing.Enabled:
		current, normErr := domain.NormalizePasscode(req.CurrentPasscode)
		if normErr != nil {
			return fmt.Errorf("%w: current passcode required to change lock", domain.ErrUnauthorized)
		}
		if compareErr := s.hasher.Compare(existing.PasscodeHash, current); compareErr != nil {
			return domain.ErrUnauthorized
		}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: %v", domain.ErrPolicyUnavailable, err)
	}

	hash, err := s.hasher.Hash(normalized)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}

	now := s.nowFn()
	if _, err := s.profiles.UpsertLockPolicy(ctx, claims.PrincipalID, hash, now); err != nil {
		return err
	}

	s.emitEvent(ctx, eventLockEnabled, claims.PrincipalID, map[string]any{
		"principal_id": claims.PrincipalID,
		"enabled_at":   now,
	})
	return nil
}

// DisableLock turns the profile lock off after verifying the passcode.
func (s *Service) DisableLock(ctx context.Context, token string, req DisableLockRequest) error {
	claims, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		return domain.ErrUnauthorized
	}

	normalized, err := domain.NormalizePasscode(req.Passcode)
	if err != nil {
		return err
	}

	policy, err := s.profiles.GetLockPolicy(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrLockNotConfigured
		}
		return fmt.Errorf("%w: %v", domain.ErrPolicyUnavailable, err)
	}
	if !policy.Enabled {
		return domain.ErrLockNotConfigured
	}
	if err := s.hasher.Compare(policy.PasscodeHash, normalized); err != nil {
		return domain.ErrUnauthorized
	}

	now := s.nowFn()
	if err := s.profiles.DisableLock(ctx, claims.PrincipalID, now); err != nil {
		return err
	}

	s.emitEvent(ctx, eventLockDisabled, claims.PrincipalID, map[string]any{
		"principal_id": claims.PrincipalID,
		"disabled_at":  now,
	})
	return nil
}
