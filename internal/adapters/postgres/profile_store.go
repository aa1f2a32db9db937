package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docukeep/session-guard/internal/domain"
)

type profileStore struct {
	db *gorm.DB
}

func (r *profileStore) GetLockPolicy(ctx context.Context, principalID string) (domain.LockPolicy, error) {
	var rec lockPolicyModel
	if err := r.db.WithContext(ctx).Where("principal_id = ?", principalID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LockPolicy{}, domain.ErrNotFound
		}
		return domain.LockPolicy{}, err
	}
	return toDomainLockPolicy(rec), nil
}

func (r *profileStore) UpsertLockPolicy(ctx context.Context, principalID, passcodeHash string, now time.Time) (domain.LockPolicy, error) {
	rec := lockPolicyModel{
		PrincipalID:  principalID,
		Enabled:      true,
		PasscodeHash: passcodeHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "principal_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"enabled":       true,
			"passcode_hash": passcodeHash,
			"updated_at":    now,
		}),
	}).Create(&rec).Error
	if err != nil {
		return domain.LockPolicy{}, err
	}
	return toDomainLockPolicy(rec), nil
}

func (r *profileStore) DisableLock(ctx context.Context, principalID string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&lockPolicyModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{
			"enabled":    false,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDomainLockPolicy(rec lockPolicyModel) domain.LockPolicy {
	return domain.LockPolicy{
		PrincipalID:  rec.PrincipalID,
		Enabled:      rec.Enabled,
		PasscodeHash: rec.PasscodeHash,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
