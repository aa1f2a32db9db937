package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docukeep/session-guard/internal/domain"
)

type passcodeAttemptRepository struct {
	db *gorm.DB
}

func (r *passcodeAttemptRepository) Insert(ctx context.Context, attempt domain.PasscodeAttempt) error {
	rec := passcodeAttemptModel{
		PrincipalID: attempt.PrincipalID,
		RouteID:     attempt.RouteID,
		VisitID:     attempt.VisitID,
		AttemptAt:   attempt.AttemptAt,
		Status:      attempt.Status,
		Reason:      attempt.Reason,
		IPAddress:   nullableString(attempt.IPAddress),
		UserAgent:   attempt.UserAgent,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *passcodeAttemptRepository) ListByPrincipal(ctx context.Context, principalID string, limit, offset int, since *time.Time) ([]domain.PasscodeAttempt, error) {
	query := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID)
	if since != nil {
		query = query.Where("attempt_at >= ?", *since)
	}

	var rows []passcodeAttemptModel
	if err := query.Order("attempt_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.PasscodeAttempt, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.PasscodeAttempt{
			ID:          row.ID,
			PrincipalID: row.PrincipalID,
			RouteID:     row.RouteID,
			VisitID:     row.VisitID,
			AttemptAt:   row.AttemptAt,
			Status:      row.Status,
			Reason:      row.Reason,
			IPAddress:   stringValue(row.IPAddress),
			UserAgent:   row.UserAgent,
		})
	}
	return result, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
