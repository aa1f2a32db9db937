package postgres

import (
	"time"

	"github.com/google/uuid"
)

type lockPolicyModel struct {
	PrincipalID  string    `gorm:"column:principal_id;primaryKey"`
	Enabled      bool      `gorm:"column:enabled"`
	PasscodeHash string    `gorm:"column:passcode_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (lockPolicyModel) TableName() string { return "lock_policies" }

type passcodeAttemptModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	PrincipalID string    `gorm:"column:principal_id"`
	RouteID     string    `gorm:"column:route_id"`
	VisitID     uuid.UUID `gorm:"column:visit_id"`
	AttemptAt   time.Time `gorm:"column:attempt_at"`
	Status      string    `gorm:"column:status"`
	Reason      string    `gorm:"column:reason"`
	IPAddress   *string   `gorm:"column:ip_address"`
	UserAgent   string    `gorm:"column:user_agent"`
}

func (passcodeAttemptModel) TableName() string { return "passcode_attempts" }

type guardOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (guardOutboxModel) TableName() string { return "guard_outbox" }
