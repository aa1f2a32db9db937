package domain

import (
	"time"

	"github.com/google/uuid"
)

// LockPolicy is the persisted profile-lock configuration for a principal.
// The passcode is stored only as a one-way digest; cleartext never leaves
// the enable/change request path.
type LockPolicy struct {
	PrincipalID  string
	Enabled      bool
	PasscodeHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasscodeAttempt records passcode challenge outcomes for audit.
// Keeping an explicit model makes lockout/escalation analysis deterministic.
type PasscodeAttempt struct {
	ID          int64
	PrincipalID string
	RouteID     string
	VisitID     uuid.UUID
	AttemptAt   time.Time
	Status      string
	Reason      string
	IPAddress   string
	UserAgent   string
}

// Attempt outcome statuses stored in the audit trail.
const (
	AttemptStatusUnlocked  = "UNLOCKED"
	AttemptStatusMismatch  = "MISMATCH"
	AttemptStatusEscalated = "ESCALATED"
)
