package application

import (
	"time"

	"github.com/google/uuid"
)

// HeartbeatRequest is one activity ping from the client shell.
type HeartbeatRequest struct {
	Foregrounded *bool `json:"foregrounded,omitempty"`
}

// IdleStateResponse mirrors the idle timer snapshot for countdown rendering.
type IdleStateResponse struct {
	Phase            string `json:"phase"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// EnterRouteResponse reports the guard decision for a fresh route visit.
type EnterRouteResponse struct {
	VisitID           uuid.UUID `json:"visit_id"`
	Decision          string    `json:"decision"`
	AttemptsRemaining int       `json:"attempts_remaining,omitempty"`
}

// GuardResponse is the render branch for an existing visit.
type GuardResponse struct {
	Decision string `json:"decision"`
}

// PasscodeSubmitRequest carries one candidate passcode.
type PasscodeSubmitRequest struct {
	Passcode  string `json:"passcode"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// PasscodeSubmitResponse reports the challenge state after a submission.
type PasscodeSubmitResponse struct {
	Phase             string `json:"phase"`
	AttemptCount      int    `json:"attempt_count"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

// LockStatusResponse is the principal's current lock configuration.
type LockStatusResponse struct {
	Enabled   bool       `json:"enabled"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// EnableLockRequest sets or replaces the profile-lock passcode.
// CurrentPasscode is required when a lock is already enabled.
type EnableLockRequest struct {
	Passcode        string `json:"passcode"`
	CurrentPasscode string `json:"current_passcode,omitempty"`
}

// DisableLockRequest turns the lock off after verifying the passcode.
type DisableLockRequest struct {
	Passcode string `json:"passcode"`
}

// ReverifyCompleteRequest consumes an email-reverification token.
type ReverifyCompleteRequest struct {
	Token string `json:"token"`
}

// ReverifyCompleteResponse reports how many escalated visits were cleared.
type ReverifyCompleteResponse struct {
	PrincipalID   string `json:"principal_id"`
	ClearedVisits int    `json:"cleared_visits"`
}

// AttemptHistoryQuery filters the passcode attempt audit listing.
type AttemptHistoryQuery struct {
	Page  int
	Limit int
	Days  int
}

// AttemptHistoryItem is one audited passcode attempt.
type AttemptHistoryItem struct {
	ID        int64     `json:"id"`
	RouteID   string    `json:"route_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}
