package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidPasscode marks a candidate that fails local shape validation.
	// It is distinct from a mismatch so malformed input never consumes an attempt.
	ErrInvalidPasscode = errors.New("invalid passcode format")
	// ErrPasscodeMismatch marks a well-formed candidate whose digest does not match.
	// This is the only error that consumes an attempt.
	ErrPasscodeMismatch = errors.New("passcode mismatch")
	// ErrPolicyUnavailable signals that the lock policy could not be loaded.
	// It is retryable and must never be conflated with mismatch or "no lock configured".
	ErrPolicyUnavailable = errors.New("lock policy unavailable")
	// ErrChallengeEscalated is returned once the attempt budget is exhausted.
	// No further comparisons are performed for the visit after this point.
	ErrChallengeEscalated = errors.New("challenge escalated to email reverification")
	// ErrChallengeSend signals that the email-reverification dispatch failed.
	// The escalated state is still presented so the user is never stuck.
	ErrChallengeSend = errors.New("reverification dispatch failed")
	// ErrVisitClosed marks an operation that resolved after its route visit ended.
	ErrVisitClosed = errors.New("route visit closed")
	// ErrTermination signals that the remote sign-out call failed.
	// Local session state is still cleared; the failure is surfaced for retry/logging.
	ErrTermination = errors.New("remote sign-out failed")
	// ErrSessionEnded is returned for guard operations against a terminated session.
	ErrSessionEnded = errors.New("guard session ended")
	// ErrLockNotConfigured is returned when an operation needs an existing lock policy.
	ErrLockNotConfigured = errors.New("profile lock not configured")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenConsumed     = errors.New("token already consumed")
)
