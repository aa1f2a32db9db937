package domain

import (
	"fmt"
	"strings"
)

// PasscodeLength is the fixed length of a profile-lock passcode.
const PasscodeLength = 8

// NormalizePasscode canonicalizes and validates a passcode candidate.
// The passcode is case-insensitive, so it is upper-cased before hashing or
// comparison; validation failures here must never consume a challenge attempt.
func NormalizePasscode(candidate string) (string, error) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return "", fmt.Errorf("%w: passcode is required", ErrInvalidPasscode)
	}
	if len(trimmed) != PasscodeLength {
		return "", fmt.Errorf("%w: passcode must be exactly %d characters", ErrInvalidPasscode, PasscodeLength)
	}
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return "", fmt.Errorf("%w: passcode must be alphanumeric", ErrInvalidPasscode)
		}
	}
	return strings.ToUpper(trimmed), nil
}
