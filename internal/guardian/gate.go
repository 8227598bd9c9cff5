// Package guardian implements the PIN gate protecting parental-control
// changes: format validation, bcrypt-backed verification, bounded
// attempt counting and timed lockout. The state machine is pure over a
// PinSecurity value and an injected "now"; persistence is the caller's
// job.
package guardian

import (
	"errors"
	"time"

	"thinkfirst/internal/models"
	"thinkfirst/internal/security"
)

const (
	// PINLength is the exact number of decimal digits a PIN must have
	PINLength = 4

	// MaxAttempts failed verifications in a row trigger a lockout
	MaxAttempts = 3

	// LockoutDuration is how long verification is refused after
	// MaxAttempts consecutive failures.
	LockoutDuration = 5 * time.Minute
)

var (
	ErrMalformedPIN     = errors.New("pin must be exactly 4 digits")
	ErrNoPINConfigured  = errors.New("no pin has been set up")
	ErrIncorrectPIN     = errors.New("incorrect pin")
	ErrLockedOut        = errors.New("too many failed attempts, try again later")
	ErrSettingsNotFound = errors.New("guardian settings not found")
)

// IsValidPINFormat reports whether pin is exactly four decimal digits.
// Anything else is rejected before any hashing happens.
func IsValidPINFormat(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HashPIN derives the stored one-way form of a PIN
func HashPIN(pin string) (string, error) {
	if !IsValidPINFormat(pin) {
		return "", ErrMalformedPIN
	}
	return security.HashPassword(pin)
}

// VerifyOutcome is the discriminated result of a verification attempt.
// Err is one of the package sentinel errors; callers render it inline
// rather than treating it as fatal.
type VerifyOutcome struct {
	OK                bool
	Err               error
	AttemptsRemaining int
	LockedUntil       time.Time
}

// Verify runs one PIN verification attempt against the stored hash,
// mutating sec in place. Lockout is checked before the submitted PIN is
// even looked at, and an expired lockout is cleared lazily: there is
// no background timer.
func Verify(sec *models.PinSecurity, storedHash, pin string, now time.Time) VerifyOutcome {
	if sec.IsLockedOut(now) {
		return VerifyOutcome{Err: ErrLockedOut, LockedUntil: *sec.LockoutUntil}
	}
	if sec.LockoutExpired(now) {
		sec.Reset()
	}

	if storedHash == "" {
		return VerifyOutcome{Err: ErrNoPINConfigured}
	}
	if !IsValidPINFormat(pin) {
		return VerifyOutcome{Err: ErrMalformedPIN, AttemptsRemaining: MaxAttempts - sec.AttemptCount}
	}

	if security.CheckPassword(pin, storedHash) {
		sec.Reset()
		return VerifyOutcome{OK: true, AttemptsRemaining: MaxAttempts}
	}

	sec.AttemptCount++
	if sec.AttemptCount >= MaxAttempts {
		until := now.Add(LockoutDuration)
		sec.LockoutUntil = &until
		return VerifyOutcome{Err: ErrLockedOut, AttemptsRemaining: 0, LockedUntil: until}
	}
	return VerifyOutcome{Err: ErrIncorrectPIN, AttemptsRemaining: MaxAttempts - sec.AttemptCount}
}

// RemainingLockout returns how much longer verification is refused
func RemainingLockout(sec *models.PinSecurity, now time.Time) time.Duration {
	if !sec.IsLockedOut(now) {
		return 0
	}
	return sec.LockoutUntil.Sub(now)
}
