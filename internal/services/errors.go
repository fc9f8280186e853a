package services

import (
	"errors"
)

var (
	ErrInvalidSession   = errors.New("invalid or expired session")
	ErrRateLimited      = errors.New("Too many attempts. Please try again later.")
	ErrSMSFailed        = errors.New("Failed to send SMS")
	ErrEmailFailed      = errors.New("Failed to send email")
	ErrUsageUnavailable = errors.New("credit verification service unavailable")
	ErrForbidden        = errors.New("forbidden")

	// One-time code verification failures.
	ErrNoPendingCode  = errors.New("No pending verification found")
	ErrCodeExpired    = errors.New("OTP has expired")
	ErrTargetMismatch = errors.New("Phone number mismatch")
	ErrCodeMismatch   = errors.New("Invalid OTP")

	// The password flows word these two differently.
	ErrOTPExpired     = errors.New("OTP expired")
	ErrNoOTPRequested = errors.New("No OTP requested")
)

// ValidationError is a client input problem; Message is safe to return as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// IsCodeError reports whether err is one of the code verification failures.
func IsCodeError(err error) bool {
	return errors.Is(err, ErrNoPendingCode) || errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrTargetMismatch) || errors.Is(err, ErrCodeMismatch) ||
		errors.Is(err, ErrOTPExpired) || errors.Is(err, ErrNoOTPRequested)
}

var (
	ErrEmptyPrompt   = &ValidationError{Message: "Input is empty."}
	ErrUsageExceeded = errors.New(UsageExceededMsg)
	ErrForgeFailed   = errors.New("The Neural Bridge is currently overloaded. Please retry.")
)
