package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Authentication errors
var (
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIdentityExists       = errors.New("username or email already in use")
	ErrMissingIdentifier    = errors.New("username or email is required")
	ErrAccountLocked        = errors.New("account locked")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
)

// Account status errors
var (
	ErrAccountSuspended     = errors.New("account suspended")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrPendingApproval      = errors.New("account pending admin approval")
	ErrVerificationRequired = errors.New("phone verification required")
	ErrWorkerNotVerified    = errors.New("verified worker status required")
	ErrInvalidAccountStatus = errors.New("invalid account status")
)

// OTP errors
var (
	ErrNoOTPPending       = errors.New("no otp pending")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrInvalidPhoneFormat = errors.New("phone must include country code like +919012345678")
	ErrProviderDisabled   = errors.New("verification provider not configured")
)

// Token errors
var (
	ErrTokenMissing        = errors.New("access token required")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrStaleToken          = errors.New("token expired, please login again")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
)

// Authorization errors
var (
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("too many requests")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind classifies errors for transport mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindLocked
	KindForbidden
	KindNotFound
	KindRateLimited
)

// ValidationError is a malformed or missing input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// LockedError reports the remaining lockout window
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("Account locked. Try again in %d minutes.", e.RemainingMinutes())
}

// RemainingMinutes rounds the remaining lock time up to whole minutes
func (e *LockedError) RemainingMinutes() int {
	return int(math.Ceil(e.Remaining.Minutes()))
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

var kindBySentinel = []struct {
	err  error
	kind ErrorKind
}{
	{ErrMissingIdentifier, KindValidation},
	{ErrCurrentPasswordWrong, KindValidation},
	{ErrNoOTPPending, KindValidation},
	{ErrOTPExpired, KindValidation},
	{ErrOTPInvalid, KindValidation},
	{ErrInvalidPhoneFormat, KindValidation},
	{ErrInvalidResetToken, KindValidation},
	{ErrInvalidAccountStatus, KindValidation},
	{ErrIdentityExists, KindConflict},
	{ErrInvalidCredentials, KindUnauthorized},
	{ErrTokenMissing, KindUnauthorized},
	{ErrTokenInvalid, KindUnauthorized},
	{ErrTokenExpired, KindUnauthorized},
	{ErrStaleToken, KindUnauthorized},
	{ErrInvalidRefreshToken, KindUnauthorized},
	{ErrUnauthorized, KindUnauthorized},
	{ErrAccountLocked, KindLocked},
	{ErrAccountSuspended, KindForbidden},
	{ErrAccountDeactivated, KindForbidden},
	{ErrPendingApproval, KindForbidden},
	{ErrVerificationRequired, KindForbidden},
	{ErrWorkerNotVerified, KindForbidden},
	{ErrForbidden, KindForbidden},
	{ErrIdentityNotFound, KindNotFound},
	{ErrRateLimited, KindRateLimited},
}

// KindOf classifies err; anything unknown is internal
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	for _, s := range kindBySentinel {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindInternal
}

// Sentinel returns the classified sentinel err wraps, or nil
func Sentinel(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range kindBySentinel {
		if errors.Is(err, s.err) {
			return s.err
		}
	}
	return nil
}
