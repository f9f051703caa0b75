package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailTaken is returned when the requested email already belongs
	// to an account.
	ErrEmailTaken = errors.New("email already taken")
	// ErrUserNotFound is returned when no account matches the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for a wrong email or password.
	// Login never reveals which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned when the account exists but has not
	// been activated or has been deactivated.
	ErrAccountInactive = errors.New("account inactive")
	// ErrEmailUnverified is returned when the flow requires a verified
	// email address.
	ErrEmailUnverified = errors.New("email address unverified")
	// ErrAlreadyVerified is returned when registration verification is
	// attempted on an already verified account.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrOTPInvalid is returned when the submitted code does not match
	// the current window.
	ErrOTPInvalid = errors.New("invalid otp code")
	// ErrOTPRateLimited is returned when too many codes were submitted
	// inside the limiter window.
	ErrOTPRateLimited = errors.New("otp attempts rate limited")
	// ErrNoPendingEmail is returned when email-change confirmation runs
	// without a pending email change on the ledger.
	ErrNoPendingEmail = errors.New("no pending email change")
	// ErrPurposeMismatch is returned when a resend names a purpose other
	// than the one recorded on the ledger.
	ErrPurposeMismatch = errors.New("requested verification type invalid")
	// ErrTokenInvalid is returned for tokens that fail signature or
	// expiry checks, or that are not the account's active token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrResendThrottled is the errors.Is target for ResendThrottledError.
	ErrResendThrottled = errors.New("otp not expired")
	// ErrEngineNotReady is returned when a method runs on an Engine that
	// was not built through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ResendThrottledError reports how long until the current OTP window
// rolls over and a resend becomes possible.
type ResendThrottledError struct {
	RetryIn int // seconds
}

func (e *ResendThrottledError) Error() string {
	return fmt.Sprintf("otp not expired, resend available in %d seconds", e.RetryIn)
}

// Is makes errors.Is(err, ErrResendThrottled) match.
func (e *ResendThrottledError) Is(target error) bool {
	return target == ErrResendThrottled
}
