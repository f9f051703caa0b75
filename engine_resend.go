package accounts

import (
	"context"
	"strings"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
)

// ResendOTP redispatches the current code for the pending verification.
// The requested purpose must match the one on the ledger, and the
// resend is refused until the current code window rolls over, so one
// code is never live in two messages across windows.
func (e *Engine) ResendOTP(ctx context.Context, email string, purpose ledger.Purpose) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		e.emitAudit(ctx, auditEventResendOTP, false, 0, email, err, nil)
		return err
	}

	record, err := e.ledger.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	if record.Purpose == ledger.PurposeNone || record.Purpose != purpose {
		e.emitAudit(ctx, auditEventResendOTP, false, user.ID, email, ErrPurposeMismatch, map[string]string{
			"requested": purpose.String(),
			"pending":   record.Purpose.String(),
		})
		return ErrPurposeMismatch
	}

	generator := e.otpFor(user.ID)
	if remaining := generator.SecondsUntilRotation(); remaining != 0 {
		e.metricInc(MetricResendThrottled)
		e.emitAudit(ctx, auditEventResendOTP, false, user.ID, email, ErrResendThrottled, nil)
		return &ResendThrottledError{RetryIn: remaining}
	}

	// The change-email code goes to the candidate address; every other
	// purpose goes to the account email.
	code := generator.Code()
	var msg notify.Message
	switch record.Purpose {
	case ledger.PurposeChangeEmail:
		msg = notify.EmailChangeCode(record.PendingEmail, code)
	case ledger.PurposeResetPassword:
		msg = notify.PasswordResetCode(user.Email, code)
	default:
		msg = notify.RegistrationCode(user.Email, code)
	}

	if err := e.sender.Send(ctx, msg); err != nil {
		e.emitAudit(ctx, auditEventResendOTP, false, user.ID, email, err, map[string]string{"reason": "notify"})
		return err
	}

	e.metricInc(MetricResendSuccess)
	e.emitAudit(ctx, auditEventResendOTP, true, user.ID, email, nil, map[string]string{"purpose": record.Purpose.String()})
	return nil
}
