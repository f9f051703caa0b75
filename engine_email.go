package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
)

// RequestEmailChange records newEmail as the pending candidate on the
// ledger and sends the verification code to that address, proving the
// user controls it before anything changes on the account.
func (e *Engine) RequestEmailChange(ctx context.Context, userID int64, newEmail string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	newEmail = strings.TrimSpace(newEmail)

	if _, err := e.users.GetByEmail(ctx, newEmail); err == nil {
		e.metricInc(MetricEmailChangeFailure)
		e.emitAudit(ctx, auditEventEmailChangeStart, false, userID, newEmail, ErrEmailTaken, nil)
		return ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricEmailChangeFailure)
		return err
	}

	if err := e.ledger.Start(ctx, userID, ledger.PurposeChangeEmail, newEmail); err != nil {
		e.metricInc(MetricEmailChangeFailure)
		return err
	}

	code := e.otpFor(userID).Code()
	if err := e.sender.Send(ctx, notify.EmailChangeCode(newEmail, code)); err != nil {
		e.metricInc(MetricEmailChangeFailure)
		e.emitAudit(ctx, auditEventEmailChangeStart, false, userID, newEmail, err, map[string]string{"reason": "notify"})
		return err
	}

	e.metricInc(MetricEmailChangeRequest)
	e.emitAudit(ctx, auditEventEmailChangeStart, true, userID, newEmail, nil, nil)
	return nil
}

// ConfirmEmailChange validates the code sent to the candidate address
// and moves the account to it. The session token survives; the user
// stays logged in under the new email.
func (e *Engine) ConfirmEmailChange(ctx context.Context, userID int64, code string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	record, err := e.ledger.Get(ctx, userID)
	if err != nil {
		e.metricInc(MetricEmailChangeFailure)
		return err
	}
	if record.Purpose != ledger.PurposeChangeEmail || record.PendingEmail == "" {
		e.metricInc(MetricEmailChangeFailure)
		e.emitAudit(ctx, auditEventEmailChangeFinish, false, userID, "", ErrNoPendingEmail, nil)
		return ErrNoPendingEmail
	}

	if err := e.limiter.Check(ctx, userID, ledger.PurposeChangeEmail.String()); err != nil {
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventEmailChangeFinish, false, userID, record.PendingEmail, err, map[string]string{"reason": "rate_limited"})
		return err
	}

	if !e.otpFor(userID).Verify(code) {
		e.metricInc(MetricEmailChangeFailure)
		e.emitAudit(ctx, auditEventEmailChangeFinish, false, userID, record.PendingEmail, ErrOTPInvalid, nil)
		return ErrOTPInvalid
	}

	if _, err := e.users.Update(ctx, userID, UserUpdate{Email: ptrString(record.PendingEmail)}); err != nil {
		e.metricInc(MetricEmailChangeFailure)
		return err
	}

	if err := e.ledger.Clear(ctx, userID); err != nil {
		e.metricInc(MetricEmailChangeFailure)
		return err
	}
	if err := e.limiter.Reset(ctx, userID, ledger.PurposeChangeEmail.String()); err != nil {
		e.metricInc(MetricEmailChangeFailure)
		return err
	}

	e.metricInc(MetricEmailChangeSuccess)
	e.emitAudit(ctx, auditEventEmailChangeFinish, true, userID, record.PendingEmail, nil, nil)
	return nil
}
