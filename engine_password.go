package accounts

import (
	"context"
	"strings"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
	"github.com/faststore/accounts/password"
)

// RequestPasswordReset opens a password reset on the ledger and sends
// the current code to the account email. Only active, verified accounts
// may reset their password.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetStart, false, 0, email, err, nil)
		return err
	}
	if !user.IsActive {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetStart, false, user.ID, email, ErrAccountInactive, nil)
		return ErrAccountInactive
	}
	if !user.IsVerifiedEmail {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetStart, false, user.ID, email, ErrEmailUnverified, nil)
		return ErrEmailUnverified
	}

	if err := e.ledger.Start(ctx, user.ID, ledger.PurposeResetPassword, ""); err != nil {
		e.metricInc(MetricResetFailure)
		return err
	}

	code := e.otpFor(user.ID).Code()
	if err := e.sender.Send(ctx, notify.PasswordResetCode(user.Email, code)); err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetStart, false, user.ID, email, err, map[string]string{"reason": "notify"})
		return err
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetStart, true, user.ID, email, nil, nil)
	return nil
}

// ConfirmPasswordReset validates the reset code and installs the new
// password. The session token pointer is cleared; the user must log in
// again with the new password.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetFinish, false, 0, email, err, nil)
		return err
	}

	if err := e.limiter.Check(ctx, user.ID, ledger.PurposeResetPassword.String()); err != nil {
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventPasswordResetFinish, false, user.ID, email, err, map[string]string{"reason": "rate_limited"})
		return err
	}

	if !e.otpFor(user.ID).Verify(code) {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetFinish, false, user.ID, email, ErrOTPInvalid, nil)
		return ErrOTPInvalid
	}

	if err := password.ValidatePolicy(newPassword); err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetFinish, false, user.ID, email, err, map[string]string{"reason": "password_policy"})
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricResetFailure)
		return err
	}
	newPassword = ""

	if _, err := e.users.Update(ctx, user.ID, UserUpdate{PasswordHash: ptrString(hash)}); err != nil {
		e.metricInc(MetricResetFailure)
		return err
	}

	if err := e.ledger.Clear(ctx, user.ID); err != nil {
		e.metricInc(MetricResetFailure)
		return err
	}
	if err := e.limiter.Reset(ctx, user.ID, ledger.PurposeResetPassword.String()); err != nil {
		e.metricInc(MetricResetFailure)
		return err
	}
	if err := e.ledger.SetActiveToken(ctx, user.ID, ""); err != nil {
		e.metricInc(MetricResetFailure)
		return err
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetFinish, true, user.ID, email, nil, nil)
	return nil
}

// ChangePassword replaces the password of a logged-in user after
// re-verifying the current one, then revokes the session so the change
// takes effect everywhere at once.
func (e *Engine) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if e == nil || e.users == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, "", err, nil)
		return err
	}

	ok, err := e.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, user.Email, ErrInvalidCredentials, map[string]string{"reason": "current_mismatch"})
		return ErrInvalidCredentials
	}
	currentPassword = ""

	if err := password.ValidatePolicy(newPassword); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, user.Email, err, map[string]string{"reason": "password_policy"})
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		return err
	}
	newPassword = ""

	if _, err := e.users.Update(ctx, userID, UserUpdate{PasswordHash: ptrString(hash)}); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		return err
	}

	if err := e.ledger.SetActiveToken(ctx, userID, ""); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, userID, user.Email, nil, nil)
	return nil
}
