package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
	"github.com/faststore/accounts/password"
)

// Register creates a new account in the inactive, unverified state,
// opens a registration verification on the ledger, and dispatches the
// current code to the given email. The account cannot log in until
// VerifyRegistration succeeds.
func (e *Engine) Register(ctx context.Context, email, pw string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	email = strings.TrimSpace(email)

	if err := password.ValidatePolicy(pw); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegister, false, 0, email, err, map[string]string{"reason": "password_policy"})
		return err
	}

	if _, err := e.users.GetByEmail(ctx, email); err == nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegister, false, 0, email, ErrEmailTaken, nil)
		return ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricRegisterFailure)
		return err
	}

	hash, err := e.hasher.Hash(pw)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		return err
	}
	pw = ""

	user, err := e.users.Create(ctx, email, hash)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegister, false, 0, email, err, map[string]string{"reason": "store_create"})
		return err
	}

	if err := e.ledger.Start(ctx, user.ID, ledger.PurposeRegister, ""); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegister, false, user.ID, email, err, map[string]string{"reason": "ledger_start"})
		return err
	}

	code := e.otpFor(user.ID).Code()
	if err := e.sender.Send(ctx, notify.RegistrationCode(email, code)); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegister, false, user.ID, email, err, map[string]string{"reason": "notify"})
		return err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, user.ID, email, nil, nil)
	return nil
}

// VerifyRegistration confirms the registration code, activates the
// account, and opens the first session. Returns the session token.
func (e *Engine) VerifyRegistration(ctx context.Context, email, code string) (string, error) {
	if e == nil || e.users == nil {
		return "", ErrEngineNotReady
	}

	user, err := e.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventRegisterVerify, false, 0, email, err, nil)
		return "", err
	}
	if user.IsVerifiedEmail {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventRegisterVerify, false, user.ID, email, ErrAlreadyVerified, nil)
		return "", ErrAlreadyVerified
	}

	if err := e.limiter.Check(ctx, user.ID, ledger.PurposeRegister.String()); err != nil {
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventRegisterVerify, false, user.ID, email, err, map[string]string{"reason": "rate_limited"})
		return "", err
	}

	if !e.otpFor(user.ID).Verify(code) {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventRegisterVerify, false, user.ID, email, ErrOTPInvalid, nil)
		return "", ErrOTPInvalid
	}

	now := e.clock()
	if _, err := e.users.Update(ctx, user.ID, UserUpdate{
		IsVerifiedEmail: ptrBool(true),
		IsActive:        ptrBool(true),
		LastLogin:       ptrTime(now),
	}); err != nil {
		e.metricInc(MetricVerifyFailure)
		return "", err
	}

	if err := e.ledger.Clear(ctx, user.ID); err != nil {
		e.metricInc(MetricVerifyFailure)
		return "", err
	}
	if err := e.limiter.Reset(ctx, user.ID, ledger.PurposeRegister.String()); err != nil {
		e.metricInc(MetricVerifyFailure)
		return "", err
	}

	tok, err := e.issueSession(ctx, user.ID)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		return "", err
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventRegisterVerify, true, user.ID, email, nil, nil)
	return tok, nil
}
