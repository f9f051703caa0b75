package accounts

import (
	"context"
	"strings"
)

// Login verifies credentials and opens a session, implicitly revoking
// any previous one. A wrong email and a wrong password are
// indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, email, pw string) (string, error) {
	if e == nil || e.users == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	if pw == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, 0, email, ErrInvalidCredentials, map[string]string{"reason": "empty_password"})
		return "", ErrInvalidCredentials
	}

	user, err := e.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, 0, email, ErrInvalidCredentials, map[string]string{"reason": "user_not_found"})
		return "", ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(pw, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, user.ID, email, ErrInvalidCredentials, map[string]string{"reason": "password_mismatch"})
		return "", ErrInvalidCredentials
	}
	pw = ""

	if !user.IsActive {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, user.ID, email, ErrAccountInactive, nil)
		return "", ErrAccountInactive
	}
	if !user.IsVerifiedEmail {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, user.ID, email, ErrEmailUnverified, nil)
		return "", ErrEmailUnverified
	}

	if _, err := e.users.Update(ctx, user.ID, UserUpdate{LastLogin: ptrTime(e.clock())}); err != nil {
		e.metricInc(MetricLoginFailure)
		return "", err
	}

	tok, err := e.issueSession(ctx, user.ID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLogin, false, user.ID, email, err, map[string]string{"reason": "issue_session"})
		return "", err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, true, user.ID, email, nil, nil)
	return tok, nil
}
