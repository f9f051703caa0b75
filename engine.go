package accounts

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
	"github.com/faststore/accounts/otp"
	"github.com/faststore/accounts/password"
	"github.com/faststore/accounts/token"
)

// Engine orchestrates the account flows. Construct through
// [Builder.Build]; all methods are safe for concurrent use afterwards.
type Engine struct {
	config  Config
	users   UserStore
	ledger  *ledger.Store
	tokens  *token.Manager
	hasher  *password.Argon2
	sender  notify.Sender
	limiter *otpLimiter
	audit   *auditDispatcher
	metrics *Metrics
	clock   func() time.Time
}

// Close flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, userID int64, email string, opErr error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, newAuditEvent(ctx, eventType, success, userID, email, opErr, metadata))
}

// otpFor returns the code generator for one user. Secrets are derived
// per user unless the legacy shared-secret mode is configured.
func (e *Engine) otpFor(userID int64) *otp.Generator {
	secret := e.config.OTP.MasterSecret
	if !e.config.OTP.SharedSecret {
		secret = otp.DeriveSecret(secret, userID)
	}
	return otp.New(secret,
		otp.WithPeriod(e.config.OTP.Period),
		otp.WithDigits(e.config.OTP.Digits),
		otp.WithClock(e.clock),
	)
}

// issueSession mints a token and installs it as the user's active-token
// pointer, implicitly revoking any previous session.
func (e *Engine) issueSession(ctx context.Context, userID int64) (string, error) {
	tok, err := e.tokens.Issue(userID)
	if err != nil {
		return "", err
	}
	if err := e.ledger.SetActiveToken(ctx, userID, tok); err != nil {
		return "", err
	}
	return tok, nil
}

// ValidateToken checks a presented session token: signature and expiry
// first, then the ledger pointer. Only the exact token most recently
// issued for the account is accepted.
func (e *Engine) ValidateToken(ctx context.Context, raw string) (UserRecord, error) {
	if e == nil || e.tokens == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	userID, err := e.tokens.Parse(raw)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		return UserRecord{}, ErrTokenInvalid
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, err
	}
	if !user.IsActive {
		e.metricInc(MetricTokenRejected)
		return UserRecord{}, ErrAccountInactive
	}

	active, err := e.ledger.ActiveToken(ctx, userID)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		return UserRecord{}, err
	}
	if active == "" || subtle.ConstantTimeCompare([]byte(active), []byte(raw)) != 1 {
		e.metricInc(MetricTokenRejected)
		return UserRecord{}, ErrTokenInvalid
	}

	e.metricInc(MetricTokenValidated)
	return user, nil
}

// Logout revokes the user's active session by clearing the token
// pointer. Logging out with no live session is a no-op.
func (e *Engine) Logout(ctx context.Context, userID int64) error {
	if e == nil || e.ledger == nil {
		return ErrEngineNotReady
	}

	err := e.ledger.SetActiveToken(ctx, userID, "")
	if err == nil {
		e.metricInc(MetricLogout)
	}
	e.emitAudit(ctx, auditEventLogout, err == nil, userID, "", err, nil)
	return err
}

const (
	auditEventRegister            = "register"
	auditEventRegisterVerify      = "register_verify"
	auditEventLogin               = "login"
	auditEventLogout              = "logout"
	auditEventPasswordResetStart  = "password_reset_request"
	auditEventPasswordResetFinish = "password_reset_confirm"
	auditEventPasswordChange      = "password_change"
	auditEventEmailChangeStart    = "email_change_request"
	auditEventEmailChangeFinish   = "email_change_confirm"
	auditEventResendOTP           = "otp_resend"
)
