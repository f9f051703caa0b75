package accounts

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Use DefaultConfig as the
// starting point and override what the deployment needs; Build calls
// Validate before constructing anything.
type Config struct {
	Token    TokenConfig
	OTP      OTPConfig
	Password PasswordConfig
	Limiter  LimiterConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig controls session token issuance.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// OTPConfig controls one-time code generation.
//
// By default each user gets a distinct secret derived from MasterSecret,
// so a code issued for one account is useless for another. SharedSecret
// reverts to a single secret for every account and exists only for
// compatibility with deployments migrated from the legacy backend.
type OTPConfig struct {
	MasterSecret []byte
	SharedSecret bool
	Period       int // seconds per code window
	Digits       int
}

// PasswordConfig controls argon2id cost parameters and the storefront
// password policy bounds.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// LimiterConfig controls the fixed-window limiter applied to OTP
// confirmation attempts.
type LimiterConfig struct {
	MaxConfirmAttempts int
	Window             time.Duration
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: 30 minute tokens,
// 6-digit codes on a 360 second window, per-user OTP secrets, and five
// confirmation attempts per window.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL: 30 * time.Minute,
		},
		OTP: OTPConfig{
			Period: 360,
			Digits: 6,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Limiter: LimiterConfig{
			MaxConfirmAttempts: 5,
			Window:             360 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("token secret must be at least 32 bytes")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if len(c.OTP.MasterSecret) < 20 {
		return errors.New("otp master secret must be at least 20 bytes")
	}
	if c.OTP.Period < 30 {
		return errors.New("otp period must be at least 30 seconds")
	}
	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("otp digits must be between 6 and 10")
	}
	if c.Limiter.MaxConfirmAttempts <= 0 {
		return errors.New("limiter max confirm attempts must be positive")
	}
	if c.Limiter.Window <= 0 {
		return errors.New("limiter window must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.Token.Secret = cloneBytes(c.Token.Secret)
	out.OTP.MasterSecret = cloneBytes(c.OTP.MasterSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
