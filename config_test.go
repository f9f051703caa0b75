package accounts

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = cloneBytes(testTokenSecret)
	cfg.OTP.MasterSecret = cloneBytes(testOTPMaster)
	return cfg
}

func TestDefaultConfigValidatesWithSecrets(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("defaults with secrets must validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"short token secret", func(c *Config) { c.Token.Secret = []byte("short") }, "token secret"},
		{"zero ttl", func(c *Config) { c.Token.TTL = 0 }, "ttl"},
		{"short otp secret", func(c *Config) { c.OTP.MasterSecret = []byte("short") }, "otp master secret"},
		{"tiny period", func(c *Config) { c.OTP.Period = 10 }, "period"},
		{"too few digits", func(c *Config) { c.OTP.Digits = 4 }, "digits"},
		{"too many digits", func(c *Config) { c.OTP.Digits = 12 }, "digits"},
		{"zero attempts", func(c *Config) { c.Limiter.MaxConfirmAttempts = 0 }, "confirm attempts"},
		{"zero window", func(c *Config) { c.Limiter.Window = 0 }, "window"},
		{"audit without buffer", func(c *Config) { c.Audit.BufferSize = 0 }, "audit buffer"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestConfigValidateAllowsDisabledAudit(t *testing.T) {
	cfg := validTestConfig()
	cfg.Audit.Enabled = false
	cfg.Audit.BufferSize = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("buffer size is irrelevant with audit disabled: %v", err)
	}
}

func TestCloneConfigDetachesSecrets(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)

	clone.Token.Secret[0] ^= 0xFF
	clone.OTP.MasterSecret[0] ^= 0xFF

	if cfg.Token.Secret[0] == clone.Token.Secret[0] {
		t.Fatal("token secret aliased after clone")
	}
	if cfg.OTP.MasterSecret[0] == clone.OTP.MasterSecret[0] {
		t.Fatal("otp master secret aliased after clone")
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Token.TTL != 30*time.Minute {
		t.Fatalf("token ttl %v", cfg.Token.TTL)
	}
	if cfg.OTP.Period != 360 || cfg.OTP.Digits != 6 {
		t.Fatalf("otp defaults %d/%d", cfg.OTP.Period, cfg.OTP.Digits)
	}
	if cfg.OTP.SharedSecret {
		t.Fatal("per-user secrets must be the default")
	}
	if cfg.Limiter.MaxConfirmAttempts != 5 {
		t.Fatalf("limiter attempts %d", cfg.Limiter.MaxConfirmAttempts)
	}
}
