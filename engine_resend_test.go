package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
)

func TestResendOTPThrottledMidWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	sender := notify.NewChannelSender(4)
	engine := newTestEngine(t, rdb, users, sender)
	engine.clock = func() time.Time { return time.Unix(720+100, 0) }

	if err := engine.Register(ctx, "u1@test.com", "Passw0rd!"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	drainMessage(t, sender)

	err := engine.ResendOTP(ctx, "u1@test.com", ledger.PurposeRegister)
	var throttled *ResendThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected ResendThrottledError, got %v", err)
	}
	if throttled.RetryIn != 260 {
		t.Fatalf("expected 260 seconds until rotation, got %d", throttled.RetryIn)
	}
	if !errors.Is(err, ErrResendThrottled) {
		t.Fatal("throttle error must match ErrResendThrottled")
	}
	requireMetric(t, engine, MetricResendThrottled, 1)
}

func TestResendOTPAtWindowBoundary(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	sender := notify.NewChannelSender(4)
	engine := newTestEngine(t, rdb, users, sender)
	engine.clock = func() time.Time { return time.Unix(720, 0) }

	if err := engine.Register(ctx, "u1@test.com", "Passw0rd!"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	drainMessage(t, sender)
	user, _ := users.GetByEmail(ctx, "u1@test.com")

	if err := engine.ResendOTP(ctx, "u1@test.com", ledger.PurposeRegister); err != nil {
		t.Fatalf("resend at the rotation instant must succeed: %v", err)
	}

	msg := drainMessage(t, sender)
	if msg.To != "u1@test.com" {
		t.Fatalf("resend went to %q", msg.To)
	}
	if !strings.Contains(msg.Body, currentCode(engine, user.ID)) {
		t.Fatal("resend body missing current code")
	}
	requireMetric(t, engine, MetricResendSuccess, 1)
}

func TestResendOTPPurposeMismatch(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	sender := notify.NewChannelSender(4)
	engine := newTestEngine(t, rdb, users, sender)

	if err := engine.Register(ctx, "u1@test.com", "Passw0rd!"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	drainMessage(t, sender)

	if err := engine.ResendOTP(ctx, "u1@test.com", ledger.PurposeResetPassword); !errors.Is(err, ErrPurposeMismatch) {
		t.Fatalf("expected ErrPurposeMismatch, got %v", err)
	}
}

func TestResendOTPNoPendingVerification(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.ResendOTP(context.Background(), "u1@test.com", ledger.PurposeRegister); !errors.Is(err, ErrPurposeMismatch) {
		t.Fatalf("expected ErrPurposeMismatch with an empty slot, got %v", err)
	}
}

func TestResendOTPUnknownEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockUserStore(), notify.NewChannelSender(4))

	if err := engine.ResendOTP(context.Background(), "ghost@test.com", ledger.PurposeRegister); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResendOTPEmailChangeGoesToCandidate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	sender := notify.NewChannelSender(4)
	engine := newTestEngine(t, rdb, users, sender)
	engine.clock = func() time.Time { return time.Unix(720, 0) }
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.RequestEmailChange(ctx, user.ID, "new@test.com"); err != nil {
		t.Fatalf("RequestEmailChange failed: %v", err)
	}
	drainMessage(t, sender)

	if err := engine.ResendOTP(ctx, "u1@test.com", ledger.PurposeChangeEmail); err != nil {
		t.Fatalf("ResendOTP failed: %v", err)
	}

	msg := drainMessage(t, sender)
	if msg.To != "new@test.com" {
		t.Fatalf("change-email resend must target the candidate, went to %q", msg.To)
	}
}
