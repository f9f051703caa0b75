package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
)

func TestRequestEmailChangeSendsToCandidate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	sender := notify.NewChannelSender(4)
	engine := newTestEngine(t, rdb, users, sender)
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.RequestEmailChange(ctx, user.ID, "new@test.com"); err != nil {
		t.Fatalf("RequestEmailChange failed: %v", err)
	}

	record, err := engine.ledger.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("ledger Get failed: %v", err)
	}
	if record.Purpose != ledger.PurposeChangeEmail {
		t.Fatalf("expected change-email purpose, got %v", record.Purpose)
	}
	if record.PendingEmail != "new@test.com" {
		t.Fatalf("pending email %q", record.PendingEmail)
	}

	msg := drainMessage(t, sender)
	if msg.To != "new@test.com" {
		t.Fatalf("code must go to the candidate address, went to %q", msg.To)
	}
	if !strings.Contains(msg.Body, currentCode(engine, user.ID)) {
		t.Fatal("notification body missing current code")
	}
}

func TestRequestEmailChangeTakenAddress(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)
	users.seed(t, engine.hasher, "other@test.com", "Passw0rd!", true, true)

	if err := engine.RequestEmailChange(ctx, user.ID, "other@test.com"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	record, _ := engine.ledger.Get(ctx, user.ID)
	if record.Purpose != ledger.PurposeNone {
		t.Fatalf("no slot may be opened for a taken address: %v", record.Purpose)
	}
}

func TestConfirmEmailChangeMovesAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	tok, err := engine.Login(ctx, "u1@test.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.RequestEmailChange(ctx, user.ID, "new@test.com"); err != nil {
		t.Fatalf("RequestEmailChange failed: %v", err)
	}
	if err := engine.ConfirmEmailChange(ctx, user.ID, currentCode(engine, user.ID)); err != nil {
		t.Fatalf("ConfirmEmailChange failed: %v", err)
	}

	moved, err := users.GetByEmail(ctx, "new@test.com")
	if err != nil {
		t.Fatalf("account not reachable at new address: %v", err)
	}
	if moved.ID != user.ID {
		t.Fatalf("wrong account at new address: %d", moved.ID)
	}
	if _, err := users.GetByEmail(ctx, "u1@test.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("old address must be released, got %v", err)
	}

	// The session survives an email change.
	if _, err := engine.ValidateToken(ctx, tok); err != nil {
		t.Fatalf("session must survive the email change: %v", err)
	}

	record, _ := engine.ledger.Get(ctx, user.ID)
	if record.Purpose != ledger.PurposeNone || record.PendingEmail != "" {
		t.Fatalf("ledger slot not cleared: %+v", record)
	}
}

func TestConfirmEmailChangeNoPending(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.ConfirmEmailChange(context.Background(), user.ID, "123456"); !errors.Is(err, ErrNoPendingEmail) {
		t.Fatalf("expected ErrNoPendingEmail, got %v", err)
	}
}

func TestConfirmEmailChangeWrongPurpose(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.RequestPasswordReset(ctx, "u1@test.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := engine.ConfirmEmailChange(ctx, user.ID, currentCode(engine, user.ID)); !errors.Is(err, ErrNoPendingEmail) {
		t.Fatalf("a reset slot must not satisfy an email change, got %v", err)
	}
}

func TestConfirmEmailChangeWrongCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.RequestEmailChange(ctx, user.ID, "new@test.com"); err != nil {
		t.Fatalf("RequestEmailChange failed: %v", err)
	}
	if err := engine.ConfirmEmailChange(ctx, user.ID, wrongCode(engine, user.ID)); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}

	unchanged, _ := users.GetByID(ctx, user.ID)
	if unchanged.Email != "u1@test.com" {
		t.Fatalf("email must be unchanged after a bad code: %q", unchanged.Email)
	}
}

func TestConfirmEmailChangeRateLimited(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	users := newMockUserStore()
	engine := newTestEngine(t, rdb, users, notify.NewChannelSender(4))
	user := users.seed(t, engine.hasher, "u1@test.com", "Passw0rd!", true, true)

	if err := engine.RequestEmailChange(ctx, user.ID, "new@test.com"); err != nil {
		t.Fatalf("RequestEmailChange failed: %v", err)
	}

	for i := 0; i < engine.config.Limiter.MaxConfirmAttempts; i++ {
		if err := engine.ConfirmEmailChange(ctx, user.ID, wrongCode(engine, user.ID)); !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("attempt %d: expected ErrOTPInvalid, got %v", i, err)
		}
	}

	if err := engine.ConfirmEmailChange(ctx, user.ID, currentCode(engine, user.ID)); !errors.Is(err, ErrOTPRateLimited) {
		t.Fatalf("expected ErrOTPRateLimited, got %v", err)
	}
}
