package notify

import (
	"context"
	"strings"
	"testing"
)

func TestChannelSenderDelivers(t *testing.T) {
	s := NewChannelSender(1)

	msg := RegistrationCode("u1@test.com", "123456")
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got := <-s.Messages()
	if got.To != "u1@test.com" {
		t.Fatalf("unexpected recipient %q", got.To)
	}
	if !strings.Contains(got.Body, "123456") {
		t.Fatalf("body missing code: %q", got.Body)
	}
}

func TestChannelSenderHonorsContext(t *testing.T) {
	s := NewChannelSender(1)
	_ = s.Send(context.Background(), Message{To: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, Message{To: "b"}); err == nil {
		t.Fatal("expected context error on full buffer")
	}
}

func TestTemplateSubjects(t *testing.T) {
	if RegistrationCode("x", "1").Subject != "Email Verification" {
		t.Fatal("wrong registration subject")
	}
	if PasswordResetCode("x", "1").Subject != "Password Reset Verification" {
		t.Fatal("wrong reset subject")
	}
	if EmailChangeCode("x", "1").Subject != "Email Change Verification" {
		t.Fatal("wrong email change subject")
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "mail", Port: "587", From: "noreply@test.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
