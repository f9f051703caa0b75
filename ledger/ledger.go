package ledger

import (
	"fmt"
	"time"
)

// Purpose identifies the verification flow a pending record belongs to.
type Purpose uint8

const (
	// PurposeNone marks a record with no pending verification.
	PurposeNone Purpose = iota
	// PurposeRegister marks a pending registration verification.
	PurposeRegister
	// PurposeResetPassword marks a pending password reset.
	PurposeResetPassword
	// PurposeChangeEmail marks a pending email change.
	PurposeChangeEmail
)

func (p Purpose) String() string {
	switch p {
	case PurposeNone:
		return "none"
	case PurposeRegister:
		return "register"
	case PurposeResetPassword:
		return "reset-password"
	case PurposeChangeEmail:
		return "change-email"
	default:
		return fmt.Sprintf("purpose(%d)", uint8(p))
	}
}

// ParsePurpose maps the wire names used by the resend endpoint back to
// a Purpose.
func ParsePurpose(s string) (Purpose, error) {
	switch s {
	case "register":
		return PurposeRegister, nil
	case "reset-password":
		return PurposeResetPassword, nil
	case "change-email":
		return PurposeChangeEmail, nil
	default:
		return PurposeNone, fmt.Errorf("unknown verification purpose %q", s)
	}
}

// Record is the per-user verification slot. A missing record reads as
// the zero Record with the matching UserID.
type Record struct {
	UserID       int64
	Purpose      Purpose
	PendingEmail string
	ActiveToken  string
	UpdatedAt    time.Time
}
