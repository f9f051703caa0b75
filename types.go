package accounts

import (
	"context"
	"time"
)

// UserRecord is the engine's view of a stored user account.
type UserRecord struct {
	ID              int64
	Email           string
	PasswordHash    string
	IsActive        bool
	IsVerifiedEmail bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLogin       time.Time
}

// UserUpdate carries a sparse account update. Nil fields are left
// untouched by the store.
type UserUpdate struct {
	Email           *string
	PasswordHash    *string
	IsActive        *bool
	IsVerifiedEmail *bool
	LastLogin       *time.Time
}

// UserStore is the credential store contract the Engine depends on.
//
// GetByID and GetByEmail return ErrUserNotFound for missing accounts.
// Create returns ErrEmailTaken when the email is already registered;
// the store is the authority on uniqueness, not the engine's pre-check.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (UserRecord, error)
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
	Create(ctx context.Context, email, passwordHash string) (UserRecord, error)
	Update(ctx context.Context, id int64, update UserUpdate) (UserRecord, error)
}

func ptrString(s string) *string       { return &s }
func ptrBool(b bool) *bool             { return &b }
func ptrTime(t time.Time) *time.Time   { return &t }
