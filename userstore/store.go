package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/faststore/accounts"
)

const uniqueViolation = "23505"

// Store implements accounts.UserStore on a Postgres database.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and returns a ready Store. The schema is
// migrated on open.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db}
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing gorm handle. Migration is the caller's
// responsibility.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the users table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&User{})
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetByID implements accounts.UserStore.
func (s *Store) GetByID(ctx context.Context, id int64) (accounts.UserRecord, error) {
	var row User
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return accounts.UserRecord{}, translateError(err)
	}
	return toRecord(row), nil
}

// GetByEmail implements accounts.UserStore.
func (s *Store) GetByEmail(ctx context.Context, email string) (accounts.UserRecord, error) {
	var row User
	if err := s.db.WithContext(ctx).First(&row, "email = ?", email).Error; err != nil {
		return accounts.UserRecord{}, translateError(err)
	}
	return toRecord(row), nil
}

// Create implements accounts.UserStore. New accounts start inactive and
// unverified; the unique index on email backs the taken-address check.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (accounts.UserRecord, error) {
	row := User{
		Email:    email,
		Password: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return accounts.UserRecord{}, translateError(err)
	}
	return toRecord(row), nil
}

// Update implements accounts.UserStore. Only the fields set on the
// update are written.
func (s *Store) Update(ctx context.Context, id int64, update accounts.UserUpdate) (accounts.UserRecord, error) {
	fields := map[string]any{}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.PasswordHash != nil {
		fields["password"] = *update.PasswordHash
	}
	if update.IsActive != nil {
		fields["is_active"] = *update.IsActive
	}
	if update.IsVerifiedEmail != nil {
		fields["is_verified_email"] = *update.IsVerifiedEmail
	}
	if update.LastLogin != nil {
		fields["last_login"] = *update.LastLogin
	}

	if len(fields) > 0 {
		result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return accounts.UserRecord{}, translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return accounts.UserRecord{}, accounts.ErrUserNotFound
		}
	}

	return s.GetByID(ctx, id)
}

func toRecord(row User) accounts.UserRecord {
	return accounts.UserRecord{
		ID:              row.ID,
		Email:           row.Email,
		PasswordHash:    row.Password,
		IsActive:        row.IsActive,
		IsVerifiedEmail: row.IsVerifiedEmail,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		LastLogin:       row.LastLogin,
	}
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return accounts.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return accounts.ErrEmailTaken
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return accounts.ErrEmailTaken
	}
	return err
}
