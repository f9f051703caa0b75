package userstore

import "time"

// User is the gorm row backing one account.
type User struct {
	ID              int64     `gorm:"primaryKey"`
	Email           string    `gorm:"size:256;uniqueIndex;not null"`
	Password        string    `gorm:"not null"`
	IsVerifiedEmail bool      `gorm:"not null;default:false"`
	IsActive        bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
	LastLogin       time.Time
}

// TableName keeps the table name stable across gorm versions.
func (User) TableName() string {
	return "users"
}
