package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a storefront account. Orders and license keys are owned
// by a user; resellers are users with an attached reseller record.
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name         string `json:"name" gorm:"size:100"`
	PasswordHash string `json:"-" gorm:"not null;size:100"`
	Role         string `json:"role" gorm:"size:20;default:'USER';index"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

// Session represents a dashboard login session. Sessions are looked up by
// token on every authenticated request and expire server-side.
type Session struct {
	BaseModel
	Token     string    `json:"token" gorm:"uniqueIndex;not null;size:64"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
