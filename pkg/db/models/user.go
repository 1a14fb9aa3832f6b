package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	Name             string     `gorm:"column:name;not null"`
	IsAdmin          bool       `gorm:"column:is_admin;not null;default:false"`
	AvatarURL        *string    `gorm:"column:avatar_url"`
	Phone            *string    `gorm:"column:phone"`
	ResetToken       *string    `gorm:"column:reset_token;index"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_token_expiry"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
