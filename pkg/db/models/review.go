package models

import (
	"time"

	"github.com/google/uuid"
)

// Review holds a 1-5 rating per (user, product) pair.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_review_product_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_review_product_user"`
	User      *User     `gorm:"foreignKey:UserID"`
	Rating    int       `gorm:"column:rating;not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `gorm:"column:comment;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
