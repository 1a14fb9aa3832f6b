package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront-backend/pkg/enums"
	"github.com/oakmart/storefront-backend/pkg/types"
)

// Order is a placed purchase. Items are immutable once created and the total
// equals the sum of item price snapshots at creation time.
type Order struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          *uuid.UUID         `gorm:"column:user_id;type:uuid;index"`
	User            *User              `gorm:"foreignKey:UserID"`
	Status          enums.OrderStatus  `gorm:"column:status;not null;default:'pending'"`
	IsPaid          bool               `gorm:"column:is_paid;not null;default:false"`
	IsDelivered     bool               `gorm:"column:is_delivered;not null;default:false"`
	PaidAt          *time.Time         `gorm:"column:paid_at"`
	DeliveredAt     *time.Time         `gorm:"column:delivered_at"`
	TotalAmount     decimal.Decimal    `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress types.Address      `gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   *string            `gorm:"column:payment_method"`
	PaymentRef      *string            `gorm:"column:payment_ref"`
	Items           []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
