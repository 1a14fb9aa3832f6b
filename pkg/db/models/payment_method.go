package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakmart/storefront-backend/pkg/enums"
)

// PaymentMethod stores gateway-vaulted instrument metadata per user. Only the
// brand and masked identifier live here; the gateway holds the real card.
type PaymentMethod struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type       enums.PaymentMethodType `gorm:"column:type;not null;default:'card'"`
	Brand      *string                 `gorm:"column:brand"`
	Last4      *string                 `gorm:"column:last4"`
	ExpMonth   *int                    `gorm:"column:exp_month"`
	ExpYear    *int                    `gorm:"column:exp_year"`
	GatewayRef string                  `gorm:"column:gateway_ref;not null;unique"`
	IsDefault  bool                    `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
