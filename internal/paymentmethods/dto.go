package paymentmethods

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	"github.com/oakmart/storefront-backend/pkg/enums"
)

// CreateRequest registers a gateway-vaulted instrument. The gateway reference
// is the only link to the real card; this service never sees a PAN.
type CreateRequest struct {
	Type       enums.PaymentMethodType `json:"type" validate:"required"`
	Brand      *string                 `json:"brand,omitempty" validate:"omitempty,max=32"`
	Last4      *string                 `json:"last4,omitempty" validate:"omitempty,len=4,numeric"`
	ExpMonth   *int                    `json:"exp_month,omitempty" validate:"omitempty,min=1,max=12"`
	ExpYear    *int                    `json:"exp_year,omitempty" validate:"omitempty,min=2000,max=2100"`
	GatewayRef string                  `json:"gateway_ref" validate:"required,max=128"`
	IsDefault  bool                    `json:"is_default"`
}

// MethodDTO is the public payment method shape.
type MethodDTO struct {
	ID        uuid.UUID               `json:"id"`
	Type      enums.PaymentMethodType `json:"type"`
	Brand     *string                 `json:"brand,omitempty"`
	Last4     *string                 `json:"last4,omitempty"`
	ExpMonth  *int                    `json:"exp_month,omitempty"`
	ExpYear   *int                    `json:"exp_year,omitempty"`
	IsDefault bool                    `json:"is_default"`
	CreatedAt time.Time               `json:"created_at"`
}

func FromModel(m *models.PaymentMethod) *MethodDTO {
	if m == nil {
		return nil
	}
	return &MethodDTO{
		ID:        m.ID,
		Type:      m.Type,
		Brand:     m.Brand,
		Last4:     m.Last4,
		ExpMonth:  m.ExpMonth,
		ExpYear:   m.ExpYear,
		IsDefault: m.IsDefault,
		CreatedAt: m.CreatedAt,
	}
}

// Summary renders a short human-readable label for receipts and emails.
func (d *MethodDTO) Summary() string {
	if d == nil {
		return ""
	}
	label := string(d.Type)
	if d.Brand != nil {
		label = *d.Brand
	}
	if d.Last4 != nil {
		label += " ending in " + *d.Last4
	}
	return label
}
