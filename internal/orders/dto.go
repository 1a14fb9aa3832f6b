package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	"github.com/oakmart/storefront-backend/pkg/enums"
	"github.com/oakmart/storefront-backend/pkg/pagination"
	"github.com/oakmart/storefront-backend/pkg/types"
)

// LineRequest is one product line submitted at checkout. Price is the
// client's view of the unit price; the server recomputes the total from it
// and rejects mismatches against the claimed total.
type LineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Qty       int             `json:"qty" validate:"required,min=1,max=999"`
	Price     decimal.Decimal `json:"price" validate:"required"`
}

// PlaceOrderRequest is the checkout payload for both guests and
// authenticated shoppers.
type PlaceOrderRequest struct {
	Items           []LineRequest   `json:"items" validate:"required,min=1,max=100,dive"`
	ShippingAddress types.Address   `json:"shipping_address" validate:"required"`
	PaymentMethod   *string         `json:"payment_method,omitempty" validate:"omitempty,max=64"`
	PaymentRef      *string         `json:"payment_ref,omitempty" validate:"omitempty,max=128"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Total           decimal.Decimal `json:"total" validate:"required"`
}

// ItemDTO is an order line snapshot.
type ItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderDTO is the public order shape.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	UserID          *uuid.UUID        `json:"user_id,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	IsPaid          bool              `json:"is_paid"`
	IsDelivered     bool              `json:"is_delivered"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time        `json:"delivered_at,omitempty"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	ShippingAddress types.Address     `json:"shipping_address"`
	PaymentMethod   *string           `json:"payment_method,omitempty"`
	PaymentRef      *string           `json:"payment_ref,omitempty"`
	Items           []ItemDTO         `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ListInput drives both the shopper and admin order listings.
type ListInput struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// ListResult is a page of orders with the next-page cursor.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          o.Status,
		IsPaid:          o.IsPaid,
		IsDelivered:     o.IsDelivered,
		PaidAt:          o.PaidAt,
		DeliveredAt:     o.DeliveredAt,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentRef:      o.PaymentRef,
		CreatedAt:       o.CreatedAt,
		Items:           make([]ItemDTO, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	return dto
}
