package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront-backend/pkg/db/models"
)

// ItemDTO is a cart line joined with its catalog snapshot.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Image       *string         `json:"image,omitempty"`
	Qty         int             `json:"qty"`
	InStock     int             `json:"in_stock"`
	AddedAt     time.Time       `json:"added_at"`
}

// CartDTO is the full cart view with a recomputed subtotal.
type CartDTO struct {
	Items    []ItemDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddItemRequest adds (or tops up) a product in the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1,max=999"`
}

// UpdateItemRequest replaces the quantity of an existing line.
type UpdateItemRequest struct {
	Qty int `json:"qty" validate:"required,min=1,max=999"`
}

func itemFromModel(item *models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Qty:       item.Qty,
		AddedAt:   item.CreatedAt,
	}
	if item.Product != nil {
		dto.ProductName = item.Product.Name
		dto.UnitPrice = item.Product.Price
		dto.InStock = item.Product.Stock
		if len(item.Product.Images) > 0 {
			image := item.Product.Images[0]
			dto.Image = &image
		}
		// Advisory cap for display; checkout revalidates inside its
		// transaction.
		if dto.Qty > item.Product.Stock {
			dto.Qty = item.Product.Stock
		}
	}
	return dto
}
