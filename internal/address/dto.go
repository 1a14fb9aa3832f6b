package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakmart/storefront-backend/pkg/db/models"
)

// CreateRequest is the payload for adding an address to the user's book.
type CreateRequest struct {
	Line1      string  `json:"line1" validate:"required,max=255"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=255"`
	City       string  `json:"city" validate:"required,max=128"`
	State      string  `json:"state" validate:"required,max=128"`
	PostalCode string  `json:"postalCode" validate:"required,max=32"`
	Country    string  `json:"country" validate:"required,len=2"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	IsDefault  bool    `json:"is_default"`
}

// UpdateRequest carries partial changes; nil fields are left untouched.
type UpdateRequest struct {
	Line1      *string `json:"line1,omitempty" validate:"omitempty,max=255"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=128"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=128"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=32"`
	Country    *string `json:"country,omitempty" validate:"omitempty,len=2"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	IsDefault  *bool   `json:"is_default,omitempty"`
}

// AddressDTO is the public address shape.
type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	Phone      *string   `json:"phone,omitempty"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModel(a *models.Address) *AddressDTO {
	if a == nil {
		return nil
	}
	return &AddressDTO{
		ID:         a.ID,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
	}
}
