package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakmart/storefront-backend/pkg/db/models"
)

// CreateRequest submits a rating for a product.
type CreateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewDTO is the public review shape. The author name comes from the
// preloaded user row when available.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     uuid.UUID `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductReviews is the per-product listing with aggregates.
type ProductReviews struct {
	Reviews       []ReviewDTO `json:"reviews"`
	AverageRating float64     `json:"average_rating"`
	Count         int         `json:"count"`
}

func FromModel(r *models.Review) *ReviewDTO {
	if r == nil {
		return nil
	}
	dto := &ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		dto.AuthorName = r.User.Name
	}
	return dto
}
