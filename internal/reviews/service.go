package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db"
	"github.com/oakmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines the behavior needed by the review controllers.
type Service interface {
	Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) (*ProductReviews, error)
	Delete(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productFinder
}

// NewService constructs a reviews service.
func NewService(repo *Repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: repo, products: products}, nil
}

// Create stores the review after confirming the product exists and the user
// has not reviewed it yet. The unique index backs the pre-check up under
// concurrent submissions.
func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	exists, err := s.repo.Exists(ctx, productID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return FromModel(review), nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) (*ProductReviews, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}

	result := &ProductReviews{
		Reviews: make([]ReviewDTO, 0, len(rows)),
		Count:   len(rows),
	}
	for i := range rows {
		result.Reviews = append(result.Reviews, *FromModel(&rows[i]))
	}
	if len(rows) > 0 {
		avg, err := s.repo.AverageRating(ctx, productID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "average rating")
		}
		result.AverageRating = avg
	}
	return result, nil
}

// Delete removes the review. Non-admins can only delete their own.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, isAdmin bool, reviewID uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	if !isAdmin && review.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another user")
	}

	if _, err := s.repo.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
	}
	return nil
}
