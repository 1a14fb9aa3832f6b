package products

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
	"github.com/oakmart/storefront-backend/pkg/pagination"
)

// Service defines the behavior needed by the catalog controllers.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Detail(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, dto CreateProductDTO) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateProductDTO) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Product, error)
}

type service struct {
	repo productRepository
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, input.Filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	result := &ListResult{Products: make([]ProductDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for i := range rows {
		result.Products = append(result.Products, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Detail(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) Create(ctx context.Context, dto CreateProductDTO) (*ProductDTO, error) {
	if dto.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	product := &models.Product{
		SKU:         strings.TrimSpace(dto.SKU),
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		Category:    strings.TrimSpace(dto.Category),
		Price:       dto.Price,
		Stock:       dto.Stock,
		Images:      dto.Images,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, dto UpdateProductDTO) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if dto.Name != nil {
		product.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Description != nil {
		product.Description = *dto.Description
	}
	if dto.Category != nil {
		product.Category = strings.TrimSpace(*dto.Category)
	}
	if dto.Price != nil {
		if dto.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *dto.Price
	}
	if dto.Stock != nil {
		if *dto.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *dto.Stock
	}
	if dto.Images != nil {
		product.Images = dto.Images
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return FromModel(saved), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Detail(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}
