package products

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
	"github.com/oakmart/storefront-backend/pkg/pagination"
)

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
	skus     map[string]bool
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: map[uuid.UUID]*models.Product{},
		skus:     map[string]bool{},
	}
}

type duplicateSKUError struct{}

func (duplicateSKUError) Error() string {
	return `duplicate key value violates unique constraint "idx_products_sku"`
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if f.skus[product.SKU] {
		return nil, duplicateSKUError{}
	}
	product.ID = uuid.New()
	product.CreatedAt = time.Now().UTC()
	f.products[product.ID] = product
	f.skus[product.SKU] = true
	return product, nil
}

func (f *fakeProductRepo) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProductRepo) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	svc, err := NewService(newFakeProductRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	dto := CreateProductDTO{
		SKU:      "OAK-001",
		Name:     "Oak Shelf",
		Category: "furniture",
		Price:    decimal.NewFromFloat(129.00),
		Stock:    4,
	}
	if _, err := svc.Create(context.Background(), dto); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = svc.Create(context.Background(), dto)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc, _ := NewService(newFakeProductRepo())

	_, err := svc.Create(context.Background(), CreateProductDTO{
		SKU:      "OAK-002",
		Name:     "Broken",
		Category: "misc",
		Price:    decimal.NewFromFloat(-1),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateUnknownProductNotFound(t *testing.T) {
	svc, _ := NewService(newFakeProductRepo())

	name := "Renamed"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateProductDTO{Name: &name})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	repo := newFakeProductRepo()
	svc, _ := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProductDTO{
		SKU:      "OAK-003",
		Name:     "Walnut Desk",
		Category: "furniture",
		Price:    decimal.NewFromFloat(450.00),
		Stock:    2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stock := 9
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductDTO{Stock: &stock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stock != 9 {
		t.Fatalf("expected stock 9 got %d", updated.Stock)
	}
	if updated.Name != "Walnut Desk" {
		t.Fatalf("untouched field changed: %q", updated.Name)
	}
}

func TestListInvalidCursorRejected(t *testing.T) {
	svc, _ := NewService(newFakeProductRepo())

	_, err := svc.List(context.Background(), ListInput{
		Pagination: pagination.Params{Cursor: "not-base64!!"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
