package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

type fakeCartRepo struct {
	items map[uuid.UUID]*models.CartItem
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{items: map[uuid.UUID]*models.CartItem{}}
}

func (f *fakeCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	out := []models.CartItem{}
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeCartRepo) Upsert(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	for _, item := range f.items {
		if item.UserID == userID && item.ProductID == productID {
			item.Qty += qty
			return nil
		}
	}
	id := uuid.New()
	f.items[id] = &models.CartItem{ID: id, UserID: userID, ProductID: productID, Qty: qty}
	return nil
}

func (f *fakeCartRepo) UpdateQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (int64, error) {
	item, ok := f.items[itemID]
	if !ok || item.UserID != userID {
		return 0, nil
	}
	item.Qty = qty
	return 1, nil
}

func (f *fakeCartRepo) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	item, ok := f.items[itemID]
	if !ok || item.UserID != userID {
		return 0, nil
	}
	delete(f.items, itemID)
	return 1, nil
}

func (f *fakeCartRepo) ClearUser(ctx context.Context, userID uuid.UUID) error {
	for id, item := range f.items {
		if item.UserID == userID {
			delete(f.items, id)
		}
	}
	return nil
}

type fakeProductFinder struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeProductFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, err := NewService(newFakeCartRepo(), &fakeProductFinder{products: map[uuid.UUID]*models.Product{}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Qty: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Sold Out Chair", Stock: 0, Price: decimal.NewFromInt(10)}
	finder := &fakeProductFinder{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc, _ := NewService(newFakeCartRepo(), finder)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: product.ID, Qty: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	finder := &fakeProductFinder{products: map[uuid.UUID]*models.Product{}}
	svc, _ := NewService(newFakeCartRepo(), finder)

	_, err := svc.UpdateItem(context.Background(), uuid.New(), uuid.New(), UpdateItemRequest{Qty: 2})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
