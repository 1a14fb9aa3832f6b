package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  images TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  UNIQUE (user_id, product_id)
);`
	for _, stmt := range []string{schema} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedCartProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		SKU:       "sku-" + uuid.NewString(),
		Name:      "Oak Stool",
		Category:  "furniture",
		Price:     decimal.NewFromFloat(49.50),
		Stock:     stock,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestUpsertIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, 10)

	require.NoError(t, repo.Upsert(ctx, userID, product.ID, 2))
	require.NoError(t, repo.Upsert(ctx, userID, product.ID, 3))

	items, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1, "re-adding the same product must not duplicate the line")
	assert.Equal(t, 5, items[0].Qty)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, product.Name, items[0].Product.Name)
}

func TestUpdateAndDeleteAreUserScoped(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	product := seedCartProduct(t, db, 10)

	require.NoError(t, repo.Upsert(ctx, owner, product.ID, 1))
	items, err := repo.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	itemID := items[0].ID

	affected, err := repo.UpdateQty(ctx, intruder, itemID, 99)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.DeleteItem(ctx, intruder, itemID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.UpdateQty(ctx, owner, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestClearUserRemovesAllLines(t *testing.T) {
	t.Parallel()

	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		product := seedCartProduct(t, db, 5)
		require.NoError(t, repo.Upsert(ctx, userID, product.ID, 1))
	}

	require.NoError(t, repo.ClearUser(ctx, userID))

	items, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
