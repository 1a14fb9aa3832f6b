package reviews

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

	"github.com/oakmart/storefront-backend/internal/products"
	"github.com/oakmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

func setupReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
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
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  is_admin INTEGER NOT NULL DEFAULT 0,
  avatar_url TEXT,
  phone TEXT,
  reset_token TEXT,
  reset_token_expiry DATETIME,
  last_login_at DATETIME,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  UNIQUE (product_id, user_id)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type reviewsFixture struct {
	db      *gorm.DB
	service Service
}

func newReviewsFixture(t *testing.T) *reviewsFixture {
	t.Helper()
	db := setupReviewsTestDB(t)
	svc, err := NewService(NewRepository(db), products.NewRepository(db))
	require.NoError(t, err)
	return &reviewsFixture{db: db, service: svc}
}

func (f *reviewsFixture) seedProduct(t *testing.T) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		SKU:       "sku-" + uuid.NewString(),
		Name:      "Oak Table",
		Category:  "furniture",
		Price:     decimal.NewFromFloat(120.00),
		Stock:     5,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *reviewsFixture) seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Name:         name,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func TestCreateAndListWithAverage(t *testing.T) {
	t.Parallel()

	f := newReviewsFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t)
	alice := f.seedUser(t, "Alice")
	bob := f.seedUser(t, "Bob")

	_, err := f.service.Create(ctx, alice.ID, product.ID, CreateRequest{Rating: 5, Comment: "Solid build."})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, bob.ID, product.ID, CreateRequest{Rating: 2})
	require.NoError(t, err)

	listing, err := f.service.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.Count)
	assert.InDelta(t, 3.5, listing.AverageRating, 0.001)
	require.Len(t, listing.Reviews, 2)

	names := []string{listing.Reviews[0].AuthorName, listing.Reviews[1].AuthorName}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
}

func TestSecondReviewBySameUserConflicts(t *testing.T) {
	t.Parallel()

	f := newReviewsFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t)
	user := f.seedUser(t, "Alice")

	_, err := f.service.Create(ctx, user.ID, product.ID, CreateRequest{Rating: 4})
	require.NoError(t, err)

	_, err = f.service.Create(ctx, user.ID, product.ID, CreateRequest{Rating: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateValidatesRatingAndProduct(t *testing.T) {
	t.Parallel()

	f := newReviewsFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Alice")
	product := f.seedProduct(t)

	_, err := f.service.Create(ctx, user.ID, product.ID, CreateRequest{Rating: 6})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.service.Create(ctx, user.ID, uuid.New(), CreateRequest{Rating: 3})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteOwnershipRules(t *testing.T) {
	t.Parallel()

	f := newReviewsFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t)
	author := f.seedUser(t, "Alice")
	stranger := f.seedUser(t, "Mallory")

	created, err := f.service.Create(ctx, author.ID, product.ID, CreateRequest{Rating: 4})
	require.NoError(t, err)

	err = f.service.Delete(ctx, stranger.ID, false, created.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	require.NoError(t, f.service.Delete(ctx, stranger.ID, true, created.ID), "admins can delete any review")

	err = f.service.Delete(ctx, author.ID, false, created.ID)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListUnreviewedProductIsEmpty(t *testing.T) {
	t.Parallel()

	f := newReviewsFixture(t)
	listing, err := f.service.ListByProduct(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, listing.Count)
	assert.Zero(t, listing.AverageRating)
	assert.Empty(t, listing.Reviews)
}
