package address

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:address_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  phone TEXT,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newAddressService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupAddressTestDB(t)
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func createRequest(line1 string, isDefault bool) CreateRequest {
	return CreateRequest{
		Line1:      line1,
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
		Country:    "us",
		IsDefault:  isDefault,
	}
}

func defaultCount(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error)
	return count
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	t.Parallel()

	svc, _ := newAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, createRequest("12 Mill Lane", false))
	require.NoError(t, err)
	assert.True(t, created.IsDefault, "first address is always the default")
	assert.Equal(t, "US", created.Country)
}

func TestCreateDefaultClearsPreviousDefault(t *testing.T) {
	t.Parallel()

	svc, db := newAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, createRequest("12 Mill Lane", false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, createRequest("7 Dock Street", true))
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "default sorts first")
	assert.False(t, list[1].IsDefault)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, int64(1), defaultCount(t, db, userID))
}

func TestUpdatePromotingDefaultDemotesSibling(t *testing.T) {
	t.Parallel()

	svc, db := newAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Create(ctx, userID, createRequest("12 Mill Lane", false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, createRequest("7 Dock Street", false))
	require.NoError(t, err)

	isDefault := true
	newCity := "Salem"
	updated, err := svc.Update(ctx, userID, second.ID, UpdateRequest{
		City:      &newCity,
		IsDefault: &isDefault,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, "Salem", updated.City)
	assert.Equal(t, int64(1), defaultCount(t, db, userID))
}

func TestUpdateIsUserScoped(t *testing.T) {
	t.Parallel()

	svc, _ := newAddressService(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, createRequest("12 Mill Lane", false))
	require.NoError(t, err)

	line := "99 Other Road"
	_, err = svc.Update(ctx, uuid.New(), created.ID, UpdateRequest{Line1: &line})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteDefaultPromotesOldestRemaining(t *testing.T) {
	t.Parallel()

	svc, db := newAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, createRequest("12 Mill Lane", false))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.Create(ctx, userID, createRequest("7 Dock Street", false))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.Create(ctx, userID, createRequest("3 Harbor Way", false))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, first.ID))

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "oldest remaining address is promoted")
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, int64(1), defaultCount(t, db, userID))
}

func TestDeleteNonDefaultLeavesDefaultAlone(t *testing.T) {
	t.Parallel()

	svc, _ := newAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, createRequest("12 Mill Lane", false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, createRequest("7 Dock Street", false))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, second.ID))

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
}

func TestDeleteUnknownAddressReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newAddressService(t)

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
