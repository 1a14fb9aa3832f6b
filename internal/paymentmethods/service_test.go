package paymentmethods

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
	"github.com/oakmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupMethodsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:paymethods_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS payment_methods (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'card',
  brand TEXT,
  last4 TEXT,
  exp_month INTEGER,
  exp_year INTEGER,
  gateway_ref TEXT NOT NULL UNIQUE,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newMethodsService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupMethodsTestDB(t)
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func cardRequest(gatewayRef string, isDefault bool) CreateRequest {
	brand := "visa"
	last4 := "4242"
	month := 12
	year := 2030
	return CreateRequest{
		Type:       enums.PaymentMethodTypeCard,
		Brand:      &brand,
		Last4:      &last4,
		ExpMonth:   &month,
		ExpYear:    &year,
		GatewayRef: gatewayRef,
		IsDefault:  isDefault,
	}
}

func methodDefaultCount(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error)
	return count
}

func TestFirstMethodBecomesDefault(t *testing.T) {
	t.Parallel()

	svc, _ := newMethodsService(t)
	created, err := svc.Create(context.Background(), uuid.New(), cardRequest("vault_1", false))
	require.NoError(t, err)
	assert.True(t, created.IsDefault)
	assert.Equal(t, "visa ending in 4242", created.Summary())
}

func TestCreateDefaultDemotesPrevious(t *testing.T) {
	t.Parallel()

	svc, db := newMethodsService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Create(ctx, userID, cardRequest("vault_1", false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, cardRequest("vault_2", true))
	require.NoError(t, err)
	assert.True(t, second.IsDefault)
	assert.Equal(t, int64(1), methodDefaultCount(t, db, userID))
}

func TestCreateDuplicateGatewayRefConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newMethodsService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), cardRequest("vault_dup", false))
	require.NoError(t, err)

	_, err = svc.Create(ctx, uuid.New(), cardRequest("vault_dup", false))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateRejectsUnknownType(t *testing.T) {
	t.Parallel()

	svc, _ := newMethodsService(t)
	req := cardRequest("vault_x", false)
	req.Type = enums.PaymentMethodType("crypto")

	_, err := svc.Create(context.Background(), uuid.New(), req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSetDefaultSwitchesExactlyOneFlag(t *testing.T) {
	t.Parallel()

	svc, db := newMethodsService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Create(ctx, userID, cardRequest("vault_1", false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, cardRequest("vault_2", false))
	require.NoError(t, err)

	updated, err := svc.SetDefault(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, int64(1), methodDefaultCount(t, db, userID))

	_, err = svc.SetDefault(ctx, uuid.New(), second.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteDefaultPromotesOldest(t *testing.T) {
	t.Parallel()

	svc, db := newMethodsService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, cardRequest("vault_1", false))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.Create(ctx, userID, cardRequest("vault_2", false))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, first.ID))

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, int64(1), methodDefaultCount(t, db, userID))
}
