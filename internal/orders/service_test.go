package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/internal/cart"
	"github.com/oakmart/storefront-backend/internal/products"
	"github.com/oakmart/storefront-backend/pkg/db/models"
	"github.com/oakmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
	"github.com/oakmart/storefront-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeOrderMailer struct {
	sent []string
	err  error
}

func (f *fakeOrderMailer) SendOrderConfirmation(_ context.Context, to string, _ *OrderDTO) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type recordedNotification struct {
	userID uuid.UUID
	kind   enums.NotificationType
}

type fakeNotifier struct {
	created []recordedNotification
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, kind enums.NotificationType, _, _ string, _ *string) error {
	f.created = append(f.created, recordedNotification{userID: userID, kind: kind})
	return nil
}

type orderServiceFixture struct {
	db       *gorm.DB
	service  Service
	products *products.Repository
	cart     *cart.Repository
	mailer   *fakeOrderMailer
	notifier *fakeNotifier
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()

	db := setupOrdersTestDB(t)
	productsRepo := products.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	mailer := &fakeOrderMailer{}
	notifier := &fakeNotifier{}

	svc, err := NewService(ServiceParams{
		Tx:           gormTxRunner{db: db},
		Repo:         NewRepository(db),
		ProductsRepo: productsRepo,
		CartRepo:     cartRepo,
		Mailer:       mailer,
		Notifier:     notifier,
	})
	require.NoError(t, err)

	return &orderServiceFixture{
		db:       db,
		service:  svc,
		products: productsRepo,
		cart:     cartRepo,
		mailer:   mailer,
		notifier: notifier,
	}
}

func (f *orderServiceFixture) seedProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		SKU:       "sku-" + uuid.NewString(),
		Name:      name,
		Category:  "furniture",
		Price:     decimal.NewFromFloat(price),
		Stock:     stock,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *orderServiceFixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	product, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func lineFor(product *models.Product, qty int) LineRequest {
	return LineRequest{ProductID: product.ID, Qty: qty, Price: product.Price}
}

func placeRequest(lines ...LineRequest) PlaceOrderRequest {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return PlaceOrderRequest{
		Items:           lines,
		ShippingAddress: testAddress(),
		Total:           total,
	}
}

func TestPlaceDecrementsStockAndSnapshotsLines(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	ctx := context.Background()
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	stool := f.seedProduct(t, "Oak Stool", 25.50, 3)
	identity := &Identity{UserID: uuid.New(), Email: "jordan@example.com"}

	order, err := f.service.Place(ctx, identity, placeRequest(lineFor(shelf, 2), lineFor(stool, 1)))
	require.NoError(t, err)

	assert.Equal(t, 3, f.stockOf(t, shelf.ID))
	assert.Equal(t, 2, f.stockOf(t, stool.ID))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.False(t, order.IsPaid)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(105.50)))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Oak Shelf", order.Items[0].Name)

	assert.Equal(t, []string{"jordan@example.com"}, f.mailer.sent)
	require.Len(t, f.notifier.created, 1)
	assert.Equal(t, enums.NotificationOrderPlaced, f.notifier.created[0].kind)
	assert.Equal(t, identity.UserID, f.notifier.created[0].userID)
}

func TestPlaceWithPaymentMarksOrderPaid(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	identity := &Identity{UserID: uuid.New(), Email: "sam@example.com"}

	req := placeRequest(lineFor(shelf, 1))
	method := "card"
	ref := "pay_abc123"
	req.PaymentMethod = &method
	req.PaymentRef = &ref

	order, err := f.service.Place(context.Background(), identity, req)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.True(t, order.IsPaid)
	require.NotNil(t, order.PaidAt)
}

func TestPlaceRollsBackWhenAnyLineIsShort(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	inStock := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	soldOut := f.seedProduct(t, "Oak Bench", 120.00, 0)
	identity := &Identity{UserID: uuid.New(), Email: "sam@example.com"}

	_, err := f.service.Place(context.Background(), identity, placeRequest(lineFor(inStock, 2), lineFor(soldOut, 1)))
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, err.Error(), "Oak Bench")

	assert.Equal(t, 5, f.stockOf(t, inStock.ID), "the in-stock line must be restored on rollback")
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.notifier.created)
}

func TestPlaceRejectsUnknownProduct(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	missing := &models.Product{ID: uuid.New(), Price: decimal.NewFromFloat(10.00)}

	_, err := f.service.Place(context.Background(), nil, placeRequest(lineFor(missing, 1)))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestPlaceRejectsTotalMismatch(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)

	req := placeRequest(lineFor(shelf, 2))
	req.Total = decimal.NewFromFloat(1.00)

	_, err := f.service.Place(context.Background(), nil, req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	assert.Equal(t, 5, f.stockOf(t, shelf.ID), "a rejected order must not touch stock")
}

func TestPlaceClearsCartForAuthenticatedShopper(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	ctx := context.Background()
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	identity := &Identity{UserID: uuid.New(), Email: "sam@example.com"}

	require.NoError(t, f.cart.Upsert(ctx, identity.UserID, shelf.ID, 2))

	_, err := f.service.Place(ctx, identity, placeRequest(lineFor(shelf, 2)))
	require.NoError(t, err)

	items, err := f.cart.ListByUser(ctx, identity.UserID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPlaceToleratesMailFailure(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	f.mailer.err = fmt.Errorf("provider unavailable")
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	identity := &Identity{UserID: uuid.New(), Email: "sam@example.com"}

	order, err := f.service.Place(context.Background(), identity, placeRequest(lineFor(shelf, 1)))
	require.NoError(t, err, "a mail outage must never fail a committed order")
	assert.Equal(t, 4, f.stockOf(t, shelf.ID))
	require.Len(t, f.notifier.created, 1)
	assert.NotEqual(t, uuid.Nil, order.ID)
}

func TestPlaceGuestSkipsCartAndNotifications(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)

	order, err := f.service.Place(context.Background(), nil, placeRequest(lineFor(shelf, 1)))
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.notifier.created)
}

func TestGetEnforcesOwnership(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	ctx := context.Background()
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	owner := &Identity{UserID: uuid.New(), Email: "owner@example.com"}

	placed, err := f.service.Place(ctx, owner, placeRequest(lineFor(shelf, 1)))
	require.NoError(t, err)

	_, err = f.service.Get(ctx, uuid.New(), false, placed.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	fromAdmin, err := f.service.Get(ctx, uuid.New(), true, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, fromAdmin.ID)

	fromOwner, err := f.service.Get(ctx, owner.UserID, false, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, fromOwner.ID)
}

func TestMarkDeliveredNotifiesOnceThenConflicts(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	ctx := context.Background()
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 5)
	owner := &Identity{UserID: uuid.New(), Email: "owner@example.com"}

	placed, err := f.service.Place(ctx, owner, placeRequest(lineFor(shelf, 1)))
	require.NoError(t, err)
	f.notifier.created = nil

	delivered, err := f.service.MarkDelivered(ctx, placed.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	require.Len(t, f.notifier.created, 1)
	assert.Equal(t, enums.NotificationOrderDelivered, f.notifier.created[0].kind)

	_, err = f.service.MarkDelivered(ctx, placed.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	_, err = f.service.MarkDelivered(ctx, uuid.New())
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListMinePaginatesWithCursor(t *testing.T) {
	t.Parallel()

	f := newOrderServiceFixture(t)
	ctx := context.Background()
	shelf := f.seedProduct(t, "Oak Shelf", 40.00, 50)
	owner := &Identity{UserID: uuid.New(), Email: "owner@example.com"}

	for i := 0; i < 3; i++ {
		_, err := f.service.Place(ctx, owner, placeRequest(lineFor(shelf, 1)))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := f.service.ListMine(ctx, owner.UserID, ListInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.service.ListMine(ctx, owner.UserID, ListInput{Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)

	_, err = f.service.ListMine(ctx, owner.UserID, ListInput{Pagination: pagination.Params{Limit: 2, Cursor: "not-base64!!"}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
