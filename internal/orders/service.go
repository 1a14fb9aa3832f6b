package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/internal/cart"
	"github.com/oakmart/storefront-backend/internal/products"
	"github.com/oakmart/storefront-backend/pkg/db/models"
	"github.com/oakmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
	"github.com/oakmart/storefront-backend/pkg/logger"
	"github.com/oakmart/storefront-backend/pkg/metrics"
	"github.com/oakmart/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type mailDispatcher interface {
	SendOrderConfirmation(ctx context.Context, to string, order *OrderDTO) error
}

type notificationCreator interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, link *string) error
}

// Identity is the authenticated shopper placing an order. A nil identity
// means guest checkout.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Service defines the behavior needed by the order controllers.
type Service interface {
	Place(ctx context.Context, identity *Identity, req PlaceOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error)
	AdminList(ctx context.Context, input ListInput) (*ListResult, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	tx       txRunner
	repo     *Repository
	products *products.Repository
	cart     *cart.Repository
	mailer   mailDispatcher
	notifier notificationCreator
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Tx           txRunner
	Repo         *Repository
	ProductsRepo *products.Repository
	CartRepo     *cart.Repository
	Mailer       mailDispatcher
	Notifier     notificationCreator
	Logger       *logger.Logger
	Metrics      *metrics.OrderMetrics
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.ProductsRepo == nil {
		return nil, fmt.Errorf("products repository is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		products: params.ProductsRepo,
		cart:     params.CartRepo,
		mailer:   params.Mailer,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Place runs the whole placement as one transaction: stock is taken with
// per-row conditional decrements, the total is recomputed server-side, the
// order and its item snapshots are inserted, and an authenticated shopper's
// cart is cleared. Any failure rolls the whole thing back; confirmation mail
// and the in-app notification happen only after commit and never fail the
// order.
func (s *service) Place(ctx context.Context, identity *Identity, req PlaceOrderRequest) (*OrderDTO, error) {
	if len(req.Items) == 0 {
		s.metrics.IncRejected("empty_order")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range req.Items {
		if line.Qty < 1 {
			s.metrics.IncRejected("invalid_qty")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if line.Price.IsNegative() {
			s.metrics.IncRejected("invalid_price")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}

	computed := decimal.Zero
	for _, line := range req.Items {
		computed = computed.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	if !computed.Equal(req.Total) {
		s.metrics.IncRejected("total_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total does not match item prices").
			WithDetails(map[string]any{"computed_total": computed.String()})
	}

	order := &models.Order{
		TotalAmount:     computed,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   trimmedPtr(req.PaymentMethod),
		PaymentRef:      trimmedPtr(req.PaymentRef),
		Status:          enums.OrderStatusPending,
	}
	if identity != nil {
		userID := identity.UserID
		order.UserID = &userID
	}

	if order.PaymentMethod != nil && order.PaymentRef != nil {
		order.Status = enums.OrderStatusPaid
		order.IsPaid = true
		if req.PaidAt != nil {
			order.PaidAt = req.PaidAt
		} else {
			now := time.Now().UTC()
			order.PaidAt = &now
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsRepo := s.products.WithTx(tx)
		ordersRepo := s.repo.WithTx(tx)

		for _, line := range req.Items {
			product, err := productsRepo.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}

			affected, err := productsRepo.DecrementStock(ctx, line.ProductID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", product.Name)).
					WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
			}

			order.Items = append(order.Items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Qty:       line.Qty,
				UnitPrice: line.Price,
			})
		}

		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		if order.UserID != nil {
			if err := s.cart.WithTx(tx).ClearUser(ctx, *order.UserID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejected(string(typed.Code()))
		} else {
			s.metrics.IncRejected("internal")
		}
		return nil, err
	}

	s.metrics.IncPlaced()
	dto := FromModel(order)
	s.afterPlacement(ctx, identity, dto)
	return dto, nil
}

func (s *service) afterPlacement(ctx context.Context, identity *Identity, order *OrderDTO) {
	if identity == nil {
		return
	}

	if s.mailer != nil && identity.Email != "" {
		if err := s.mailer.SendOrderConfirmation(ctx, identity.Email, order); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.confirmation_mail.failed")
		}
	}

	if s.notifier != nil {
		link := "/orders/" + order.ID.String()
		title := "Order received"
		message := fmt.Sprintf("Your order for %s is confirmed.", order.TotalAmount.StringFixed(2))
		if err := s.notifier.Notify(ctx, identity.UserID, enums.NotificationOrderPlaced, title, message, &link); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.notification.failed")
		}
	}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !isAdmin {
		if order.UserID == nil || *order.UserID != userID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
	}
	return FromModel(order), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListByUser(ctx, userID, input, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildPage(rows, limit), nil
}

func (s *service) AdminList(ctx context.Context, input ListInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListAll(ctx, input, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildPage(rows, limit), nil
}

func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	now := time.Now().UTC()
	affected, err := s.repo.MarkDelivered(ctx, orderID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark delivered")
	}
	if affected == 0 {
		order, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already delivered").
			WithDetails(map[string]any{"delivered_at": order.DeliveredAt})
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}

	if s.notifier != nil && order.UserID != nil {
		link := "/orders/" + order.ID.String()
		if err := s.notifier.Notify(ctx, *order.UserID, enums.NotificationOrderDelivered, "Order delivered",
			"Your order has been delivered.", &link); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.notification.failed")
		}
	}
	return FromModel(order), nil
}

func buildPage(rows []models.Order, limit int) *ListResult {
	result := &ListResult{Orders: make([]OrderDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for i := range rows {
		result.Orders = append(result.Orders, *FromModel(&rows[i]))
	}
	return result
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
