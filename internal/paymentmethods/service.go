package paymentmethods

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the behavior needed by the payment method controllers.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]MethodDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*MethodDTO, error)
	SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*MethodDTO, error)
	Delete(ctx context.Context, userID, methodID uuid.UUID) error
}

type service struct {
	tx   txRunner
	repo *Repository
}

// NewService constructs a payment method service.
func NewService(tx txRunner, repo *Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payment methods repository is required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]MethodDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment methods")
	}
	out := make([]MethodDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Create vaults the instrument metadata. The first method is always the
// default; an explicit default demotes the previous one in the same tx. The
// gateway reference is unique across all users so a replayed vault call
// surfaces as a conflict instead of a duplicate row.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*MethodDTO, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method type")
	}
	gatewayRef := strings.TrimSpace(req.GatewayRef)
	if gatewayRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway reference is required")
	}

	method := &models.PaymentMethod{
		UserID:     userID,
		Type:       req.Type,
		Brand:      trimmedPtr(req.Brand),
		Last4:      trimmedPtr(req.Last4),
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		GatewayRef: gatewayRef,
		IsDefault:  req.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		count, err := txRepo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			method.IsDefault = true
		} else if method.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, method)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment method already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment method")
	}
	return FromModel(method), nil
}

func (s *service) SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*MethodDTO, error) {
	var updated *MethodDTO

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		method, err := txRepo.FindByID(ctx, userID, methodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
			}
			return err
		}
		if !method.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
			method.IsDefault = true
			if err := txRepo.Save(ctx, method); err != nil {
				return err
			}
		}
		updated = FromModel(method)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default payment method")
	}
	return updated, nil
}

// Delete removes the method and, when the default goes away, promotes the
// oldest remaining one.
func (s *service) Delete(ctx context.Context, userID, methodID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		method, err := txRepo.FindByID(ctx, userID, methodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
			}
			return err
		}

		if _, err := txRepo.Delete(ctx, userID, methodID); err != nil {
			return err
		}

		if !method.IsDefault {
			return nil
		}

		oldest, err := txRepo.OldestByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		oldest.IsDefault = true
		return txRepo.Save(ctx, oldest)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete payment method")
	}
	return nil
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
