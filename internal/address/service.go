package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the behavior needed by the address controllers.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*AddressDTO, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, req UpdateRequest) (*AddressDTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	tx   txRunner
	repo *Repository
}

// NewService constructs an address service.
func NewService(tx txRunner, repo *Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository is required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Create inserts the address. The first address in the book always becomes
// the default; an explicit default clears the previous one in the same tx.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*AddressDTO, error) {
	addr := modelFromCreate(userID, req)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		count, err := txRepo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			addr.IsDefault = true
		} else if addr.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, addr)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return FromModel(addr), nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, req UpdateRequest) (*AddressDTO, error) {
	var updated *AddressDTO

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		addr, err := txRepo.FindByID(ctx, userID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return err
		}

		applyUpdate(addr, req)

		if req.IsDefault != nil && *req.IsDefault && !addr.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
			addr.IsDefault = true
		}

		if err := txRepo.Save(ctx, addr); err != nil {
			return err
		}
		updated = FromModel(addr)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return updated, nil
}

// Delete removes the address. When the default goes away the oldest remaining
// address is promoted so the book never lacks a default while non-empty.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		addr, err := txRepo.FindByID(ctx, userID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return err
		}

		if _, err := txRepo.Delete(ctx, userID, addressID); err != nil {
			return err
		}

		if !addr.IsDefault {
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
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

func modelFromCreate(userID uuid.UUID, req CreateRequest) *models.Address {
	return &models.Address{
		UserID:     userID,
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      trimmedPtr(req.Line2),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(req.Country)),
		Phone:      trimmedPtr(req.Phone),
		IsDefault:  req.IsDefault,
	}
}

func applyUpdate(addr *models.Address, req UpdateRequest) {
	if req.Line1 != nil {
		addr.Line1 = strings.TrimSpace(*req.Line1)
	}
	if req.Line2 != nil {
		addr.Line2 = trimmedPtr(req.Line2)
	}
	if req.City != nil {
		addr.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		addr.State = strings.TrimSpace(*req.State)
	}
	if req.PostalCode != nil {
		addr.PostalCode = strings.TrimSpace(*req.PostalCode)
	}
	if req.Country != nil {
		addr.Country = strings.ToUpper(strings.TrimSpace(*req.Country))
	}
	if req.Phone != nil {
		addr.Phone = trimmedPtr(req.Phone)
	}
	if req.IsDefault != nil && !*req.IsDefault {
		addr.IsDefault = false
	}
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
