package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
)

// Repository exposes address book persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new address row.
func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(addr).Error
}

// FindByID loads a user's address; the user scope keeps lookups tenant-safe.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).
		First(&addr, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// ListByUser returns all addresses for the user, default first then oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByUser reports how many addresses the user has.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ClearDefault unsets the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// Save persists changes on an already-loaded address.
func (r *Repository) Save(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Save(addr).Error
}

// Delete removes a user's address and reports whether a row was hit.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	return result.RowsAffected, result.Error
}

// OldestByUser returns the earliest-created address for the user, or
// gorm.ErrRecordNotFound when the book is empty.
func (r *Repository) OldestByUser(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}
