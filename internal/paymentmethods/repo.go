package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakmart/storefront-backend/pkg/db/models"
)

// Repository exposes payment method persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment methods repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new payment method row.
func (r *Repository) Create(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(method).Error
}

// FindByID loads a user's payment method.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).
		First(&method, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// ListByUser returns the user's payment methods, default first then oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByUser reports how many methods the user has vaulted.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ClearDefault unsets the default flag on every method of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// Save persists changes on an already-loaded method.
func (r *Repository) Save(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Save(method).Error
}

// Delete removes a user's method and reports whether a row was hit.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.PaymentMethod{})
	return result.RowsAffected, result.Error
}

// OldestByUser returns the earliest-created method for the user.
func (r *Repository) OldestByUser(ctx context.Context, userID uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}
