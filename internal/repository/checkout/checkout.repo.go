package checkout

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/common/models"
	database "storefront-checkout/internal/pkg/db"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("checkout attempt not found")

type IRepository interface {
	Create(ctx context.Context, attempt *models.CheckoutAttempt) error
	FindByID(ctx context.Context, id string) (*models.CheckoutAttempt, error)
	FindByOrderID(ctx context.Context, orderID int64) (*models.CheckoutAttempt, error)
	FindByUser(ctx context.Context, userID int64, limit int) ([]models.CheckoutAttempt, error)
	Update(ctx context.Context, id string, updates map[string]any) error
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID int64) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindByUser lists the newest attempts of a user first.
func (r *Repository) FindByUser(ctx context.Context, userID int64, limit int) ([]models.CheckoutAttempt, error) {
	var attempts []models.CheckoutAttempt
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *Repository) Update(ctx context.Context, id string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.CheckoutAttempt{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
