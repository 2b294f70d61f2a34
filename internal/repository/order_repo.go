package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"quickgrocery/internal/model"
)

// OrderFilter narrows FindAll. Zero values mean "any".
type OrderFilter struct {
	Status model.OrderStatus
	UserID string
	Since  time.Time
}

type OrderRepository interface {
	FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	FindByID(ctx context.Context, id string) (*model.Order, error)
	// UpdateStatus moves the order from one status to another only if it is still in from.
	// A lost race returns ErrConflict; a missing order returns ErrNotFound.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id ASC")
}

func (r *orderRepo) FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.WithContext(ctx).Preload("Items", preloadItems).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
