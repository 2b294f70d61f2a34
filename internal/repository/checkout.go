package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quickgrocery/internal/model"
)

// CheckoutStore runs the order placement transaction. Every read and write made through
// the CheckoutTx handed to fn commits or rolls back together.
type CheckoutStore interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error
}

type CheckoutTx interface {
	// GetProduct reads a product and holds it against concurrent checkouts until commit.
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateOrder(ctx context.Context, order *model.Order) error
	// DecrementStock removes qty units only if at least qty are still available.
	// It returns ErrConflict otherwise.
	DecrementStock(ctx context.Context, id string, qty int) error
}

type checkoutStore struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewCheckoutStore(db *gorm.DB, lockTimeout time.Duration) CheckoutStore {
	return &checkoutStore{db: db, lockTimeout: lockTimeout}
}

func (s *checkoutStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(ctx, &gormCheckoutTx{tx: tx})
	})
	return translateError(err)
}

type gormCheckoutTx struct {
	tx *gorm.DB
}

func (t *gormCheckoutTx) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := t.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (t *gormCheckoutTx) CreateOrder(ctx context.Context, order *model.Order) error {
	return translateError(t.tx.WithContext(ctx).Create(order).Error)
}

func (t *gormCheckoutTx) DecrementStock(ctx context.Context, id string, qty int) error {
	res := t.tx.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock_count >= ?", id, qty).
		UpdateColumns(map[string]interface{}{
			"stock_count": gorm.Expr("GREATEST(stock_count - ?, 0)", qty),
			"stock":       gorm.Expr("GREATEST(stock_count - ?, 0) > 0", qty),
			"updated_at":  gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
