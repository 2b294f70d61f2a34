package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"quickgrocery/internal/model"
)

// OrderSummary is the order count and revenue over a window.
type OrderSummary struct {
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductSales aggregates order lines by product name.
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type StatsRepository interface {
	// OrderSummary covers orders created at or after since; a zero since means all time.
	OrderSummary(ctx context.Context, since time.Time) (OrderSummary, error)
	StatusCounts(ctx context.Context) (map[model.OrderStatus]int64, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	ProductCount(ctx context.Context) (int64, error)
	LowStockCount(ctx context.Context, threshold int) (int64, error)
	// FrequentProducts ranks the products in the user's last `orders` delivered orders by how
	// many of those orders contain them, ties broken by product id.
	FrequentProducts(ctx context.Context, userID string, orders, limit int) ([]string, error)
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

func (r *statsRepo) OrderSummary(ctx context.Context, since time.Time) (OrderSummary, error) {
	var row struct {
		Orders  int64
		Revenue decimal.Decimal
	}
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Scan(&row).Error; err != nil {
		return OrderSummary{}, translateError(err)
	}
	return OrderSummary{Orders: row.Orders, Revenue: row.Revenue}, nil
}

func (r *statsRepo) StatusCounts(ctx context.Context) (map[model.OrderStatus]int64, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*)").
		Group("status").
		Rows()
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.OrderStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *statsRepo) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var results []ProductSales
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Select("name, SUM(quantity) AS quantity").
		Group("name").
		Order("quantity DESC, name ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, translateError(err)
	}
	return results, nil
}

func (r *statsRepo) ProductCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, translateError(err)
}

func (r *statsRepo) LowStockCount(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("stock_count < ?", threshold).Count(&n).Error
	return n, translateError(err)
}

func (r *statsRepo) FrequentProducts(ctx context.Context, userID string, orders, limit int) ([]string, error) {
	recent := r.db.Model(&model.Order{}).
		Select("id").
		Where("user_id = ? AND status = ?", userID, model.StatusDelivered).
		Order("created_at DESC").
		Limit(orders)

	var ids []string
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Select("product_id").
		Where("order_id IN (?)", recent).
		Group("product_id").
		Order("COUNT(DISTINCT order_id) DESC, product_id ASC").
		Limit(limit).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}
