package service

import (
	"context"
	"time"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

const topProductsLimit = 5

type DashboardStats struct {
	Today         repository.OrderSummary     `json:"today"`
	LastSevenDays repository.OrderSummary     `json:"last_7_days"`
	MonthToDate   repository.OrderSummary     `json:"month_to_date"`
	AllTime       repository.OrderSummary     `json:"all_time"`
	StatusCounts  map[model.OrderStatus]int64 `json:"status_counts"`
	TopProducts   []repository.ProductSales   `json:"top_products"`
	TotalProducts int64                       `json:"total_products"`
	LowStockCount int64                       `json:"low_stock_count"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	statsRepo repository.StatsRepository
	now       func() time.Time
}

func NewDashboardService(statsRepo repository.StatsRepository, now func() time.Time) DashboardService {
	if now == nil {
		now = time.Now
	}
	return &dashboardService{statsRepo: statsRepo, now: now}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		stats DashboardStats
		err   error
	)
	if stats.Today, err = s.statsRepo.OrderSummary(ctx, today); err != nil {
		return nil, err
	}
	if stats.LastSevenDays, err = s.statsRepo.OrderSummary(ctx, weekAgo); err != nil {
		return nil, err
	}
	if stats.MonthToDate, err = s.statsRepo.OrderSummary(ctx, monthStart); err != nil {
		return nil, err
	}
	if stats.AllTime, err = s.statsRepo.OrderSummary(ctx, time.Time{}); err != nil {
		return nil, err
	}
	if stats.StatusCounts, err = s.statsRepo.StatusCounts(ctx); err != nil {
		return nil, err
	}
	if stats.TopProducts, err = s.statsRepo.TopProducts(ctx, topProductsLimit); err != nil {
		return nil, err
	}
	if stats.TotalProducts, err = s.statsRepo.ProductCount(ctx); err != nil {
		return nil, err
	}
	if stats.LowStockCount, err = s.statsRepo.LowStockCount(ctx, model.LowStockThreshold); err != nil {
		return nil, err
	}
	return &stats, nil
}
