package service

import (
	"context"

	"quickbite/analytics-svc/internal/domain"
	"quickbite/analytics-svc/internal/storage"
)

type ReportRepository interface {
	TopRestaurants(ctx context.Context, limit int) ([]domain.RankedAccount, error)
	TopCustomers(ctx context.Context, limit int) ([]domain.RankedAccount, error)
	RestaurantRevenue(ctx context.Context) ([]domain.AccountTotal, error)
	CustomerSpend(ctx context.Context) ([]domain.AccountTotal, error)
	RestaurantSummary(ctx context.Context, restaurantID int64) (*domain.RestaurantSummary, error)
	Stats(ctx context.Context) (*domain.PlatformStats, error)
	RestaurantsByID(ctx context.Context, ids []int64) (map[int64]domain.PopularRestaurant, error)
	MenuItemsByID(ctx context.Context, ids []int64) (map[int64]domain.PopularMenuItem, error)
	PopularRestaurants(ctx context.Context, limit int) ([]domain.PopularRestaurant, error)
	PopularMenuItems(ctx context.Context, limit int) ([]domain.PopularMenuItem, error)
	RatingDistribution(ctx context.Context, restaurantID int64) (map[string]int64, error)
}

type LeaderboardReader interface {
	Top(ctx context.Context, key string, n int) ([]domain.Score, error)
	Score(ctx context.Context, key string, id int64) (float64, error)
}

type AnalyticsInterface interface {
	TopRestaurants(ctx context.Context, limit int) ([]domain.RankedAccount, error)
	TopCustomers(ctx context.Context, limit int) ([]domain.RankedAccount, error)
	RestaurantRevenue(ctx context.Context) ([]domain.AccountTotal, error)
	CustomerSpend(ctx context.Context) ([]domain.AccountTotal, error)
	RestaurantSummary(ctx context.Context, restaurantID int64) (*domain.RestaurantSummary, error)
	Stats(ctx context.Context) (*domain.PlatformStats, error)
	HomepageRestaurants(ctx context.Context, limit int) ([]domain.PopularRestaurant, error)
	HomepageMenuItems(ctx context.Context, limit int) ([]domain.PopularMenuItem, error)
	RatingDistribution(ctx context.Context, restaurantID int64) (map[string]int64, error)
}

var (
	_ ReportRepository   = (*storage.ReportRepository)(nil)
	_ LeaderboardReader  = (*storage.Leaderboards)(nil)
	_ AnalyticsInterface = (*AnalyticsService)(nil)
)
