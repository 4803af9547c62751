package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"quickbite/analytics-svc/internal/domain"
)

type ReportRepository struct {
	mock.Mock
}

func (m *ReportRepository) TopRestaurants(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	args := m.Called(ctx, limit)
	ranked, _ := args.Get(0).([]domain.RankedAccount)
	return ranked, args.Error(1)
}

func (m *ReportRepository) TopCustomers(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	args := m.Called(ctx, limit)
	ranked, _ := args.Get(0).([]domain.RankedAccount)
	return ranked, args.Error(1)
}

func (m *ReportRepository) RestaurantRevenue(ctx context.Context) ([]domain.AccountTotal, error) {
	args := m.Called(ctx)
	totals, _ := args.Get(0).([]domain.AccountTotal)
	return totals, args.Error(1)
}

func (m *ReportRepository) CustomerSpend(ctx context.Context) ([]domain.AccountTotal, error) {
	args := m.Called(ctx)
	totals, _ := args.Get(0).([]domain.AccountTotal)
	return totals, args.Error(1)
}

func (m *ReportRepository) RestaurantSummary(ctx context.Context, restaurantID int64) (*domain.RestaurantSummary, error) {
	args := m.Called(ctx, restaurantID)
	summary, _ := args.Get(0).(*domain.RestaurantSummary)
	return summary, args.Error(1)
}

func (m *ReportRepository) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*domain.PlatformStats)
	return stats, args.Error(1)
}

func (m *ReportRepository) RestaurantsByID(ctx context.Context, ids []int64) (map[int64]domain.PopularRestaurant, error) {
	args := m.Called(ctx, ids)
	found, _ := args.Get(0).(map[int64]domain.PopularRestaurant)
	return found, args.Error(1)
}

func (m *ReportRepository) MenuItemsByID(ctx context.Context, ids []int64) (map[int64]domain.PopularMenuItem, error) {
	args := m.Called(ctx, ids)
	found, _ := args.Get(0).(map[int64]domain.PopularMenuItem)
	return found, args.Error(1)
}

func (m *ReportRepository) PopularRestaurants(ctx context.Context, limit int) ([]domain.PopularRestaurant, error) {
	args := m.Called(ctx, limit)
	popular, _ := args.Get(0).([]domain.PopularRestaurant)
	return popular, args.Error(1)
}

func (m *ReportRepository) PopularMenuItems(ctx context.Context, limit int) ([]domain.PopularMenuItem, error) {
	args := m.Called(ctx, limit)
	popular, _ := args.Get(0).([]domain.PopularMenuItem)
	return popular, args.Error(1)
}

type LeaderboardReader struct {
	mock.Mock
}

func (m *LeaderboardReader) Top(ctx context.Context, key string, n int) ([]domain.Score, error) {
	args := m.Called(ctx, key, n)
	scores, _ := args.Get(0).([]domain.Score)
	return scores, args.Error(1)
}

func (m *LeaderboardReader) Score(ctx context.Context, key string, id int64) (float64, error) {
	args := m.Called(ctx, key, id)
	return args.Get(0).(float64), args.Error(1)
}

type AnalyticsInterface struct {
	mock.Mock
}

func (m *AnalyticsInterface) TopRestaurants(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	args := m.Called(ctx, limit)
	ranked, _ := args.Get(0).([]domain.RankedAccount)
	return ranked, args.Error(1)
}

func (m *AnalyticsInterface) TopCustomers(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	args := m.Called(ctx, limit)
	ranked, _ := args.Get(0).([]domain.RankedAccount)
	return ranked, args.Error(1)
}

func (m *AnalyticsInterface) RestaurantRevenue(ctx context.Context) ([]domain.AccountTotal, error) {
	args := m.Called(ctx)
	totals, _ := args.Get(0).([]domain.AccountTotal)
	return totals, args.Error(1)
}

func (m *AnalyticsInterface) CustomerSpend(ctx context.Context) ([]domain.AccountTotal, error) {
	args := m.Called(ctx)
	totals, _ := args.Get(0).([]domain.AccountTotal)
	return totals, args.Error(1)
}

func (m *AnalyticsInterface) RestaurantSummary(ctx context.Context, restaurantID int64) (*domain.RestaurantSummary, error) {
	args := m.Called(ctx, restaurantID)
	summary, _ := args.Get(0).(*domain.RestaurantSummary)
	return summary, args.Error(1)
}

func (m *AnalyticsInterface) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*domain.PlatformStats)
	return stats, args.Error(1)
}

func (m *AnalyticsInterface) HomepageRestaurants(ctx context.Context, limit int) ([]domain.PopularRestaurant, error) {
	args := m.Called(ctx, limit)
	popular, _ := args.Get(0).([]domain.PopularRestaurant)
	return popular, args.Error(1)
}

func (m *AnalyticsInterface) HomepageMenuItems(ctx context.Context, limit int) ([]domain.PopularMenuItem, error) {
	args := m.Called(ctx, limit)
	popular, _ := args.Get(0).([]domain.PopularMenuItem)
	return popular, args.Error(1)
}

func (m *ReportRepository) RatingDistribution(ctx context.Context, restaurantID int64) (map[string]int64, error) {
	args := m.Called(ctx, restaurantID)
	distribution, _ := args.Get(0).(map[string]int64)
	return distribution, args.Error(1)
}

func (m *AnalyticsInterface) RatingDistribution(ctx context.Context, restaurantID int64) (map[string]int64, error) {
	args := m.Called(ctx, restaurantID)
	distribution, _ := args.Get(0).(map[string]int64)
	return distribution, args.Error(1)
}
