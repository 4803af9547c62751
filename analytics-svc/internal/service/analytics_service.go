package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"quickbite/analytics-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/civiltime"
	"quickbite/pkg/leaderboard"
	"quickbite/pkg/logger"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type AnalyticsService struct {
	reports ReportRepository
	boards  LeaderboardReader
	log     *logger.Logger
}

func NewAnalyticsService(reports ReportRepository, boards LeaderboardReader, log *logger.Logger) *AnalyticsService {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalyticsService{
		reports: reports,
		boards:  boards,
		log:     log.WithComponent("analytics"),
	}
}

// NormalizeLimit maps 0 to DefaultLimit and rejects anything outside [1, MaxLimit].
func NormalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 0 || limit > MaxLimit {
		return 0, apperr.Validation("limit must be between 1 and %d", MaxLimit)
	}
	return limit, nil
}

func (s *AnalyticsService) TopRestaurants(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.reports.TopRestaurants(ctx, limit)
}

func (s *AnalyticsService) TopCustomers(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.reports.TopCustomers(ctx, limit)
}

func (s *AnalyticsService) RestaurantRevenue(ctx context.Context) ([]domain.AccountTotal, error) {
	return s.reports.RestaurantRevenue(ctx)
}

func (s *AnalyticsService) CustomerSpend(ctx context.Context) ([]domain.AccountTotal, error) {
	return s.reports.CustomerSpend(ctx)
}

// RestaurantSummary reads totals from SQL. Revenue comes from the revenue
// leaderboard when it holds the restaurant and from SQL otherwise. Today's
// order count comes from the daily leaderboard and stays 0 when Redis is
// unavailable.
func (s *AnalyticsService) RestaurantSummary(ctx context.Context, restaurantID int64) (*domain.RestaurantSummary, error) {
	summary, err := s.reports.RestaurantSummary(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	revenue, err := s.boards.Score(ctx, leaderboard.RestaurantRevenue, restaurantID)
	switch {
	case err != nil:
		s.log.Warn("revenue leaderboard unavailable, using SQL", "restaurant_id", restaurantID, "error", err)
	case revenue > 0:
		summary.Revenue = decimal.NewFromFloat(revenue).Round(2)
	}

	key := leaderboard.DailyOrders(leaderboard.Day(civiltime.Now()))
	today, err := s.boards.Score(ctx, key, restaurantID)
	if err != nil {
		s.log.Warn("daily leaderboard unavailable", "restaurant_id", restaurantID, "error", err)
	}
	summary.OrdersToday = int64(today)
	return summary, nil
}

func (s *AnalyticsService) RatingDistribution(ctx context.Context, restaurantID int64) (map[string]int64, error) {
	return s.reports.RatingDistribution(ctx, restaurantID)
}

func (s *AnalyticsService) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	return s.reports.Stats(ctx)
}

// top reads a leaderboard and orders it by score, then id, so ties rank the
// same way the SQL reports do. A Redis error is treated like an empty board.
func (s *AnalyticsService) top(ctx context.Context, key string, limit int) []domain.Score {
	scores, err := s.boards.Top(ctx, key, limit)
	if err != nil {
		s.log.Warn("leaderboard unavailable, using SQL", "key", key, "error", err)
		return nil
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].ID < scores[j].ID
	})
	return scores
}

func ids(scores []domain.Score) []int64 {
	out := make([]int64, len(scores))
	for i, sc := range scores {
		out[i] = sc.ID
	}
	return out
}

func (s *AnalyticsService) HomepageRestaurants(ctx context.Context, limit int) ([]domain.PopularRestaurant, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	if scores := s.top(ctx, leaderboard.RestaurantOrders, limit); len(scores) > 0 {
		found, err := s.reports.RestaurantsByID(ctx, ids(scores))
		if err != nil {
			return nil, err
		}
		popular := make([]domain.PopularRestaurant, 0, len(scores))
		for _, sc := range scores {
			p, ok := found[sc.ID]
			if !ok {
				continue
			}
			p.Orders = int64(sc.Value)
			popular = append(popular, p)
		}
		if len(popular) > 0 {
			return popular, nil
		}
	}
	return s.reports.PopularRestaurants(ctx, limit)
}

func (s *AnalyticsService) HomepageMenuItems(ctx context.Context, limit int) ([]domain.PopularMenuItem, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	if scores := s.top(ctx, leaderboard.MenuItemOrders, limit); len(scores) > 0 {
		found, err := s.reports.MenuItemsByID(ctx, ids(scores))
		if err != nil {
			return nil, err
		}
		popular := make([]domain.PopularMenuItem, 0, len(scores))
		for _, sc := range scores {
			p, ok := found[sc.ID]
			if !ok {
				continue
			}
			p.Ordered = int64(sc.Value)
			popular = append(popular, p)
		}
		if len(popular) > 0 {
			return popular, nil
		}
	}
	return s.reports.PopularMenuItems(ctx, limit)
}
