package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickbite/analytics-svc/internal/domain"
	"quickbite/analytics-svc/internal/mocks"
	"quickbite/analytics-svc/internal/service"
	"quickbite/pkg/apperr"
	"quickbite/pkg/leaderboard"
)

func newAnalytics() (*service.AnalyticsService, *mocks.ReportRepository, *mocks.LeaderboardReader) {
	reports := new(mocks.ReportRepository)
	boards := new(mocks.LeaderboardReader)
	return service.NewAnalyticsService(reports, boards, nil), reports, boards
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		want     int
		wantKind apperr.Kind
	}{
		{name: "default", limit: 0, want: service.DefaultLimit},
		{name: "explicit", limit: 3, want: 3},
		{name: "max", limit: service.MaxLimit, want: service.MaxLimit},
		{name: "negative", limit: -1, wantKind: apperr.KindValidation},
		{name: "too large", limit: service.MaxLimit + 1, wantKind: apperr.KindValidation},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := service.NormalizeLimit(testCase.limit)
			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestAnalyticsService_TopRestaurants(t *testing.T) {
	svc, reports, _ := newAnalytics()
	ranked := []domain.RankedAccount{{ID: 1, Name: "Mama Oliech", Orders: 4}, {ID: 2, Name: "Java", Orders: 4}}
	reports.On("TopRestaurants", mock.Anything, service.DefaultLimit).Return(ranked, nil).Once()

	got, err := svc.TopRestaurants(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, ranked, got)

	_, err = svc.TopCustomers(context.Background(), -5)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	reports.AssertExpectations(t)
}

func TestAnalyticsService_RestaurantSummary(t *testing.T) {
	daily := mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "analytics:daily:") })

	tests := []struct {
		name        string
		setup       func(*mocks.ReportRepository, *mocks.LeaderboardReader)
		wantToday   int64
		wantRevenue string
		wantErr     bool
	}{
		{
			name: "revenue and daily counter from leaderboards",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				reports.On("RestaurantSummary", mock.Anything, int64(10)).
					Return(&domain.RestaurantSummary{RestaurantID: 10, Orders: 5, PaidOrders: 3, Revenue: decimal.NewFromInt(3900)}, nil).Once()
				boards.On("Score", mock.Anything, leaderboard.RestaurantRevenue, int64(10)).Return(4250.5, nil).Once()
				boards.On("Score", mock.Anything, daily, int64(10)).Return(2.0, nil).Once()
			},
			wantToday:   2,
			wantRevenue: "4250.5",
		},
		{
			name: "restaurant missing from revenue board uses sql",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				reports.On("RestaurantSummary", mock.Anything, int64(10)).
					Return(&domain.RestaurantSummary{RestaurantID: 10, Orders: 5, PaidOrders: 3, Revenue: decimal.NewFromInt(3900)}, nil).Once()
				boards.On("Score", mock.Anything, leaderboard.RestaurantRevenue, int64(10)).Return(0.0, nil).Once()
				boards.On("Score", mock.Anything, daily, int64(10)).Return(1.0, nil).Once()
			},
			wantToday:   1,
			wantRevenue: "3900",
		},
		{
			name: "redis down keeps sql totals",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				reports.On("RestaurantSummary", mock.Anything, int64(10)).
					Return(&domain.RestaurantSummary{RestaurantID: 10, Orders: 5, Revenue: decimal.NewFromInt(1300)}, nil).Once()
				boards.On("Score", mock.Anything, mock.Anything, int64(10)).Return(0.0, errors.New("connection refused")).Twice()
			},
			wantRevenue: "1300",
		},
		{
			name: "sql failure",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				reports.On("RestaurantSummary", mock.Anything, int64(10)).Return(nil, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			svc, reports, boards := newAnalytics()
			testCase.setup(reports, boards)

			got, err := svc.RestaurantSummary(context.Background(), 10)
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(5), got.Orders)
				assert.Equal(t, testCase.wantToday, got.OrdersToday)
				assert.Equal(t, testCase.wantRevenue, got.Revenue.String())
			}
			reports.AssertExpectations(t)
			boards.AssertExpectations(t)
		})
	}
}

func TestAnalyticsService_HomepageRestaurants(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mocks.ReportRepository, *mocks.LeaderboardReader)
		wantIDs []int64
	}{
		{
			name: "from leaderboard with ties by id",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				boards.On("Top", mock.Anything, leaderboard.RestaurantOrders, 10).
					Return([]domain.Score{{ID: 12, Value: 3}, {ID: 11, Value: 3}, {ID: 13, Value: 5}}, nil).Once()
				reports.On("RestaurantsByID", mock.Anything, []int64{13, 11, 12}).
					Return(map[int64]domain.PopularRestaurant{
						11: {ID: 11, Name: "B"},
						12: {ID: 12, Name: "C"},
						13: {ID: 13, Name: "A"},
					}, nil).Once()
			},
			wantIDs: []int64{13, 11, 12},
		},
		{
			name: "deleted restaurants skipped",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				boards.On("Top", mock.Anything, leaderboard.RestaurantOrders, 10).
					Return([]domain.Score{{ID: 11, Value: 4}, {ID: 99, Value: 2}}, nil).Once()
				reports.On("RestaurantsByID", mock.Anything, []int64{11, 99}).
					Return(map[int64]domain.PopularRestaurant{11: {ID: 11}}, nil).Once()
			},
			wantIDs: []int64{11},
		},
		{
			name: "empty board falls back to sql",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				boards.On("Top", mock.Anything, leaderboard.RestaurantOrders, 10).Return([]domain.Score{}, nil).Once()
				reports.On("PopularRestaurants", mock.Anything, 10).
					Return([]domain.PopularRestaurant{{ID: 20, Orders: 1}}, nil).Once()
			},
			wantIDs: []int64{20},
		},
		{
			name: "redis error falls back to sql",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				boards.On("Top", mock.Anything, leaderboard.RestaurantOrders, 10).Return(nil, errors.New("timeout")).Once()
				reports.On("PopularRestaurants", mock.Anything, 10).
					Return([]domain.PopularRestaurant{{ID: 21}}, nil).Once()
			},
			wantIDs: []int64{21},
		},
		{
			name: "stale board falls back to sql",
			setup: func(reports *mocks.ReportRepository, boards *mocks.LeaderboardReader) {
				boards.On("Top", mock.Anything, leaderboard.RestaurantOrders, 10).
					Return([]domain.Score{{ID: 99, Value: 2}}, nil).Once()
				reports.On("RestaurantsByID", mock.Anything, []int64{99}).
					Return(map[int64]domain.PopularRestaurant{}, nil).Once()
				reports.On("PopularRestaurants", mock.Anything, 10).Return([]domain.PopularRestaurant{}, nil).Once()
			},
			wantIDs: []int64{},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			svc, reports, boards := newAnalytics()
			testCase.setup(reports, boards)

			got, err := svc.HomepageRestaurants(context.Background(), 0)
			require.NoError(t, err)
			gotIDs := []int64{}
			for _, r := range got {
				gotIDs = append(gotIDs, r.ID)
			}
			assert.Equal(t, testCase.wantIDs, gotIDs)
			reports.AssertExpectations(t)
			boards.AssertExpectations(t)
		})
	}
}

func TestAnalyticsService_HomepageMenuItems(t *testing.T) {
	svc, reports, boards := newAnalytics()
	boards.On("Top", mock.Anything, leaderboard.MenuItemOrders, 5).
		Return([]domain.Score{{ID: 1, Value: 7}, {ID: 2, Value: 3}}, nil).Once()
	reports.On("MenuItemsByID", mock.Anything, []int64{1, 2}).
		Return(map[int64]domain.PopularMenuItem{
			1: {ID: 1, Name: "Pilau", UnitPrice: decimal.NewFromInt(500)},
			2: {ID: 2, Name: "Chapati", UnitPrice: decimal.NewFromInt(50)},
		}, nil).Once()

	got, err := svc.HomepageMenuItems(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pilau", got[0].Name)
	assert.Equal(t, int64(7), got[0].Ordered)
	assert.Equal(t, int64(3), got[1].Ordered)
	reports.AssertExpectations(t)
	boards.AssertExpectations(t)
}
