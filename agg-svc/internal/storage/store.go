package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"quickbite/agg-svc/internal/domain"
	"quickbite/pkg/leaderboard"
)

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func Key(inc domain.Increment) (string, error) {
	switch inc.Board {
	case domain.BoardRestaurantOrders:
		return leaderboard.RestaurantOrders, nil
	case domain.BoardMenuItemOrders:
		return leaderboard.MenuItemOrders, nil
	case domain.BoardRestaurantRevenue:
		return leaderboard.RestaurantRevenue, nil
	case domain.BoardDailyOrders:
		if inc.Day == "" {
			return "", fmt.Errorf("daily increment without a day")
		}
		return leaderboard.DailyOrders(inc.Day), nil
	}
	return "", fmt.Errorf("unknown board %q", inc.Board)
}

// Apply runs every increment in one MULTI/EXEC. Members that drop to zero or
// below are removed so the boards only rank live entries.
func (s *Store) Apply(ctx context.Context, incs []domain.Increment) error {
	keys := make([]string, len(incs))
	for i, inc := range incs {
		key, err := Key(inc)
		if err != nil {
			return err
		}
		keys[i] = key
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, inc := range incs {
			pipe.ZIncrBy(ctx, keys[i], inc.By, strconv.FormatInt(inc.Member, 10))
			if inc.Board == domain.BoardDailyOrders {
				pipe.Expire(ctx, keys[i], leaderboard.DailyTTL)
			}
			if inc.By < 0 {
				pipe.ZRemRangeByScore(ctx, keys[i], "-inf", "0")
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply increments: %w", err)
	}
	return nil
}
