package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"quickbite/analytics-svc/internal/domain"
)

// Leaderboards reads the sorted sets agg-svc maintains.
type Leaderboards struct {
	rdb *redis.Client
}

func NewLeaderboards(rdb *redis.Client) *Leaderboards {
	return &Leaderboards{rdb: rdb}
}

// Top returns up to n members by descending score, breaking ties by
// ascending id. Every member tied with the nth score is read before the cut
// so the tie break does not depend on Redis's member ordering. Members that
// are not numeric ids are skipped.
func (l *Leaderboards) Top(ctx context.Context, key string, n int) ([]domain.Score, error) {
	if n <= 0 {
		return nil, nil
	}
	nth, err := l.rdb.ZRevRangeWithScores(ctx, key, int64(n-1), int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var result []redis.Z
	if len(nth) == 0 {
		result, err = l.rdb.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	} else {
		result, err = l.rdb.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min: strconv.FormatFloat(nth[0].Score, 'f', -1, 64),
			Max: "+inf",
		}).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	scores := make([]domain.Score, 0, len(result))
	for _, z := range result {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		scores = append(scores, domain.Score{ID: id, Value: z.Score})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].ID < scores[j].ID
	})
	if len(scores) > n {
		scores = scores[:n]
	}
	return scores, nil
}

// Score is 0 for a member the board does not hold.
func (l *Leaderboards) Score(ctx context.Context, key string, id int64) (float64, error) {
	score, err := l.rdb.ZScore(ctx, key, strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return score, nil
}
