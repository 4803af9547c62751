// Package session keeps server-side sessions in Redis and threads the
// authenticated principal through the request context.
package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRestaurant Role = "restaurant"
	RoleCustomer   Role = "customer"
	RoleAgent      Role = "agent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRestaurant, RoleCustomer, RoleAgent:
		return true
	}
	return false
}

// Principal is what a session resolves to.
type Principal struct {
	ActorID int64 `json:"actor_id"`
	Role    Role  `json:"role"`
}

var ErrNoSession = errors.New("session not found")

type Store interface {
	Create(ctx context.Context, p Principal) (string, error)
	Get(ctx context.Context, token string) (Principal, error)
	Delete(ctx context.Context, token string) error
}

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

// Key stores only a digest of the token so a Redis dump cannot be replayed.
func (s *RedisStore) Key(token string) string {
	sum := blake3.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

func (s *RedisStore) Create(ctx context.Context, p Principal) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if err := s.Client.Set(ctx, s.Key(token), payload, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (Principal, error) {
	var p Principal
	if token == "" {
		return p, ErrNoSession
	}
	raw, err := s.Client.Get(ctx, s.Key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return p, ErrNoSession
	}
	if err != nil {
		return p, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, ErrNoSession
	}
	return p, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Client.Del(ctx, s.Key(token)).Err()
}

var _ Store = (*RedisStore)(nil)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
