package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const reservedMarker = "reserved"

// PendingPushes tracks STK pushes awaiting a gateway callback: one marker per
// order (value = checkout id) and one per checkout id (value = reference).
type PendingPushes struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPendingPushes(client *redis.Client, ttl time.Duration) *PendingPushes {
	return &PendingPushes{Client: client, TTL: ttl}
}

func (c *PendingPushes) orderKey(orderID int64) string {
	return "mpesa:pending:order:" + strconv.FormatInt(orderID, 10)
}

func (c *PendingPushes) checkoutKey(checkoutID string) string {
	return "mpesa:pending:checkout:" + checkoutID
}

// Reserve claims the order's push slot. False means a push is already in flight.
func (c *PendingPushes) Reserve(ctx context.Context, orderID int64) (bool, error) {
	return c.Client.SetNX(ctx, c.orderKey(orderID), reservedMarker, c.TTL).Result()
}

func (c *PendingPushes) Attach(ctx context.Context, orderID int64, checkoutID, reference string) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.orderKey(orderID), checkoutID, c.TTL)
		pipe.Set(ctx, c.checkoutKey(checkoutID), reference, c.TTL)
		return nil
	})
	return err
}

func (c *PendingPushes) Release(ctx context.Context, orderID int64) error {
	return c.Client.Del(ctx, c.orderKey(orderID)).Err()
}

// Pending reports whether the order's push slot is held.
func (c *PendingPushes) Pending(ctx context.Context, orderID int64) (bool, error) {
	n, err := c.Client.Exists(ctx, c.orderKey(orderID)).Result()
	return n > 0, err
}

// Lookup returns the order reference remembered for checkoutID, or "".
func (c *PendingPushes) Lookup(ctx context.Context, checkoutID string) (string, error) {
	ref, err := c.Client.Get(ctx, c.checkoutKey(checkoutID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return ref, err
}

func (c *PendingPushes) Clear(ctx context.Context, orderID int64, checkoutID string) error {
	return c.Client.Del(ctx, c.orderKey(orderID), c.checkoutKey(checkoutID)).Err()
}
