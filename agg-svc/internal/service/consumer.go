package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"quickbite/agg-svc/internal/domain"
	"quickbite/pkg/civiltime"
	"quickbite/pkg/events"
	"quickbite/pkg/leaderboard"
	"quickbite/pkg/logger"
)

type Consumer struct {
	Reader MessageReader
	Store  StoreInterface
	Log    *logger.Logger
}

func NewConsumer(reader MessageReader, store StoreInterface, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{
		Reader: reader,
		Store:  store,
		Log:    log,
	}
}

// Start reads until ctx is cancelled or the reader is closed. Bad payloads
// and store failures are logged and skipped so one message cannot stall the
// partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.Log.Info("aggregation consumer starting")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.Log.Info("aggregation consumer stopped")
				return nil
			}
			c.Log.Error("read message", "error", err)
			continue
		}

		var msg events.Message
		if err := json.Unmarshal(message.Value, &msg); err != nil {
			c.Log.Warn("unmarshal message", "offset", message.Offset, "error", err)
			continue
		}

		if err := c.Process(ctx, msg); err != nil {
			c.Log.Error("apply event", "type", msg.Type, "order_id", msg.OrderID, "error", err)
		}
	}
}

func (c *Consumer) Process(ctx context.Context, msg events.Message) error {
	incs := Tally(msg)
	if len(incs) == 0 {
		c.Log.Debug("ignoring event", "type", msg.Type)
		return nil
	}
	if err := c.Store.Apply(ctx, incs); err != nil {
		return err
	}
	c.Log.Info("event applied", "type", msg.Type, "order_id", msg.OrderID, "restaurant_id", msg.RestaurantID)
	return nil
}

// Tally turns an event into leaderboard increments. Deletions reverse the
// all-time counters only; the daily counter records placements on the day
// they happened. A line edit moves menu item counts and nothing else.
func Tally(msg events.Message) []domain.Increment {
	var sign float64
	switch msg.Type {
	case events.TypeOrderUpdated:
		return lineDeltas(msg.PreviousLines, msg.Lines)
	case events.TypeOrderPlaced:
		sign = 1
	case events.TypeOrderDeleted:
		sign = -1
	case events.TypePaymentSettled:
		if !msg.Amount.IsPositive() {
			return nil
		}
		return []domain.Increment{{
			Board:  domain.BoardRestaurantRevenue,
			Member: msg.RestaurantID,
			By:     msg.Amount.InexactFloat64(),
		}}
	default:
		return nil
	}

	incs := []domain.Increment{{Board: domain.BoardRestaurantOrders, Member: msg.RestaurantID, By: sign}}
	for _, line := range msg.Lines {
		if line.Quantity <= 0 {
			continue
		}
		incs = append(incs, domain.Increment{
			Board:  domain.BoardMenuItemOrders,
			Member: line.MenuItemID,
			By:     sign * float64(line.Quantity),
		})
	}

	if sign > 0 {
		at := msg.Timestamp
		if at.IsZero() {
			at = civiltime.Now()
		}
		incs = append(incs, domain.Increment{
			Board:  domain.BoardDailyOrders,
			Day:    leaderboard.Day(at.In(civiltime.Zone)),
			Member: msg.RestaurantID,
			By:     1,
		})
	} else if msg.Amount.IsPositive() {
		incs = append(incs, domain.Increment{
			Board:  domain.BoardRestaurantRevenue,
			Member: msg.RestaurantID,
			By:     -msg.Amount.InexactFloat64(),
		})
	}
	return incs
}

// lineDeltas nets the item counts of an edit: old lines come off, new lines
// go on. Items whose quantity did not change produce no increment.
func lineDeltas(previous, current []events.Line) []domain.Increment {
	var (
		order []int64
		delta = map[int64]int{}
	)
	add := func(lines []events.Line, sign int) {
		for _, line := range lines {
			if line.Quantity <= 0 {
				continue
			}
			if _, seen := delta[line.MenuItemID]; !seen {
				order = append(order, line.MenuItemID)
			}
			delta[line.MenuItemID] += sign * line.Quantity
		}
	}
	add(previous, -1)
	add(current, 1)

	var incs []domain.Increment
	for _, id := range order {
		if delta[id] == 0 {
			continue
		}
		incs = append(incs, domain.Increment{
			Board:  domain.BoardMenuItemOrders,
			Member: id,
			By:     float64(delta[id]),
		})
	}
	return incs
}
