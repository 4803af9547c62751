package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced    = "order_placed"
	TypeOrderDeleted   = "order_deleted"
	TypeOrderUpdated   = "order_updated"
	TypePaymentSettled = "payment_settled"
)

type Line struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

// Message is the envelope published to the marketplace topic after a
// committed mutation. Fields not relevant to Type are left zero.
// PreviousLines is only set on order_updated.
type Message struct {
	Type          string          `json:"type"`
	OrderID       int64           `json:"order_id"`
	RestaurantID  int64           `json:"restaurant_id"`
	CustomerID    int64           `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Lines         []Line          `json:"lines,omitempty"`
	PreviousLines []Line          `json:"previous_lines,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
