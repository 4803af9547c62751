package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"quickbite/pkg/apperr"
	"quickbite/pkg/session"
)

type MenuItem struct {
	ID           int64           `json:"id"`
	RestaurantID int64           `json:"restaurant_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Available    bool            `json:"available"`
	ImageURL     string          `json:"image_url"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
}

type MenuItemPatch struct {
	Name        *string          `json:"name"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Available   *bool            `json:"available"`
	Description *string          `json:"description"`
}

// Apply copies supplied fields onto item.
func (p MenuItemPatch) Apply(item *MenuItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.UnitPrice != nil {
		item.UnitPrice = *p.UnitPrice
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
}

const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
)

type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	RestaurantID    int64           `json:"restaurant_id"`
	AgentID         *int64          `json:"agent_id"`
	CreatedAt       time.Time       `json:"created_at"`
	DeliveryTime    *time.Time      `json:"delivery_time"`
	DeliveryAddress string          `json:"delivery_address"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Paid            bool            `json:"paid"`
	Status          string          `json:"status"`
	Lines           []OrderLine     `json:"lines,omitempty"`
}

// SyncStatus derives Status: a missing delivery time means pending.
func (o *Order) SyncStatus() {
	o.Status = StatusPending
	if o.DeliveryTime != nil {
		o.Status = StatusDelivered
	}
}

// OwnedBy reports whether p may see the order. Admins see everything.
func (o *Order) OwnedBy(p session.Principal) bool {
	switch p.Role {
	case session.RoleAdmin:
		return true
	case session.RoleCustomer:
		return o.CustomerID == p.ActorID
	case session.RoleRestaurant:
		return o.RestaurantID == p.ActorID
	case session.RoleAgent:
		return o.AgentID != nil && *o.AgentID == p.ActorID
	}
	return false
}

// OrderLine keeps a snapshot of the item name and price at order time;
// MenuItemID becomes nil once the item is deleted from the catalog.
type OrderLine struct {
	Position   int             `json:"position"`
	MenuItemID *int64          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type LineRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type OrderInput struct {
	RestaurantID    int64         `json:"restaurant_id"`
	DeliveryAddress string        `json:"delivery_address"`
	Lines           []LineRequest `json:"lines"`
}

type OrderFilter struct {
	CustomerID   *int64
	RestaurantID *int64
	AgentID      *int64
}

// FilterFor scopes listings to what p owns.
func FilterFor(p session.Principal) OrderFilter {
	id := p.ActorID
	switch p.Role {
	case session.RoleCustomer:
		return OrderFilter{CustomerID: &id}
	case session.RoleRestaurant:
		return OrderFilter{RestaurantID: &id}
	case session.RoleAgent:
		return OrderFilter{AgentID: &id}
	}
	return OrderFilter{}
}

const (
	MethodCash  = "cash"
	MethodMpesa = "mpesa"
)

type Payment struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	CustomerID   int64           `json:"customer_id"`
	RestaurantID int64           `json:"restaurant_id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	ExternalID   string          `json:"external_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SettleGuard struct {
	// CustomerID restricts settlement to the owning customer. Nil for
	// gateway callbacks, which carry no session.
	CustomerID *int64
	// ExpectTotal, when set, must equal the order total at settlement time.
	ExpectTotal *decimal.Decimal
}

type PaymentFilter struct {
	CustomerID   *int64
	RestaurantID *int64
}

type PaymentInput struct {
	Amount *decimal.Decimal `json:"amount"`
	Method string           `json:"method"`
}

const orderReferencePrefix = "ORDER-"

func OrderReference(orderID int64) string {
	return orderReferencePrefix + strconv.FormatInt(orderID, 10)
}

// ParseOrderReference is the only place a gateway reference becomes an
// order id. Anything but ORDER-<positive integer> is a validation error.
func ParseOrderReference(ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	digits, ok := strings.CutPrefix(ref, orderReferencePrefix)
	if !ok || digits == "" {
		return 0, apperr.Validation("malformed order reference %q", ref)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, apperr.Validation("malformed order reference %q", ref)
		}
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("malformed order reference %q", ref)
	}
	return id, nil
}

type ReviewKind string

const (
	ReviewRestaurant ReviewKind = "restaurant"
	ReviewDelivery   ReviewKind = "delivery"
)

func ParseReviewKind(s string) (ReviewKind, error) {
	switch ReviewKind(s) {
	case ReviewRestaurant, "restaurants":
		return ReviewRestaurant, nil
	case ReviewDelivery, "agent", "agents":
		return ReviewDelivery, nil
	}
	return "", apperr.Validation("unknown review kind %q", s)
}

// TargetRole is the account role a review of this kind must point at.
func (k ReviewKind) TargetRole() session.Role {
	if k == ReviewDelivery {
		return session.RoleAgent
	}
	return session.RoleRestaurant
}

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         int64      `json:"id"`
	Kind       ReviewKind `json:"kind"`
	CustomerID int64      `json:"customer_id"`
	TargetID   int64      `json:"target_id"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (r *Review) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return apperr.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}
	if strings.TrimSpace(r.Comment) == "" {
		return apperr.Validation("comment is required")
	}
	return nil
}

type ReviewFilter struct {
	TargetID   *int64
	CustomerID *int64
}
