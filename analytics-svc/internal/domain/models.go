package domain

import "github.com/shopspring/decimal"

// RankedAccount is a restaurant or customer ranked by order count.
type RankedAccount struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Orders int64  `json:"orders"`
}

// AccountTotal is a payment sum for a restaurant (revenue) or a customer
// (spend). Accounts without payments total zero.
type AccountTotal struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type RestaurantSummary struct {
	RestaurantID int64           `json:"restaurant_id"`
	Revenue      decimal.Decimal `json:"revenue"`
	Orders       int64           `json:"orders"`
	PaidOrders   int64           `json:"paid_orders"`
	OrdersToday  int64           `json:"orders_today"`
}

type PlatformStats struct {
	Restaurants int64 `json:"restaurants"`
	Customers   int64 `json:"customers"`
	Agents      int64 `json:"agents"`
}

type PopularRestaurant struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	ImageURL *string  `json:"image_url,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Orders   int64    `json:"orders"`
}

type PopularMenuItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	RestaurantID int64           `json:"restaurant_id"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ImageURL     *string         `json:"image_url,omitempty"`
	Ordered      int64           `json:"ordered"`
}

// Score is one leaderboard entry as stored in Redis.
type Score struct {
	ID    int64
	Value float64
}
