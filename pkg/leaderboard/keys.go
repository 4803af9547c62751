// Package leaderboard names the Redis sorted sets agg-svc maintains and
// analytics-svc reads. Members are decimal account or menu item ids.
package leaderboard

import "time"

const (
	RestaurantOrders  = "analytics:orders:restaurants"
	MenuItemOrders    = "analytics:orders:menu_items"
	RestaurantRevenue = "analytics:revenue:restaurants"

	DailyTTL = 7 * 24 * time.Hour
)

// DailyOrders is the per-day restaurant order counter for day (YYYY-MM-DD).
func DailyOrders(day string) string {
	return "analytics:daily:" + day + ":orders"
}

// Day formats t as the key suffix used by DailyOrders.
func Day(t time.Time) string {
	return t.Format(time.DateOnly)
}
