package domain

type Board string

const (
	BoardRestaurantOrders  Board = "restaurant_orders"
	BoardMenuItemOrders    Board = "menu_item_orders"
	BoardRestaurantRevenue Board = "restaurant_revenue"
	BoardDailyOrders       Board = "daily_orders"
)

// Increment moves Member's score on Board by By. Day is set only for
// BoardDailyOrders.
type Increment struct {
	Board  Board
	Day    string
	Member int64
	By     float64
}
