package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"quickbite/analytics-svc/internal/domain"
)

// ReportRepository runs read-only aggregations over the marketplace tables.
type ReportRepository struct {
	DB *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Order counts include accounts without orders; ties go to the older account.
const topByOrdersQuery = `
	SELECT a.id, a.name, COUNT(o.id) AS orders
	FROM accounts a
	LEFT JOIN orders o ON o.%[1]s = a.id
	WHERE a.role = $1
	GROUP BY a.id, a.name
	ORDER BY orders DESC, a.id ASC
	LIMIT $2`

func (r *ReportRepository) topByOrders(ctx context.Context, role, column string, limit int) ([]domain.RankedAccount, error) {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(topByOrdersQuery, column), role, limit)
	if err != nil {
		return nil, fmt.Errorf("top %s by orders: %w", role, err)
	}
	defer rows.Close()

	ranked := []domain.RankedAccount{}
	for rows.Next() {
		var a domain.RankedAccount
		if err := rows.Scan(&a.ID, &a.Name, &a.Orders); err != nil {
			return nil, fmt.Errorf("scan ranked %s: %w", role, err)
		}
		ranked = append(ranked, a)
	}
	return ranked, rows.Err()
}

func (r *ReportRepository) TopRestaurants(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	return r.topByOrders(ctx, "restaurant", "restaurant_id", limit)
}

func (r *ReportRepository) TopCustomers(ctx context.Context, limit int) ([]domain.RankedAccount, error) {
	return r.topByOrders(ctx, "customer", "customer_id", limit)
}

const totalsQuery = `
	SELECT a.id, a.name, COALESCE(SUM(p.amount), 0) AS total
	FROM accounts a
	LEFT JOIN payments p ON p.%[1]s = a.id
	WHERE a.role = $1
	GROUP BY a.id, a.name
	ORDER BY total DESC, a.id ASC`

func (r *ReportRepository) totals(ctx context.Context, role, column string) ([]domain.AccountTotal, error) {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(totalsQuery, column), role)
	if err != nil {
		return nil, fmt.Errorf("%s payment totals: %w", role, err)
	}
	defer rows.Close()

	totals := []domain.AccountTotal{}
	for rows.Next() {
		var t domain.AccountTotal
		if err := rows.Scan(&t.ID, &t.Name, &t.Total); err != nil {
			return nil, fmt.Errorf("scan %s total: %w", role, err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *ReportRepository) RestaurantRevenue(ctx context.Context) ([]domain.AccountTotal, error) {
	return r.totals(ctx, "restaurant", "restaurant_id")
}

func (r *ReportRepository) CustomerSpend(ctx context.Context) ([]domain.AccountTotal, error) {
	return r.totals(ctx, "customer", "customer_id")
}

func (r *ReportRepository) RestaurantSummary(ctx context.Context, restaurantID int64) (*domain.RestaurantSummary, error) {
	s := domain.RestaurantSummary{RestaurantID: restaurantID}
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE restaurant_id = $1),
			(SELECT COUNT(*) FROM orders WHERE restaurant_id = $1 AND paid),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE restaurant_id = $1)`,
		restaurantID,
	).Scan(&s.Orders, &s.PaidOrders, &s.Revenue)
	if err != nil {
		return nil, fmt.Errorf("restaurant summary: %w", err)
	}
	return &s, nil
}

func (r *ReportRepository) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	var s domain.PlatformStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE role = 'restaurant'),
			COUNT(*) FILTER (WHERE role = 'customer'),
			COUNT(*) FILTER (WHERE role = 'agent')
		FROM accounts`,
	).Scan(&s.Restaurants, &s.Customers, &s.Agents)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return &s, nil
}

func scanPopularRestaurant(row rowScanner, withOrders bool) (domain.PopularRestaurant, error) {
	var p domain.PopularRestaurant
	dest := []any{&p.ID, &p.Name, &p.ImageURL, &p.Rating}
	if withOrders {
		dest = append(dest, &p.Orders)
	}
	err := row.Scan(dest...)
	return p, err
}

// RestaurantsByID loads display fields for leaderboard members. Ids that no
// longer name a restaurant are absent from the map.
func (r *ReportRepository) RestaurantsByID(ctx context.Context, ids []int64) (map[int64]domain.PopularRestaurant, error) {
	found := make(map[int64]domain.PopularRestaurant, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, image_url, rating
		FROM accounts
		WHERE role = 'restaurant' AND id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("restaurants by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPopularRestaurant(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		found[p.ID] = p
	}
	return found, rows.Err()
}

// PopularRestaurants ranks restaurants with at least one live order.
func (r *ReportRepository) PopularRestaurants(ctx context.Context, limit int) ([]domain.PopularRestaurant, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.id, a.name, a.image_url, a.rating, COUNT(o.id) AS orders
		FROM accounts a
		JOIN orders o ON o.restaurant_id = a.id
		WHERE a.role = 'restaurant'
		GROUP BY a.id
		ORDER BY orders DESC, a.id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("popular restaurants: %w", err)
	}
	defer rows.Close()

	popular := []domain.PopularRestaurant{}
	for rows.Next() {
		p, err := scanPopularRestaurant(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		popular = append(popular, p)
	}
	return popular, rows.Err()
}

func scanPopularMenuItem(row rowScanner, withOrdered bool) (domain.PopularMenuItem, error) {
	var p domain.PopularMenuItem
	dest := []any{&p.ID, &p.Name, &p.RestaurantID, &p.UnitPrice, &p.ImageURL}
	if withOrdered {
		dest = append(dest, &p.Ordered)
	}
	err := row.Scan(dest...)
	return p, err
}

// MenuItemsByID loads available items only; unavailable or deleted items
// drop off the homepage.
func (r *ReportRepository) MenuItemsByID(ctx context.Context, ids []int64) (map[int64]domain.PopularMenuItem, error) {
	found := make(map[int64]domain.PopularMenuItem, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, restaurant_id, unit_price, image_url
		FROM menu_items
		WHERE available AND id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("menu items by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPopularMenuItem(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		found[p.ID] = p
	}
	return found, rows.Err()
}

func (r *ReportRepository) PopularMenuItems(ctx context.Context, limit int) ([]domain.PopularMenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT m.id, m.name, m.restaurant_id, m.unit_price, m.image_url, SUM(l.quantity) AS ordered
		FROM menu_items m
		JOIN order_lines l ON l.menu_item_id = m.id
		WHERE m.available
		GROUP BY m.id
		ORDER BY ordered DESC, m.id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("popular menu items: %w", err)
	}
	defer rows.Close()

	popular := []domain.PopularMenuItem{}
	for rows.Next() {
		p, err := scanPopularMenuItem(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		popular = append(popular, p)
	}
	return popular, rows.Err()
}

// RatingDistribution counts a restaurant's reviews per star, every star
// from 1 to 5 present.
func (r *ReportRepository) RatingDistribution(ctx context.Context, restaurantID int64) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT rating, COUNT(*)
		FROM restaurant_reviews
		WHERE restaurant_id = $1
		GROUP BY rating`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()

	distribution := map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	for rows.Next() {
		var rating, count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan rating count: %w", err)
		}
		distribution[strconv.FormatInt(rating, 10)] = count
	}
	return distribution, rows.Err()
}
