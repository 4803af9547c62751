package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
)

const menuItemColumns = `id, restaurant_id, name, unit_price, available,
	COALESCE(image_url, ''), COALESCE(description, ''), created_at`

func scanMenuItem(row rowScanner) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := row.Scan(&item.ID, &item.RestaurantID, &item.Name, &item.UnitPrice, &item.Available,
		&item.ImageURL, &item.Description, &item.CreatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO menu_items (restaurant_id, name, unit_price, available, image_url, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		item.RestaurantID, item.Name, item.UnitPrice, item.Available,
		nullString(item.ImageURL), nullString(item.Description),
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	item, err := scanMenuItem(r.DB.QueryRowContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("menu item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

// GetItems loads the given ids in one round trip. Missing ids are absent
// from the map.
func (r *PostgresRepository) GetItems(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	items := make(map[int64]domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items[item.ID] = *item
	}
	return items, rows.Err()
}

func (r *PostgresRepository) ListItems(ctx context.Context, restaurantID int64, onlyAvailable bool) ([]domain.MenuItem, error) {
	query := "SELECT " + menuItemColumns + " FROM menu_items WHERE restaurant_id = $1"
	if onlyAvailable {
		query += " AND available"
	}
	rows, err := r.DB.QueryContext(ctx, query+" ORDER BY id", restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := []domain.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, item *domain.MenuItem) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE menu_items
		SET name = $1, unit_price = $2, available = $3, description = $4
		WHERE id = $5 AND restaurant_id = $6`,
		item.Name, item.UnitPrice, item.Available, nullString(item.Description), item.ID, item.RestaurantID)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetItemImage(ctx context.Context, id int64, url string) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE menu_items SET image_url = $1 WHERE id = $2", url, id); err != nil {
		return fmt.Errorf("set menu item image: %w", err)
	}
	return nil
}

// DeleteItem detaches historical order lines before removing the item so
// their name and price snapshots survive.
func (r *PostgresRepository) DeleteItem(ctx context.Context, id int64) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE order_lines SET menu_item_id = NULL WHERE menu_item_id = $1", id); err != nil {
		return fmt.Errorf("detach order lines: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM menu_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("menu item %d not found", id)
	}
	return tx.Commit()
}
