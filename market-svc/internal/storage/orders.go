package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/civiltime"
)

const orderColumns = `id, customer_id, restaurant_id, agent_id, created_at, delivery_time,
	delivery_address, total_price, paid`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o            domain.Order
		agentID      sql.NullInt64
		deliveryTime sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &agentID, &o.CreatedAt, &deliveryTime,
		&o.DeliveryAddress, &o.TotalPrice, &o.Paid); err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.In(civiltime.Zone)
	if agentID.Valid {
		o.AgentID = &agentID.Int64
	}
	if deliveryTime.Valid {
		t := deliveryTime.Time.In(civiltime.Zone)
		o.DeliveryTime = &t
	}
	o.SyncStatus()
	return &o, nil
}

func insertLines(ctx context.Context, tx *sql.Tx, orderID int64, lines []domain.OrderLine) error {
	for i, line := range lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, menu_item_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, i+1, line.MenuItemID, line.Name, line.UnitPrice, line.Quantity); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// CreateOrder persists the order and its lines in one transaction. Line
// positions are assigned from slice order.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, restaurant_id, delivery_address, total_price, paid)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at`,
		o.CustomerID, o.RestaurantID, o.DeliveryAddress, o.TotalPrice,
	).Scan(&o.ID, &o.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, o.ID, o.Lines); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	o.CreatedAt = o.CreatedAt.In(civiltime.Zone)
	for i := range o.Lines {
		o.Lines[i].Position = i + 1
	}
	o.SyncStatus()
	return nil
}

func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT position, menu_item_id, name, unit_price, quantity
		FROM order_lines WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line   domain.OrderLine
			itemID sql.NullInt64
		)
		if err := rows.Scan(&line.Position, &itemID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if itemID.Valid {
			line.MenuItemID = &itemID.Int64
		}
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

func (r *PostgresRepository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::bigint IS NULL OR customer_id = $1)
		  AND ($2::bigint IS NULL OR restaurant_id = $2)
		  AND ($3::bigint IS NULL OR agent_id = $3)
		ORDER BY created_at DESC, id DESC`,
		f.CustomerID, f.RestaurantID, f.AgentID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE orders SET agent_id = $1 WHERE id = $2", agentID, orderID)
	if err != nil {
		return fmt.Errorf("assign agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order %d not found", orderID)
	}
	return nil
}

func (r *PostgresRepository) SetDeliveryTime(ctx context.Context, orderID int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE orders SET delivery_time = $1 WHERE id = $2", at, orderID)
	if err != nil {
		return fmt.Errorf("set delivery time: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order %d not found", orderID)
	}
	return nil
}

// ReplaceLines swaps the full line set and total. The paid = FALSE guard
// serialises against settlement: once paid the total is frozen.
func (r *PostgresRepository) ReplaceLines(ctx context.Context, o *domain.Order) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET total_price = $1 WHERE id = $2 AND paid = FALSE", o.TotalPrice, o.ID)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflict("order %d is already paid", o.ID)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_lines WHERE order_id = $1", o.ID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	if err := insertLines(ctx, tx, o.ID, o.Lines); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for i := range o.Lines {
		o.Lines[i].Position = i + 1
	}
	return nil
}

var orderCascade = []string{
	"DELETE FROM payments WHERE order_id = $1",
	"DELETE FROM order_lines WHERE order_id = $1",
}

func (r *PostgresRepository) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := execAll(ctx, tx, orderCascade, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order %d not found", id)
	}
	return tx.Commit()
}
