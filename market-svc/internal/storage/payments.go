package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/civiltime"
)

// SettleOrder marks the order paid and records the payment atomically. The
// conditional update is the single writer gate: of two concurrent callers
// exactly one sees a row back, the other gets Conflict. The unique index on
// payments.order_id backs it up.
func (r *PostgresRepository) SettleOrder(ctx context.Context, p *domain.Payment, guard domain.SettleGuard) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var total decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		UPDATE orders SET paid = TRUE
		WHERE id = $1
		  AND ($2::bigint IS NULL OR customer_id = $2)
		  AND ($3::numeric IS NULL OR total_price = $3)
		  AND paid = FALSE
		RETURNING customer_id, restaurant_id, total_price`,
		p.OrderID, guard.CustomerID, guard.ExpectTotal,
	).Scan(&p.CustomerID, &p.RestaurantID, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return classifyUnsettled(ctx, tx, p.OrderID, guard)
	}
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	if p.Amount.IsZero() {
		p.Amount = total
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, customer_id, restaurant_id, amount, method, external_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		p.OrderID, p.CustomerID, p.RestaurantID, p.Amount, p.Method, nullString(p.ExternalID),
	).Scan(&p.ID, &p.CreatedAt)
	if apperr.IsUniqueViolation(err) {
		return apperr.Conflict("order %d is already paid", p.OrderID)
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.CreatedAt = p.CreatedAt.In(civiltime.Zone)
	return nil
}

// classifyUnsettled explains why the settlement update matched no row.
func classifyUnsettled(ctx context.Context, tx *sql.Tx, orderID int64, guard domain.SettleGuard) error {
	var (
		customerID int64
		total      decimal.Decimal
		paid       bool
	)
	err := tx.QueryRowContext(ctx,
		"SELECT customer_id, total_price, paid FROM orders WHERE id = $1", orderID).Scan(&customerID, &total, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("order %d not found", orderID)
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	switch {
	case guard.CustomerID != nil && *guard.CustomerID != customerID:
		return apperr.NotFound("order %d not found", orderID)
	case paid:
		return apperr.Conflict("order %d is already paid", orderID)
	case guard.ExpectTotal != nil && !guard.ExpectTotal.Equal(total):
		return apperr.Validation("amount %s does not match order total %s", guard.ExpectTotal.StringFixed(2), total.StringFixed(2))
	}
	return apperr.Conflict("order %d changed during settlement", orderID)
}

func (r *PostgresRepository) ListPayments(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, order_id, customer_id, restaurant_id, amount, method, COALESCE(external_id, ''), created_at
		FROM payments
		WHERE ($1::bigint IS NULL OR customer_id = $1)
		  AND ($2::bigint IS NULL OR restaurant_id = $2)
		ORDER BY created_at DESC, id DESC`,
		f.CustomerID, f.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.CustomerID, &p.RestaurantID, &p.Amount, &p.Method,
			&p.ExternalID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.CreatedAt = p.CreatedAt.In(civiltime.Zone)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
