package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/session"
)

const accountColumns = `id, role, email, password_hash, name,
	COALESCE(address, ''), COALESCE(contact, ''), COALESCE(image_url, ''),
	COALESCE(bio, ''), COALESCE(paybill_number, ''), restaurant_id, rating, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a            domain.Account
		restaurantID sql.NullInt64
		rating       sql.NullFloat64
	)
	err := row.Scan(&a.ID, &a.Role, &a.Email, &a.PasswordHash, &a.Name,
		&a.Address, &a.Contact, &a.Image, &a.Bio, &a.PaybillNumber,
		&restaurantID, &rating, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if restaurantID.Valid {
		a.RestaurantID = &restaurantID.Int64
	}
	if rating.Valid {
		a.Rating = &rating.Float64
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, a *domain.Account) error {
	var rating sql.NullFloat64
	if a.Rating != nil {
		rating = sql.NullFloat64{Float64: *a.Rating, Valid: true}
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO accounts (role, email, password_hash, name, address, contact, image_url, bio, paybill_number, restaurant_id, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		a.Role, a.Email, a.PasswordHash, a.Name,
		nullString(a.Address), nullString(a.Contact), nullString(a.Image),
		nullString(a.Bio), nullString(a.PaybillNumber), a.RestaurantID, rating,
	).Scan(&a.ID, &a.CreatedAt)
	if apperr.IsUniqueViolation(err) {
		return apperr.Conflict("a %s account with email %s already exists", a.Role, a.Email)
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, role session.Role, id int64) (*domain.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 AND role = $2", id, role))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("%s %d not found", role, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, role session.Role, email string) (*domain.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE role = $1 AND lower(email) = lower($2)", role, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no %s account for %s", role, email)
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *PostgresRepository) ListAccounts(ctx context.Context, role session.Role) ([]domain.Account, error) {
	return r.queryAccounts(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE role = $1 ORDER BY id", role)
}

func (r *PostgresRepository) ListAgents(ctx context.Context, restaurantID int64) ([]domain.Account, error) {
	return r.queryAccounts(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE role = 'agent' AND restaurant_id = $1 ORDER BY id", restaurantID)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, role session.Role, id int64, patch domain.ProfilePatch) (*domain.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx, `
		UPDATE accounts SET
			name = COALESCE($3, name),
			address = COALESCE($4, address),
			contact = COALESCE($5, contact),
			bio = COALESCE($6, bio),
			paybill_number = COALESCE($7, paybill_number)
		WHERE id = $1 AND role = $2
		RETURNING `+accountColumns,
		id, role, patch.Name, patch.Address, patch.Contact, patch.Bio, patch.PaybillNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("%s %d not found", role, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) SetAccountImage(ctx context.Context, role session.Role, id int64, url string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET image_url = $1 WHERE id = $2 AND role = $3", url, id, role)
	if err != nil {
		return fmt.Errorf("set account image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("%s %d not found", role, id)
	}
	return nil
}

// lockAccount takes a row lock on the account, returning NotFound when it
// does not exist with the given role.
func lockAccount(ctx context.Context, tx *sql.Tx, role session.Role, id int64) error {
	var locked int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE id = $1 AND role = $2 FOR UPDATE", id, role).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s %d not found", role, id)
	}
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

var restaurantCascade = []string{
	"DELETE FROM payments WHERE order_id IN (SELECT id FROM orders WHERE restaurant_id = $1)",
	"DELETE FROM order_lines WHERE order_id IN (SELECT id FROM orders WHERE restaurant_id = $1)",
	"DELETE FROM orders WHERE restaurant_id = $1",
	"DELETE FROM restaurant_reviews WHERE restaurant_id = $1",
	"DELETE FROM delivery_reviews WHERE agent_id IN (SELECT id FROM accounts WHERE role = 'agent' AND restaurant_id = $1)",
	"DELETE FROM accounts WHERE role = 'agent' AND restaurant_id = $1",
	"DELETE FROM menu_items WHERE restaurant_id = $1",
	"DELETE FROM accounts WHERE id = $1 AND role = 'restaurant'",
}

func (r *PostgresRepository) DeleteRestaurant(ctx context.Context, id int64) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockAccount(ctx, tx, session.RoleRestaurant, id); err != nil {
		return err
	}
	if err := execAll(ctx, tx, restaurantCascade, id); err != nil {
		return err
	}
	return tx.Commit()
}

var customerOrderCascade = []string{
	"DELETE FROM payments WHERE order_id IN (SELECT id FROM orders WHERE customer_id = $1)",
	"DELETE FROM order_lines WHERE order_id IN (SELECT id FROM orders WHERE customer_id = $1)",
	"DELETE FROM orders WHERE customer_id = $1",
}

// DeleteCustomer removes the customer with its orders and reviews. Ratings of
// every reviewed restaurant and agent are recomputed before commit.
func (r *PostgresRepository) DeleteCustomer(ctx context.Context, id int64) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockAccount(ctx, tx, session.RoleCustomer, id); err != nil {
		return err
	}
	if err := execAll(ctx, tx, customerOrderCascade, id); err != nil {
		return err
	}

	for _, kind := range []domain.ReviewKind{domain.ReviewRestaurant, domain.ReviewDelivery} {
		rt := reviewTableFor(kind)
		targets, err := collectIDs(ctx, tx,
			"DELETE FROM "+rt.table+" WHERE customer_id = $1 RETURNING "+rt.target, id)
		if err != nil {
			return err
		}
		for _, target := range targets {
			if err := lockAccount(ctx, tx, kind.TargetRole(), target); err != nil {
				return err
			}
			if _, err := recomputeRating(ctx, tx, kind, target); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1 AND role = 'customer'", id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return tx.Commit()
}

var agentCascade = []string{
	"UPDATE orders SET agent_id = NULL WHERE agent_id = $1",
	"DELETE FROM delivery_reviews WHERE agent_id = $1",
	"DELETE FROM accounts WHERE id = $1 AND role = 'agent'",
}

func (r *PostgresRepository) DeleteAgent(ctx context.Context, restaurantID, agentID int64) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var employer sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT restaurant_id FROM accounts WHERE id = $1 AND role = 'agent' FOR UPDATE", agentID).Scan(&employer)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && employer.Int64 != restaurantID) {
		return apperr.NotFound("agent %d not found", agentID)
	}
	if err != nil {
		return fmt.Errorf("lock agent: %w", err)
	}

	if err := execAll(ctx, tx, agentCascade, agentID); err != nil {
		return err
	}
	return tx.Commit()
}

// collectIDs runs a query returning a single id column and dedupes the result.
func collectIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	defer rows.Close()

	seen := map[int64]bool{}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}
