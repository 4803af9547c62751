package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id             BIGSERIAL PRIMARY KEY,
		role           TEXT NOT NULL,
		email          TEXT NOT NULL,
		password_hash  TEXT NOT NULL,
		name           TEXT NOT NULL,
		address        TEXT,
		contact        TEXT,
		image_url      TEXT,
		bio            TEXT,
		paybill_number TEXT,
		restaurant_id  BIGINT REFERENCES accounts(id),
		rating         NUMERIC(3,1),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_role_email_idx ON accounts (role, lower(email))`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id            BIGSERIAL PRIMARY KEY,
		restaurant_id BIGINT NOT NULL REFERENCES accounts(id),
		name          TEXT NOT NULL,
		unit_price    NUMERIC(12,2) NOT NULL CHECK (unit_price > 0),
		available     BOOLEAN NOT NULL DEFAULT TRUE,
		image_url     TEXT,
		description   TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               BIGSERIAL PRIMARY KEY,
		customer_id      BIGINT NOT NULL REFERENCES accounts(id),
		restaurant_id    BIGINT NOT NULL REFERENCES accounts(id),
		agent_id         BIGINT REFERENCES accounts(id),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		delivery_time    TIMESTAMPTZ,
		delivery_address TEXT NOT NULL,
		total_price      NUMERIC(12,2) NOT NULL,
		paid             BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id     BIGINT NOT NULL REFERENCES orders(id),
		position     INT NOT NULL,
		menu_item_id BIGINT REFERENCES menu_items(id),
		name         TEXT NOT NULL,
		unit_price   NUMERIC(12,2) NOT NULL,
		quantity     INT NOT NULL CHECK (quantity >= 1),
		PRIMARY KEY (order_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id            BIGSERIAL PRIMARY KEY,
		order_id      BIGINT NOT NULL UNIQUE REFERENCES orders(id),
		customer_id   BIGINT NOT NULL REFERENCES accounts(id),
		restaurant_id BIGINT NOT NULL REFERENCES accounts(id),
		amount        NUMERIC(12,2) NOT NULL,
		method        TEXT NOT NULL,
		external_id   TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS restaurant_reviews (
		id            BIGSERIAL PRIMARY KEY,
		customer_id   BIGINT NOT NULL REFERENCES accounts(id),
		restaurant_id BIGINT NOT NULL REFERENCES accounts(id),
		rating        INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment       TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS delivery_reviews (
		id          BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES accounts(id),
		agent_id    BIGINT NOT NULL REFERENCES accounts(id),
		rating      INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment     TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	"CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_id)",
	"CREATE INDEX IF NOT EXISTS orders_restaurant_idx ON orders (restaurant_id)",
	"CREATE INDEX IF NOT EXISTS menu_items_restaurant_idx ON menu_items (restaurant_id)",
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) begin(ctx context.Context) (*sql.Tx, error) {
	return r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execAll runs statements in order, each with the same arguments.
func execAll(ctx context.Context, ex execer, stmts []string, args ...any) error {
	for _, stmt := range stmts {
		if _, err := ex.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
