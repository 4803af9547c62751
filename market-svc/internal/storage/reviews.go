package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/civiltime"
)

type reviewTable struct {
	table  string
	target string
}

func reviewTableFor(kind domain.ReviewKind) reviewTable {
	if kind == domain.ReviewDelivery {
		return reviewTable{table: "delivery_reviews", target: "agent_id"}
	}
	return reviewTable{table: "restaurant_reviews", target: "restaurant_id"}
}

// recomputeRating sets the target's rating to the one-decimal mean of its
// reviews. With no reviews left the current rating is kept.
func recomputeRating(ctx context.Context, tx *sql.Tx, kind domain.ReviewKind, targetID int64) (float64, error) {
	rt := reviewTableFor(kind)
	var rating sql.NullFloat64
	err := tx.QueryRowContext(ctx, `
		UPDATE accounts
		SET rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 1) FROM `+rt.table+` WHERE `+rt.target+` = $1), rating)
		WHERE id = $1
		RETURNING rating`, targetID).Scan(&rating)
	if err != nil {
		return 0, fmt.Errorf("recompute rating: %w", err)
	}
	return rating.Float64, nil
}

// CreateReview inserts the review and refreshes the target's rating in the
// same transaction. The target row is locked first so concurrent reviews of
// one target serialise on it.
func (r *PostgresRepository) CreateReview(ctx context.Context, rv *domain.Review) (float64, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := lockAccount(ctx, tx, rv.Kind.TargetRole(), rv.TargetID); err != nil {
		return 0, err
	}

	rt := reviewTableFor(rv.Kind)
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO `+rt.table+` (customer_id, `+rt.target+`, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		rv.CustomerID, rv.TargetID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt); err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}

	rating, err := recomputeRating(ctx, tx, rv.Kind, rv.TargetID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	rv.CreatedAt = rv.CreatedAt.In(civiltime.Zone)
	return rating, nil
}

// loadOwnedReview fetches the review's target, returning NotFound unless the
// review exists and belongs to customerID.
func loadOwnedReview(ctx context.Context, tx *sql.Tx, kind domain.ReviewKind, id, customerID int64) (int64, error) {
	rt := reviewTableFor(kind)
	var targetID int64
	err := tx.QueryRowContext(ctx,
		"SELECT "+rt.target+" FROM "+rt.table+" WHERE id = $1 AND customer_id = $2", id, customerID).Scan(&targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("review %d not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("load review: %w", err)
	}
	return targetID, nil
}

func (r *PostgresRepository) UpdateReview(ctx context.Context, rv *domain.Review) (float64, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	targetID, err := loadOwnedReview(ctx, tx, rv.Kind, rv.ID, rv.CustomerID)
	if err != nil {
		return 0, err
	}
	if err := lockAccount(ctx, tx, rv.Kind.TargetRole(), targetID); err != nil {
		return 0, err
	}

	rt := reviewTableFor(rv.Kind)
	if err := tx.QueryRowContext(ctx, `
		UPDATE `+rt.table+` SET rating = $1, comment = $2
		WHERE id = $3
		RETURNING `+rt.target+`, created_at`,
		rv.Rating, rv.Comment, rv.ID,
	).Scan(&rv.TargetID, &rv.CreatedAt); err != nil {
		return 0, fmt.Errorf("update review: %w", err)
	}

	rating, err := recomputeRating(ctx, tx, rv.Kind, targetID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	rv.CreatedAt = rv.CreatedAt.In(civiltime.Zone)
	return rating, nil
}

func (r *PostgresRepository) DeleteReview(ctx context.Context, kind domain.ReviewKind, id, customerID int64) (float64, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	targetID, err := loadOwnedReview(ctx, tx, kind, id, customerID)
	if err != nil {
		return 0, err
	}
	if err := lockAccount(ctx, tx, kind.TargetRole(), targetID); err != nil {
		return 0, err
	}

	rt := reviewTableFor(kind)
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+rt.table+" WHERE id = $1", id); err != nil {
		return 0, fmt.Errorf("delete review: %w", err)
	}

	rating, err := recomputeRating(ctx, tx, kind, targetID)
	if err != nil {
		return 0, err
	}
	return rating, tx.Commit()
}

func (r *PostgresRepository) ListReviews(ctx context.Context, kind domain.ReviewKind, f domain.ReviewFilter) ([]domain.Review, error) {
	rt := reviewTableFor(kind)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, customer_id, `+rt.target+`, rating, comment, created_at
		FROM `+rt.table+`
		WHERE ($1::bigint IS NULL OR `+rt.target+` = $1)
		  AND ($2::bigint IS NULL OR customer_id = $2)
		ORDER BY created_at DESC, id DESC`,
		f.TargetID, f.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv := domain.Review{Kind: kind}
		if err := rows.Scan(&rv.ID, &rv.CustomerID, &rv.TargetID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rv.CreatedAt = rv.CreatedAt.In(civiltime.Zone)
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
