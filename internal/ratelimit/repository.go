package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetCount(ctx context.Context, userID string, minute time.Time) (int, error)
	// Increment atomically bumps the bucket for (userID, minute), creating
	// it at 1 when absent, and returns the new count.
	Increment(ctx context.Context, userID string, minute time.Time) (int, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetCount(ctx context.Context, userID string, minute time.Time) (int, error) {
	query := `SELECT request_count FROM minute_buckets WHERE user_id = $1 AND minute = $2`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, minute).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying minute bucket: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) Increment(ctx context.Context, userID string, minute time.Time) (int, error) {
	// Single upsert: two concurrent requests can never both observe N and
	// both write N+1.
	query := `
		INSERT INTO minute_buckets (user_id, minute, request_count, last_request_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, minute) DO UPDATE SET
			request_count = minute_buckets.request_count + 1,
			last_request_at = NOW()
		RETURNING request_count`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, minute).Scan(&count); err != nil {
		return 0, fmt.Errorf("incrementing minute bucket: %w", err)
	}
	return count, nil
}
