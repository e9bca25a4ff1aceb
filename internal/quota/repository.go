package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*UsageRecord, error)
	// IncrementOrReset atomically bumps the daily count, starting over at 1
	// when the stored row's UTC date precedes today. Returns the persisted
	// count.
	IncrementOrReset(ctx context.Context, userID string) (int, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Get(ctx context.Context, userID string) (*UsageRecord, error) {
	query := `SELECT user_id, daily_count, updated_at FROM user_usage_records WHERE user_id = $1`

	rec := &UsageRecord{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&rec.UserID, &rec.DailyCount, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying usage record: %w", err)
	}
	return rec, nil
}

func (r *postgresRepository) IncrementOrReset(ctx context.Context, userID string) (int, error) {
	// Single upsert so concurrent commits for the same user cannot lose
	// updates; the CASE handles the UTC day rollover in the same statement.
	query := `
		INSERT INTO user_usage_records (user_id, daily_count, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			daily_count = CASE
				WHEN (user_usage_records.updated_at AT TIME ZONE 'UTC')::date < (NOW() AT TIME ZONE 'UTC')::date
					THEN 1
				ELSE user_usage_records.daily_count + 1
			END,
			updated_at = NOW()
		RETURNING daily_count`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("incrementing usage record: %w", err)
	}
	return count, nil
}
