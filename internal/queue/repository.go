package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// InsertOrGet returns the user's unprocessed entry position, inserting a
	// new entry when none exists.
	InsertOrGet(ctx context.Context, userID string) (int64, error)
	// ClaimHead marks the lowest-position unprocessed entry processed iff it
	// belongs to userID, reporting whether the claim succeeded.
	ClaimHead(ctx context.Context, userID string) (bool, error)
	// ReleaseUser marks the user's unprocessed entry processed, if any.
	ReleaseUser(ctx context.Context, userID string) error
	// DeleteStale removes unprocessed entries created before the cutoff and
	// returns how many were removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
	// PurgeProcessed removes processed entries finished before the cutoff.
	PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error)
	// Depth counts unprocessed entries.
	Depth(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) InsertOrGet(ctx context.Context, userID string) (int64, error) {
	insert := `
		INSERT INTO queue_entries (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) WHERE NOT processed DO NOTHING
		RETURNING queue_position`
	existing := `
		SELECT queue_position FROM queue_entries
		WHERE user_id = $1 AND NOT processed`

	// Two passes at most: the insert either wins the partial unique index or
	// the existing row is read back. If that row got processed in between,
	// the next attempt inserts fresh.
	for attempt := 0; attempt < 2; attempt++ {
		var pos int64
		err := r.pool.QueryRow(ctx, insert, uuid.New(), userID).Scan(&pos)
		if err == nil {
			return pos, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("inserting queue entry: %w", err)
		}

		err = r.pool.QueryRow(ctx, existing, userID).Scan(&pos)
		if err == nil {
			return pos, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("reading existing queue entry: %w", err)
		}
	}
	return 0, errors.New("enqueueing user: entry vanished between insert and read")
}

func (r *postgresRepository) ClaimHead(ctx context.Context, userID string) (bool, error) {
	// Single statement: the claim only lands when the user's entry is the
	// global minimum among unprocessed entries at execution time.
	query := `
		UPDATE queue_entries SET processed = TRUE, processed_at = NOW()
		WHERE user_id = $1 AND NOT processed
		AND queue_position = (SELECT MIN(queue_position) FROM queue_entries WHERE NOT processed)`

	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("claiming queue head: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) ReleaseUser(ctx context.Context, userID string) error {
	query := `
		UPDATE queue_entries SET processed = TRUE, processed_at = NOW()
		WHERE user_id = $1 AND NOT processed`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("releasing queue entry: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM queue_entries WHERE NOT processed AND created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting stale queue entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM queue_entries WHERE processed AND processed_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging processed queue entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) Depth(ctx context.Context) (int64, error) {
	var depth int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM queue_entries WHERE NOT processed`).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("counting queue depth: %w", err)
	}
	return depth, nil
}
