package queue

import (
	"context"
)

// Queue is the durable FIFO wait-list for users who exceeded the minute
// rate. State lives in shared storage so admission order survives restarts
// and holds across server instances.
type Queue struct {
	repo Repository
}

func New(repo Repository) *Queue {
	return &Queue{repo: repo}
}

// GetOrEnqueue returns the user's place in line, enqueueing them if they
// are not already waiting. Idempotent: repeated calls while the entry is
// unprocessed return the same position.
func (q *Queue) GetOrEnqueue(ctx context.Context, userID string) (int64, error) {
	return q.repo.InsertOrGet(ctx, userID)
}

// TryAdvance admits the user iff they hold the oldest unprocessed entry,
// marking it processed. Strict FIFO: no user is ever admitted ahead of a
// longer-waiting one through this path.
func (q *Queue) TryAdvance(ctx context.Context, userID string) (bool, error) {
	return q.repo.ClaimHead(ctx, userID)
}

// Release clears the user's pending entry after they were admitted through
// the minute-rate gate directly, so an abandoned entry cannot sit at the
// head of the line.
func (q *Queue) Release(ctx context.Context, userID string) error {
	return q.repo.ReleaseUser(ctx, userID)
}
