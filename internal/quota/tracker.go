package quota

import (
	"context"
	"fmt"
	"time"
)

// Tracker enforces the per-UTC-day summarization ceiling. CheckAndReserve
// never writes; Commit is called by the admission flow only after the
// summarizer has succeeded, which keeps failed summarizations uncounted.
type Tracker struct {
	repo Repository
	now  func() time.Time
}

func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// CheckAndReserve reports whether one more summarization is within the
// ceiling and what the count would become. A ceiling <= 0 means unlimited.
// Persistence read errors are hard failures, never treated as allowed.
func (t *Tracker) CheckAndReserve(ctx context.Context, userID string, ceiling int) (Decision, error) {
	rec, err := t.repo.Get(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("checking daily quota: %w", err)
	}

	// First-ever call, or last activity on an earlier UTC day: the day is
	// fresh and the request is always allowed.
	if rec == nil || t.staleDay(rec.UpdatedAt) {
		return Decision{Allowed: true, NextCount: 1}, nil
	}

	if ceiling > 0 && rec.DailyCount >= ceiling {
		return Decision{Allowed: false, NextCount: rec.DailyCount}, nil
	}
	return Decision{Allowed: true, NextCount: rec.DailyCount + 1}, nil
}

// Commit records one successful summarization and returns the persisted
// count.
func (t *Tracker) Commit(ctx context.Context, userID string) (int, error) {
	return t.repo.IncrementOrReset(ctx, userID)
}

// UsedToday returns the count for the current UTC day (0 when the record
// is absent or stale).
func (t *Tracker) UsedToday(ctx context.Context, userID string) (int, error) {
	rec, err := t.repo.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("reading daily usage: %w", err)
	}
	if rec == nil || t.staleDay(rec.UpdatedAt) {
		return 0, nil
	}
	return rec.DailyCount, nil
}

func (t *Tracker) staleDay(updatedAt time.Time) bool {
	todayStart := t.now().UTC().Truncate(24 * time.Hour)
	return updatedAt.UTC().Before(todayStart)
}
