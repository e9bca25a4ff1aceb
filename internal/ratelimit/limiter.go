package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/smmry-app/smmry-api/internal/users"
)

// Limiter enforces the free-tier per-minute ceiling over fixed UTC-minute
// buckets. Admit only reads; the admission flow calls Record after the
// summarization succeeds.
type Limiter struct {
	repo      Repository
	perMinute int
	now       func() time.Time
}

func NewLimiter(repo Repository, perMinute int) *Limiter {
	return &Limiter{repo: repo, perMinute: perMinute, now: time.Now}
}

// Admit reports whether the user is within the per-minute rate. Premium
// users are always admitted.
func (l *Limiter) Admit(ctx context.Context, userID string, tier users.Tier) (Verdict, error) {
	if tier == users.TierPremium {
		return Verdict{Admitted: true}, nil
	}

	count, err := l.repo.GetCount(ctx, userID, l.minuteKey())
	if err != nil {
		return Verdict{}, fmt.Errorf("checking minute rate: %w", err)
	}

	return Verdict{Admitted: count < l.perMinute, CurrentRequests: count}, nil
}

// Record counts one admitted request against the current minute bucket.
func (l *Limiter) Record(ctx context.Context, userID string) (int, error) {
	return l.repo.Increment(ctx, userID, l.minuteKey())
}

// UsedThisMinute returns the current bucket count without admitting.
func (l *Limiter) UsedThisMinute(ctx context.Context, userID string) (int, error) {
	return l.repo.GetCount(ctx, userID, l.minuteKey())
}

// PerMinute exposes the configured ceiling for status responses.
func (l *Limiter) PerMinute() int {
	return l.perMinute
}

func (l *Limiter) minuteKey() time.Time {
	return l.now().UTC().Truncate(time.Minute)
}
