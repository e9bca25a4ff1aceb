package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/smmry-app/smmry-api/internal/metrics"
)

// processedRetention is how long processed entries are kept before purge.
// They are excluded from every position query, so this is purely audit
// housekeeping.
const processedRetention = 24 * time.Hour

// Sweeper reaps queue entries abandoned by clients that stopped polling.
// Correctness never depends on it; it only bounds queue growth and keeps a
// dead entry from lingering at the head of the line.
type Sweeper struct {
	repo     Repository
	entryTTL time.Duration
	interval time.Duration
}

func NewSweeper(repo Repository, entryTTL, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, entryTTL: entryTTL, interval: interval}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("queue sweeper started", "entry_ttl", s.entryTTL, "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("queue sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()

	reaped, err := s.repo.DeleteStale(ctx, now.Add(-s.entryTTL))
	if err != nil {
		slog.Warn("sweeping stale queue entries", "error", err)
	} else if reaped > 0 {
		metrics.QueueSweptTotal.Add(float64(reaped))
		slog.Info("reaped abandoned queue entries", "count", reaped)
	}

	if _, err := s.repo.PurgeProcessed(ctx, now.Add(-processedRetention)); err != nil {
		slog.Warn("purging processed queue entries", "error", err)
	}

	depth, err := s.repo.Depth(ctx)
	if err != nil {
		slog.Warn("reading queue depth", "error", err)
		return
	}
	metrics.QueueDepth.Set(float64(depth))
}
