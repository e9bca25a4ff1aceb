package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/smmry-app/smmry-api/internal/auth"
	"github.com/smmry-app/smmry-api/internal/config"
	"github.com/smmry-app/smmry-api/internal/metrics"
	"github.com/smmry-app/smmry-api/internal/quota"
	"github.com/smmry-app/smmry-api/internal/ratelimit"
	"github.com/smmry-app/smmry-api/internal/users"
)

// The service depends on behaviors, not concrete stores, so tests can
// exercise the full admission sequence in memory.
type TierResolver interface {
	ResolveTier(ctx context.Context, userID string) users.Tier
}

type QuotaTracker interface {
	CheckAndReserve(ctx context.Context, userID string, ceiling int) (quota.Decision, error)
	Commit(ctx context.Context, userID string) (int, error)
	UsedToday(ctx context.Context, userID string) (int, error)
}

type RateLimiter interface {
	Admit(ctx context.Context, userID string, tier users.Tier) (ratelimit.Verdict, error)
	Record(ctx context.Context, userID string) (int, error)
	UsedThisMinute(ctx context.Context, userID string) (int, error)
	PerMinute() int
}

type FairQueue interface {
	GetOrEnqueue(ctx context.Context, userID string) (int64, error)
	TryAdvance(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

// Service runs the admission sequence for each request: resolve tier,
// check the daily quota, check the minute rate (falling back to the fair
// queue), call the summarizer, then record usage. Usage is written only
// after the summarizer succeeds.
type Service struct {
	tiers      TierResolver
	quota      QuotaTracker
	limiter    RateLimiter
	queue      FairQueue
	summarizer Summarizer
	limits     config.LimitsConfig
}

func NewService(tiers TierResolver, qt QuotaTracker, rl RateLimiter, fq FairQueue, s Summarizer, limits config.LimitsConfig) *Service {
	return &Service{
		tiers:      tiers,
		quota:      qt,
		limiter:    rl,
		queue:      fq,
		summarizer: s,
		limits:     limits,
	}
}

// dailyCeiling picks the configured ceiling for the caller. Premium may be
// unlimited (0); free users get the ceiling of the provider they signed in
// with.
func (s *Service) dailyCeiling(tier users.Tier, provider string) int {
	if tier == users.TierPremium {
		return s.limits.PremiumDaily
	}
	if provider == auth.ProviderAnonymous {
		return s.limits.AnonymousDaily
	}
	return s.limits.GoogleDaily
}

func (s *Service) Summarize(ctx context.Context, id auth.Identity, req Request) (*Result, error) {
	tier := s.tiers.ResolveTier(ctx, id.UserID)
	ceiling := s.dailyCeiling(tier, id.Provider)

	decision, err := s.quota.CheckAndReserve(ctx, id.UserID, ceiling)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues("quota_check_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrQuotaCheckFailed, err)
	}
	if !decision.Allowed {
		metrics.AdmissionsTotal.WithLabelValues("daily_limit").Inc()
		return nil, &DailyLimitError{Limit: ceiling}
	}

	verdict, err := s.limiter.Admit(ctx, id.UserID, tier)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues("rate_check_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrQuotaCheckFailed, err)
	}

	if !verdict.Admitted {
		// Over the minute rate: a poll from the longest-waiting user claims
		// the queue head; everyone else (re-)joins the line.
		advanced, err := s.queue.TryAdvance(ctx, id.UserID)
		if err != nil {
			metrics.AdmissionsTotal.WithLabelValues("queue_failed").Inc()
			return nil, fmt.Errorf("%w: %v", ErrQuotaCheckFailed, err)
		}
		if !advanced {
			pos, err := s.queue.GetOrEnqueue(ctx, id.UserID)
			if err != nil {
				metrics.AdmissionsTotal.WithLabelValues("queue_failed").Inc()
				return nil, fmt.Errorf("%w: %v", ErrQuotaCheckFailed, err)
			}
			metrics.AdmissionsTotal.WithLabelValues("queued").Inc()
			return nil, &QueuedError{Position: pos}
		}
	} else {
		// Admitted straight through the minute gate: clear any entry left
		// over from an earlier overflow so it cannot block the line.
		if err := s.queue.Release(ctx, id.UserID); err != nil {
			slog.Warn("releasing queue entry on admission", "error", err, "user_id", id.UserID)
		}
	}

	summary, err := s.summarizer.Summarize(ctx, req)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues("summarizer_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSummarizerFailed, err)
	}

	// Record usage only now, after cost was incurred and a summary exists.
	if tier != users.TierPremium {
		if _, err := s.limiter.Record(ctx, id.UserID); err != nil {
			metrics.AdmissionsTotal.WithLabelValues("usage_record_failed").Inc()
			slog.Error("summary produced but minute bucket not recorded",
				"error", err, "user_id", id.UserID)
			return nil, fmt.Errorf("%w: %v", ErrUsageRecordFailed, err)
		}
	}

	persisted, err := s.quota.Commit(ctx, id.UserID)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues("usage_record_failed").Inc()
		slog.Error("summary produced but daily usage not recorded",
			"error", err, "user_id", id.UserID)
		return nil, fmt.Errorf("%w: %v", ErrUsageRecordFailed, err)
	}
	if persisted != decision.NextCount {
		// Concurrent requests from the same user moved the count; harmless,
		// but worth seeing in logs.
		slog.Debug("daily count drifted from reservation",
			"reserved", decision.NextCount, "persisted", persisted, "user_id", id.UserID)
	}

	metrics.AdmissionsTotal.WithLabelValues("admitted").Inc()
	return buildResult(summary, req), nil
}

// QuotaStatus reports the caller's usage against both windows.
func (s *Service) QuotaStatus(ctx context.Context, id auth.Identity) (*QuotaStatus, error) {
	tier := s.tiers.ResolveTier(ctx, id.UserID)

	used, err := s.quota.UsedToday(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuotaCheckFailed, err)
	}

	minuteUsed, err := s.limiter.UsedThisMinute(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuotaCheckFailed, err)
	}

	return &QuotaStatus{
		Tier:               string(tier),
		RequestsToday:      used,
		DailyLimit:         s.dailyCeiling(tier, id.Provider),
		RequestsThisMinute: minuteUsed,
		MinuteLimit:        s.limiter.PerMinute(),
	}, nil
}

func buildResult(summary string, req Request) *Result {
	original := wordCount(req.Text)
	summarized := wordCount(summary)

	reduced := 0
	if original > 0 {
		reduced = int(math.Round((1 - float64(summarized)/float64(original)) * 100))
	}

	return &Result{
		Summary: summary,
		Metadata: Metadata{
			OriginalWordCount: original,
			SummaryWordCount:  summarized,
			PercentReduced:    reduced,
			Length:            req.Length,
			Style:             req.Style,
			Complexity:        req.Complexity,
		},
	}
}
