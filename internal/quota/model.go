package quota

import "time"

// UsageRecord matches the user_usage_records table. One row per user,
// never deleted; the count resets implicitly on the first commit of a new
// UTC day.
type UsageRecord struct {
	UserID     string
	DailyCount int
	UpdatedAt  time.Time
}

// Decision is the outcome of a read-only quota check. NextCount is the
// value a subsequent Commit would persist; the caller commits only after
// the summarization succeeds so that failures are never counted.
type Decision struct {
	Allowed   bool
	NextCount int
}
