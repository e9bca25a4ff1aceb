package ratelimit

import "time"

// Bucket matches the minute_buckets table: one row per (user, UTC minute).
// Rows for past minutes are never mutated again; they stay for audit.
type Bucket struct {
	UserID        string
	Minute        time.Time
	RequestCount  int
	LastRequestAt time.Time
}

// Verdict is the outcome of a read-only minute-rate check.
type Verdict struct {
	Admitted        bool
	CurrentRequests int
}
