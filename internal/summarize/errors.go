package summarize

import (
	"errors"
	"fmt"
)

// Sentinel failures for the admission flow. Each maps to a stable HTTP
// outcome in the handler; nothing here escapes the package untyped.
var (
	ErrQuotaCheckFailed = errors.New("daily quota check failed")
	ErrSummarizerFailed = errors.New("summarization failed")
	// ErrUsageRecordFailed means a summary was produced but the usage write
	// failed: the paid-but-unrecorded inconsistency, logged distinctly for
	// reconciliation.
	ErrUsageRecordFailed = errors.New("usage recording failed")
)

// DailyLimitError denies the request for the rest of the UTC day.
type DailyLimitError struct {
	Limit int
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("Daily summarization limit reached (%d). Your limit resets at midnight UTC.", e.Limit)
}

// QueuedError is a deferred-admission signal, not a true failure: the
// caller holds the given place in line and should retry.
type QueuedError struct {
	Position int64
}

func (e *QueuedError) Error() string {
	return fmt.Sprintf("Too many requests right now. You are number %d in the queue; please retry shortly.", e.Position)
}
