package queue

import (
	"time"

	"github.com/google/uuid"
)

// Entry matches the queue_entries table. Positions come from a database
// sequence: monotonic, never reused, defining arrival order. At most one
// unprocessed entry exists per user (partial unique index).
type Entry struct {
	ID          uuid.UUID
	UserID      string
	Position    int64
	Processed   bool
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
