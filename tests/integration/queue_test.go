//go:build integration

package integration

import (
	"context"
	"testing"
	"time"
)

func TestQueueRepo_PositionsAndIdempotency(t *testing.T) {
	env := SetupTestEnv(t)
	ResetState(t, env)
	ctx := context.Background()

	pos1, err := env.QueueRepo.InsertOrGet(ctx, "qa")
	if err != nil {
		t.Fatalf("enqueue qa: %v", err)
	}
	pos2, err := env.QueueRepo.InsertOrGet(ctx, "qb")
	if err != nil {
		t.Fatalf("enqueue qb: %v", err)
	}
	if pos2 <= pos1 {
		t.Fatalf("positions not increasing: %d then %d", pos1, pos2)
	}

	// Re-enqueueing an already-waiting user returns the same position.
	again, err := env.QueueRepo.InsertOrGet(ctx, "qa")
	if err != nil {
		t.Fatalf("re-enqueue qa: %v", err)
	}
	if again != pos1 {
		t.Fatalf("re-enqueue position = %d, want %d", again, pos1)
	}

	depth, err := env.QueueRepo.Depth(ctx)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 2 {
		t.Fatalf("depth = %d, want 2", depth)
	}
}

func TestQueueRepo_ClaimHeadIsFIFO(t *testing.T) {
	env := SetupTestEnv(t)
	ResetState(t, env)
	ctx := context.Background()

	if _, err := env.QueueRepo.InsertOrGet(ctx, "first"); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if _, err := env.QueueRepo.InsertOrGet(ctx, "second"); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	// The second user cannot claim past the first.
	claimed, err := env.QueueRepo.ClaimHead(ctx, "second")
	if err != nil {
		t.Fatalf("claim second: %v", err)
	}
	if claimed {
		t.Fatal("second user claimed the head over the first")
	}

	claimed, err = env.QueueRepo.ClaimHead(ctx, "first")
	if err != nil {
		t.Fatalf("claim first: %v", err)
	}
	if !claimed {
		t.Fatal("head user could not claim")
	}

	// A claim is terminal: the same user cannot claim twice.
	claimed, err = env.QueueRepo.ClaimHead(ctx, "first")
	if err != nil {
		t.Fatalf("re-claim first: %v", err)
	}
	if claimed {
		t.Fatal("processed entry claimed again")
	}

	// With the first entry processed, the second is now the head.
	claimed, err = env.QueueRepo.ClaimHead(ctx, "second")
	if err != nil {
		t.Fatalf("claim second after first: %v", err)
	}
	if !claimed {
		t.Fatal("second user could not claim after head was processed")
	}
}

func TestQueueRepo_PositionNotReusedAfterRelease(t *testing.T) {
	env := SetupTestEnv(t)
	ResetState(t, env)
	ctx := context.Background()

	pos1, err := env.QueueRepo.InsertOrGet(ctx, "cycler")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := env.QueueRepo.ReleaseUser(ctx, "cycler"); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Released users re-enter at the back, with a strictly newer position.
	pos2, err := env.QueueRepo.InsertOrGet(ctx, "cycler")
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if pos2 <= pos1 {
		t.Fatalf("position reused: %d then %d", pos1, pos2)
	}
}

func TestQueueRepo_SweepRemovesStaleEntries(t *testing.T) {
	env := SetupTestEnv(t)
	ResetState(t, env)
	ctx := context.Background()

	if _, err := env.QueueRepo.InsertOrGet(ctx, "stale"); err != nil {
		t.Fatalf("enqueue stale: %v", err)
	}
	if _, err := env.QueueRepo.InsertOrGet(ctx, "fresh"); err != nil {
		t.Fatalf("enqueue fresh: %v", err)
	}

	// Age the first entry past the TTL cutoff.
	_, err := env.Pool.Exec(ctx,
		`UPDATE queue_entries SET created_at = NOW() - INTERVAL '1 hour' WHERE user_id = $1`, "stale")
	if err != nil {
		t.Fatalf("aging entry: %v", err)
	}

	removed, err := env.QueueRepo.DeleteStale(ctx, time.Now().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	// The fresh entry is now the head.
	claimed, err := env.QueueRepo.ClaimHead(ctx, "fresh")
	if err != nil {
		t.Fatalf("claim fresh: %v", err)
	}
	if !claimed {
		t.Fatal("fresh user blocked after stale entry was swept")
	}
}
