//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
)

func TestQuotaRepo_IncrementAndReset(t *testing.T) {
	env := SetupTestEnv(t)
	ResetState(t, env)
	ctx := context.Background()

	// Fresh user: no record yet.
	rec, err := env.QuotaRepo.Get(ctx, "quota-user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected no record, got %+v", rec)
	}

	// Increments within the same day accumulate.
	for want := 1; want <= 3; want++ {
		count, err := env.QuotaRepo.IncrementOrReset(ctx, "quota-user")
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if count != want {
			t.Fatalf("count = %d, want %d", count, want)
		}
	}

	// Backdate the record to yesterday: the next increment starts over at 1.
	_, err = env.Pool.Exec(ctx,
		`UPDATE user_usage_records SET updated_at = NOW() - INTERVAL '25 hours' WHERE user_id = $1`,
		"quota-user")
	if err != nil {
		t.Fatalf("backdating record: %v", err)
	}

	count, err := env.QuotaRepo.IncrementOrReset(ctx, "quota-user")
	if err != nil {
		t.Fatalf("increment after reset: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after day boundary = %d, want 1", count)
	}
}

func TestQuotaRepo_ConcurrentIncrements(t *testing.T) {
	env := SetupTestEnv(t)
	ResetState(t, env)
	ctx := context.Background()

	// Ten concurrent increments must never lose an update.
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.QuotaRepo.IncrementOrReset(ctx, "hot-user"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent increment: %v", err)
	}

	rec, err := env.QuotaRepo.Get(ctx, "hot-user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || rec.DailyCount != 10 {
		t.Fatalf("daily count = %+v, want 10", rec)
	}
}
