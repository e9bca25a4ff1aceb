package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rec    *UsageRecord
	getErr error
	incErr error
}

func (f *fakeRepo) Get(ctx context.Context, userID string) (*UsageRecord, error) {
	return f.rec, f.getErr
}

func (f *fakeRepo) IncrementOrReset(ctx context.Context, userID string) (int, error) {
	if f.incErr != nil {
		return 0, f.incErr
	}
	now := time.Now()
	if f.rec == nil {
		f.rec = &UsageRecord{UserID: userID, DailyCount: 1, UpdatedAt: now}
	} else if f.rec.UpdatedAt.UTC().Before(now.UTC().Truncate(24 * time.Hour)) {
		f.rec.DailyCount = 1
		f.rec.UpdatedAt = now
	} else {
		f.rec.DailyCount++
		f.rec.UpdatedAt = now
	}
	return f.rec.DailyCount, nil
}

func newTracker(repo Repository, now time.Time) *Tracker {
	t := NewTracker(repo)
	t.now = func() time.Time { return now }
	return t
}

func TestCheckAndReserve_FirstEverCall(t *testing.T) {
	tr := newTracker(&fakeRepo{}, time.Now())

	d, err := tr.CheckAndReserve(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.NextCount)
}

func TestCheckAndReserve_SameDayUnderCeiling(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	repo := &fakeRepo{rec: &UsageRecord{UserID: "u1", DailyCount: 3, UpdatedAt: now.Add(-time.Hour)}}
	tr := newTracker(repo, now)

	d, err := tr.CheckAndReserve(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.NextCount)
}

func TestCheckAndReserve_AtCeiling(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	repo := &fakeRepo{rec: &UsageRecord{UserID: "u1", DailyCount: 5, UpdatedAt: now.Add(-time.Minute)}}
	tr := newTracker(repo, now)

	d, err := tr.CheckAndReserve(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestCheckAndReserve_DayBoundaryResets(t *testing.T) {
	// Heavy usage yesterday, checked a minute after UTC midnight.
	now := time.Date(2026, 3, 15, 0, 1, 0, 0, time.UTC)
	repo := &fakeRepo{rec: &UsageRecord{UserID: "u1", DailyCount: 99, UpdatedAt: now.Add(-2 * time.Minute)}}
	tr := newTracker(repo, now)

	d, err := tr.CheckAndReserve(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.NextCount)
}

func TestCheckAndReserve_SameDayJustAfterMidnight(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 5, 0, 0, time.UTC)
	repo := &fakeRepo{rec: &UsageRecord{UserID: "u1", DailyCount: 2, UpdatedAt: now.Add(-time.Minute)}}
	tr := newTracker(repo, now)

	d, err := tr.CheckAndReserve(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.NextCount)
}

func TestCheckAndReserve_UnlimitedCeiling(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{rec: &UsageRecord{UserID: "u1", DailyCount: 100000, UpdatedAt: now}}
	tr := newTracker(repo, now)

	d, err := tr.CheckAndReserve(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 100001, d.NextCount)
}

func TestCheckAndReserve_ReadErrorIsHardFailure(t *testing.T) {
	tr := newTracker(&fakeRepo{getErr: errors.New("connection reset")}, time.Now())

	_, err := tr.CheckAndReserve(context.Background(), "u1", 5)
	assert.Error(t, err)
}

func TestCommit_MatchesReservedCount(t *testing.T) {
	repo := &fakeRepo{}
	tr := newTracker(repo, time.Now())
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		d, err := tr.CheckAndReserve(ctx, "u1", 10)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		assert.Equal(t, want, d.NextCount)

		got, err := tr.Commit(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, d.NextCount, got)
	}
}

func TestUsedToday(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	tr := newTracker(&fakeRepo{}, now)
	used, err := tr.UsedToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	tr = newTracker(&fakeRepo{rec: &UsageRecord{DailyCount: 4, UpdatedAt: now.Add(-time.Hour)}}, now)
	used, err = tr.UsedToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, used)

	// Yesterday's record reads as zero today.
	tr = newTracker(&fakeRepo{rec: &UsageRecord{DailyCount: 4, UpdatedAt: now.Add(-24 * time.Hour)}}, now)
	used, err = tr.UsedToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, used)
}
