package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rangeCall struct {
	start, end time.Time
}

type fakeAttendanceService struct {
	attendance.AttendanceService

	mu    sync.Mutex
	calls []rangeCall
	err   error
}

func (f *fakeAttendanceService) ReconcileActive(ctx context.Context, start, end time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rangeCall{start: start, end: end})
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReconcilePreviousDay_OncePerDay(t *testing.T) {
	svc := &fakeAttendanceService{}
	jakarta := time.FixedZone("WIB", 7*60*60)
	jobs := NewReconcileJobs(svc, jakarta)

	// 2024-03-05 18:30 UTC is already 2024-03-06 01:30 in Jakarta.
	now := time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)
	jobs.now = func() time.Time { return now }

	require.NoError(t, jobs.ReconcilePreviousDay(context.Background()))
	require.Len(t, svc.calls, 1)
	assert.Equal(t, date(2024, 3, 5), svc.calls[0].start)
	assert.Equal(t, date(2024, 3, 5), svc.calls[0].end)

	now = now.Add(2 * time.Hour)
	require.NoError(t, jobs.ReconcilePreviousDay(context.Background()))
	assert.Len(t, svc.calls, 1)

	now = now.Add(24 * time.Hour)
	require.NoError(t, jobs.ReconcilePreviousDay(context.Background()))
	require.Len(t, svc.calls, 2)
	assert.Equal(t, date(2024, 3, 6), svc.calls[1].start)
}

func TestReconcilePreviousDay_RetriesAfterFailure(t *testing.T) {
	svc := &fakeAttendanceService{err: errors.New("database unavailable")}
	jobs := NewReconcileJobs(svc, time.UTC)
	jobs.now = func() time.Time { return time.Date(2024, 3, 6, 0, 15, 0, 0, time.UTC) }

	err := jobs.ReconcilePreviousDay(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-03-05")

	svc.err = nil
	require.NoError(t, jobs.ReconcilePreviousDay(context.Background()))
	assert.Len(t, svc.calls, 2)
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := &fakeAttendanceService{}
	jobs := NewReconcileJobs(svc, time.UTC)
	jobs.now = func() time.Time { return time.Date(2024, 3, 6, 0, 15, 0, 0, time.UTC) }

	scheduler := NewScheduler()
	require.NoError(t, jobs.RegisterJobs(scheduler, time.Hour))
	assert.Error(t, jobs.RegisterJobs(scheduler, time.Hour), "duplicate job name")

	require.NoError(t, scheduler.RunOnce(context.Background()))
	assert.Len(t, svc.calls, 1)
}

func TestScheduler_AddJobValidation(t *testing.T) {
	scheduler := NewScheduler()
	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, scheduler.AddJob(&Job{Interval: time.Minute, Fn: noop}))
	assert.Error(t, scheduler.AddJob(&Job{Name: "no_fn", Interval: time.Minute}))
	assert.Error(t, scheduler.AddJob(&Job{Name: "zero", Fn: noop}))
	assert.NoError(t, scheduler.AddJob(&Job{Name: "ok", Interval: time.Minute, Fn: noop}))
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	scheduler := NewScheduler()
	release := make(chan struct{})
	started := make(chan struct{})
	job := &Job{
		Name:     "slow",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		},
	}
	require.NoError(t, scheduler.AddJob(job))

	done := make(chan bool)
	go func() {
		ran, _ := scheduler.execute(context.Background(), job)
		done <- ran
	}()
	<-started

	ran, err := scheduler.execute(context.Background(), job)
	assert.NoError(t, err)
	assert.False(t, ran)

	close(release)
	assert.True(t, <-done)
}

func TestScheduler_StartStop(t *testing.T) {
	svc := &fakeAttendanceService{}
	jobs := NewReconcileJobs(svc, time.UTC)
	jobs.now = func() time.Time { return time.Date(2024, 3, 6, 0, 15, 0, 0, time.UTC) }

	scheduler := NewScheduler()
	require.NoError(t, jobs.RegisterJobs(scheduler, time.Hour))
	scheduler.Start()

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.calls) == 1
	}, time.Second, 10*time.Millisecond)

	scheduler.Stop()
}
