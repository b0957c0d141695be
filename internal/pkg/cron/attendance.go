package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
)

const ReconcileJobName = "reconcile_attendance"

// ReconcileJobs closes out the previous day for every active employee:
// days with no punches become absences and the grace chain advances.
type ReconcileJobs struct {
	attendanceService attendance.AttendanceService
	loc               *time.Location
	now               func() time.Time

	mu       sync.Mutex
	lastDate time.Time
}

func NewReconcileJobs(attendanceService attendance.AttendanceService, loc *time.Location) *ReconcileJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &ReconcileJobs{
		attendanceService: attendanceService,
		loc:               loc,
		now:               time.Now,
	}
}

// RegisterJobs checks every interval whether a new local day has started.
func (j *ReconcileJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) error {
	return scheduler.AddJob(&Job{
		Name:       ReconcileJobName,
		Interval:   interval,
		Fn:         j.ReconcilePreviousDay,
		RunOnStart: true,
	})
}

// ReconcilePreviousDay reconciles yesterday, in the configured location, at
// most once per calendar day.
func (j *ReconcileJobs) ReconcilePreviousDay(ctx context.Context) error {
	local := j.now().In(j.loc)
	yesterday := timeutil.TruncateDay(local).AddDate(0, 0, -1)

	j.mu.Lock()
	done := !j.lastDate.IsZero() && !yesterday.After(j.lastDate)
	j.mu.Unlock()
	if done {
		return nil
	}

	slog.Info("Cron: Starting attendance reconciliation", "date", timeutil.DateKey(yesterday))

	count, err := j.attendanceService.ReconcileActive(ctx, yesterday, yesterday)
	if err != nil {
		return fmt.Errorf("failed to reconcile %s: %w", timeutil.DateKey(yesterday), err)
	}

	j.mu.Lock()
	j.lastDate = yesterday
	j.mu.Unlock()

	slog.Info("Cron: Attendance reconciliation completed", "date", timeutil.DateKey(yesterday), "employees", count)
	return nil
}
