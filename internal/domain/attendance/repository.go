package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Records are unique per (employee_code, date).
type AttendanceRepository interface {
	// UpsertSession stores punches for a date, keeping the earliest
	// check-in and the latest check-out already on file.
	UpsertSession(ctx context.Context, session Session) error

	// UpsertLeave assigns a leave status to a date, creating the record if needed.
	UpsertLeave(ctx context.Context, employeeCode string, date time.Time, status Status, sickDeduction *float64) error

	// GetRange returns records for one employee ordered by date ascending.
	GetRange(ctx context.Context, employeeCode string, start, end time.Time) ([]Record, error)

	// SaveOutcomes writes reconciled results, creating records for back-filled dates.
	SaveOutcomes(ctx context.Context, records []Record) error

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Record, int64, error)
}

// Locker serializes reconciliation passes per employee. fn runs with a
// context that repositories use for their queries.
type Locker interface {
	WithEmployeeLock(ctx context.Context, employeeCode string, fn func(ctx context.Context) error) error
}
