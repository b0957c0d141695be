package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance reconciliation
type AttendanceService interface {
	// ImportPunches ingests a punch-clock spreadsheet and reconciles every employee in it
	ImportPunches(ctx context.Context, req ImportPunchesRequest) (ImportPunchesResponse, error)

	// Reconcile recomputes an employee's records for a date range
	Reconcile(ctx context.Context, req ReconcileRequest) (ReconcileResponse, error)

	// ReconcileActive reconciles every active employee over a date range
	ReconcileActive(ctx context.Context, start, end time.Time) (int, error)

	// SetLeave back-fills a leave status on a date and reconciles its month
	SetLeave(ctx context.Context, req SetLeaveRequest) (AttendanceResponse, error)

	// ListAttendance retrieves attendance records with filters
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// GetMonthlySummary aggregates a reconciled month
	GetMonthlySummary(ctx context.Context, req MonthlySummaryRequest) (MonthlySummaryResponse, error)
}
