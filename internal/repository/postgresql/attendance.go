package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_code, a.date, a.check_in, a.check_out,
	a.leave_status, a.sick_leave_deduction, a.attendance_status,
	a.late_minutes, a.early_leave_minutes, a.delay_minutes,
	a.overtime_hours, a.deducted_hours, a.deducted_days, a.remaining_grace_period,
	a.is_weekly_off, a.is_worked_weekly_off, a.pending_checkout,
	a.created_at, a.updated_at`

// scanRecord reads attendanceColumns, followed by the employee name when withName is set.
func scanRecord(row pgx.Row, withName bool) (attendance.Record, error) {
	var r attendance.Record
	dest := []any{
		&r.ID, &r.EmployeeCode, &r.Date, &r.CheckIn, &r.CheckOut,
		&r.LeaveStatus, &r.SickLeaveDeduction, &r.AttendanceStatus,
		&r.LateMinutes, &r.EarlyLeaveMinutes, &r.DelayMinutes,
		&r.OvertimeHours, &r.DeductedHours, &r.DeductedDays, &r.RemainingGracePeriod,
		&r.IsWeeklyOff, &r.IsWorkedWeeklyOff, &r.PendingCheckout,
		&r.CreatedAt, &r.UpdatedAt,
	}
	if withName {
		dest = append(dest, &r.EmployeeName)
	}
	err := row.Scan(dest...)
	return r, err
}

// UpsertSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpsertSession(ctx context.Context, session attendance.Session) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (employee_code, date, check_in, check_out)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_code, date) DO UPDATE SET
			check_in = LEAST(attendance_records.check_in, EXCLUDED.check_in),
			check_out = GREATEST(attendance_records.check_out, EXCLUDED.check_out),
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query, session.EmployeeCode, session.Date, session.CheckIn, session.CheckOut)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// UpsertLeave implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpsertLeave(ctx context.Context, employeeCode string, date time.Time, status attendance.Status, sickDeduction *float64) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (employee_code, date, leave_status, sick_leave_deduction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_code, date) DO UPDATE SET
			leave_status = EXCLUDED.leave_status,
			sick_leave_deduction = EXCLUDED.sick_leave_deduction,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query, employeeCode, date, status, sickDeduction)
	if err != nil {
		return fmt.Errorf("failed to upsert leave: %w", err)
	}
	return nil
}

// GetRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetRange(ctx context.Context, employeeCode string, start, end time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		WHERE a.employee_code = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, employeeCode, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance range: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance range: %w", err)
	}

	return records, nil
}

// SaveOutcomes implements attendance.AttendanceRepository. Every row of a
// pass is sent in one batch.
func (a *attendanceRepository) SaveOutcomes(ctx context.Context, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO attendance_records (
			employee_code, date, check_in, check_out, leave_status, sick_leave_deduction,
			attendance_status, late_minutes, early_leave_minutes, delay_minutes,
			overtime_hours, deducted_hours, deducted_days, remaining_grace_period,
			is_weekly_off, is_worked_weekly_off, pending_checkout
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (employee_code, date) DO UPDATE SET
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			leave_status = EXCLUDED.leave_status,
			sick_leave_deduction = EXCLUDED.sick_leave_deduction,
			attendance_status = EXCLUDED.attendance_status,
			late_minutes = EXCLUDED.late_minutes,
			early_leave_minutes = EXCLUDED.early_leave_minutes,
			delay_minutes = EXCLUDED.delay_minutes,
			overtime_hours = EXCLUDED.overtime_hours,
			deducted_hours = EXCLUDED.deducted_hours,
			deducted_days = EXCLUDED.deducted_days,
			remaining_grace_period = EXCLUDED.remaining_grace_period,
			is_weekly_off = EXCLUDED.is_weekly_off,
			is_worked_weekly_off = EXCLUDED.is_worked_weekly_off,
			pending_checkout = EXCLUDED.pending_checkout,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
			r.EmployeeCode, r.Date, r.CheckIn, r.CheckOut, r.LeaveStatus, r.SickLeaveDeduction,
			r.AttendanceStatus, r.LateMinutes, r.EarlyLeaveMinutes, r.DelayMinutes,
			r.OvertimeHours, r.DeductedHours, r.DeductedDays, r.RemainingGracePeriod,
			r.IsWeeklyOff, r.IsWorkedWeeklyOff, r.PendingCheckout,
		)
	}

	results := GetQuerier(ctx, a.db).SendBatch(ctx, batch)
	defer results.Close()

	for _, r := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save outcome for %s on %s: %w", r.EmployeeCode, r.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeCode != nil && *filter.EmployeeCode != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_code = $%d", argIdx)
		args = append(args, *filter.EmployeeCode)
		argIdx++
	}

	// Employee name filter (search)
	if filter.EmployeeName != nil && *filter.EmployeeName != "" {
		baseWhere += fmt.Sprintf(" AND e.full_name ILIKE $%d", argIdx)
		args = append(args, "%"+*filter.EmployeeName+"%")
		argIdx++
	}

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.attendance_status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM attendance_records a
		LEFT JOIN employees e ON e.employee_code = a.employee_code
		WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "a.date"
	switch filter.SortBy {
	case "employee_code":
		orderByField = "a.employee_code"
	case "employee_name":
		orderByField = "e.full_name"
	case "status":
		orderByField = "a.attendance_status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s, e.full_name AS employee_name
		FROM attendance_records a
		LEFT JOIN employees e ON e.employee_code = a.employee_code
		WHERE %s
		ORDER BY %s %s, a.employee_code ASC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanRecord(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return records, total, nil
}
