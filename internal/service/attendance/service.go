package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/file"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	shiftRepo      shift.ShiftRepository
	locker         attendance.Locker
	fileService    file.FileService
	workers        int
	// now reads the wall clock in the configured zone, in the same naive
	// form as stored dates.
	now func() time.Time
}

// pass is the result of one reconciliation run for an employee.
type pass struct {
	from, end      time.Time
	outcomes       []attendance.DayOutcome
	remainingGrace int
	published      bool
}

// ImportPunches implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ImportPunches(ctx context.Context, req attendance.ImportPunchesRequest) (attendance.ImportPunchesResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ImportPunchesResponse{}, err
	}

	batchID, err := uuid.NewV7()
	if err != nil {
		return attendance.ImportPunchesResponse{}, fmt.Errorf("failed to generate batch id: %w", err)
	}

	data, err := io.ReadAll(req.File)
	if err != nil {
		return attendance.ImportPunchesResponse{}, fmt.Errorf("failed to read attendance file: %w", err)
	}

	sheet, err := parsePunchSheet(bytes.NewReader(data))
	if err != nil {
		return attendance.ImportPunchesResponse{}, err
	}

	resp := attendance.ImportPunchesResponse{
		BatchID:         batchID.String(),
		TotalRows:       sheet.TotalRows,
		AcceptedPunches: sheet.accepted(),
		InvalidRows:     sheet.InvalidRows,
		RowErrors:       sheet.RowErrors,
		Employees:       []attendance.EmployeeImportResult{},
	}

	path, err := a.fileService.ArchiveImport(ctx, resp.BatchID, a.now(), bytes.NewReader(data), req.FileHeader.Filename)
	if err != nil {
		return attendance.ImportPunchesResponse{}, err
	}
	if url, err := a.fileService.GetFileURL(ctx, path, 0); err == nil {
		resp.FileURL = url
	}

	codes := make([]string, 0, len(sheet.Punches))
	for code := range sheet.Punches {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	employees, err := a.employeeRepo.GetByCodes(ctx, codes)
	if err != nil {
		return attendance.ImportPunchesResponse{}, fmt.Errorf("failed to load employees: %w", err)
	}

	shiftIDs := make([]string, 0, len(employees))
	for _, emp := range employees {
		if !slices.Contains(shiftIDs, emp.ShiftID) {
			shiftIDs = append(shiftIDs, emp.ShiftID)
		}
	}
	shifts, err := a.shiftRepo.GetByIDs(ctx, shiftIDs)
	if err != nil {
		return attendance.ImportPunchesResponse{}, fmt.Errorf("failed to load shifts: %w", err)
	}

	var mu sync.Mutex
	skip := func(code string, reason error) {
		mu.Lock()
		defer mu.Unlock()
		resp.Skipped = append(resp.Skipped, attendance.SkippedEmployee{EmployeeCode: code, Reason: reason.Error()})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, code := range codes {
		emp, ok := employees[code]
		if !ok {
			skip(code, employee.ErrEmployeeNotFound)
			continue
		}
		if !emp.IsActive {
			skip(code, employee.ErrEmployeeInactive)
			continue
		}
		sh, ok := shifts[emp.ShiftID]
		if !ok {
			slog.Warn("Skipping employee with unknown shift", "batch_id", resp.BatchID, "employee_code", code, "shift_id", emp.ShiftID)
			skip(code, shift.ErrShiftNotFound)
			continue
		}
		if len(sh.WorkDays) == 0 {
			slog.Error("Shift configuration has no work days", "batch_id", resp.BatchID, "shift_id", sh.ID, "employee_code", code)
			skip(code, fmt.Errorf("shift %q: %w", sh.Name, shift.ErrMissingWorkDays))
			continue
		}

		punches := sheet.Punches[code]
		g.Go(func() error {
			result, err := a.importEmployee(gctx, emp, sh, punches)
			if isSkippable(err) {
				skip(emp.EmployeeCode, err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.EmployeeCode, err)
			}
			mu.Lock()
			resp.Employees = append(resp.Employees, result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("Attendance import failed", "batch_id", resp.BatchID, "error", err)
		return attendance.ImportPunchesResponse{}, err
	}

	slices.SortFunc(resp.Employees, func(x, y attendance.EmployeeImportResult) int {
		return strings.Compare(x.EmployeeCode, y.EmployeeCode)
	})
	slices.SortFunc(resp.Skipped, func(x, y attendance.SkippedEmployee) int {
		return strings.Compare(x.EmployeeCode, y.EmployeeCode)
	})

	slog.Info("Imported attendance punches",
		"batch_id", resp.BatchID,
		"file", path,
		"rows", resp.TotalRows,
		"punches", resp.AcceptedPunches,
		"invalid_rows", resp.InvalidRows,
		"employees", len(resp.Employees),
		"skipped", len(resp.Skipped),
	)

	return resp, nil
}

// importEmployee stores one employee's sessions and reconciles from the
// earliest touched date.
func (a *AttendanceServiceImpl) importEmployee(ctx context.Context, emp employee.Employee, sh shift.Shift, punches []attendance.Punch) (attendance.EmployeeImportResult, error) {
	sessions := SortedSessions(BuildSessions(sh, punches))
	if len(sessions) == 0 {
		return attendance.EmployeeImportResult{EmployeeCode: emp.EmployeeCode}, nil
	}
	start, end := sessions[0].Date, sessions[len(sessions)-1].Date

	var p pass
	err := a.locker.WithEmployeeLock(ctx, emp.EmployeeCode, func(ctx context.Context) error {
		for _, sess := range sessions {
			if err := a.attendanceRepo.UpsertSession(ctx, sess); err != nil {
				return fmt.Errorf("failed to store session %s: %w", timeutil.DateKey(sess.Date), err)
			}
		}
		var err error
		p, err = a.reconcileLocked(ctx, emp, sh, start, end)
		return err
	})
	if err != nil {
		return attendance.EmployeeImportResult{}, err
	}

	return attendance.EmployeeImportResult{
		EmployeeCode:   emp.EmployeeCode,
		Punches:        len(punches),
		Sessions:       len(sessions),
		StartDate:      timeutil.DateKey(start),
		EndDate:        timeutil.DateKey(p.end),
		RemainingGrace: p.remainingGrace,
	}, nil
}

// resumePoint finds where a pass touching start must begin. A reconciled
// record on the previous day of the same month provides the carried grace;
// otherwise the pass restarts at the first of the month.
func (a *AttendanceServiceImpl) resumePoint(ctx context.Context, sh shift.Shift, code string, start time.Time) (time.Time, int, error) {
	start = timeutil.TruncateDay(start)
	monthStart := timeutil.MonthStart(start)
	if start.Equal(monthStart) {
		return monthStart, sh.GracePeriod, nil
	}

	prevDay := start.AddDate(0, 0, -1)
	prev, err := a.attendanceRepo.GetRange(ctx, code, prevDay, prevDay)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to load previous day: %w", err)
	}
	if len(prev) == 1 && prev[0].RemainingGracePeriod != nil && prev[0].AttendanceStatus != nil {
		return start, *prev[0].RemainingGracePeriod, nil
	}

	return monthStart, sh.GracePeriod, nil
}

// carryLookbackDays bounds how far back carryInto looks for a rotation
// whose overflow still reaches the pass start.
const carryLookbackDays = 3

// carryInto returns the seed that days before from carry into from, or nil.
// Only continuous shifts split over-long rotations.
func (a *AttendanceServiceImpl) carryInto(ctx context.Context, sh shift.Shift, code string, from time.Time) (*attendance.Session, error) {
	if sh.Type != shift.TypeContinuous24 {
		return nil, nil
	}
	first, last := from.AddDate(0, 0, -carryLookbackDays), from.AddDate(0, 0, -1)
	stored, err := a.attendanceRepo.GetRange(ctx, code, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load carried sessions: %w", err)
	}
	if len(stored) == 0 {
		return nil, nil
	}

	sessions := make(map[string]attendance.Session, len(stored))
	for _, r := range stored {
		sessions[timeutil.DateKey(r.Date)] = r.Session()
	}
	outcomes, err := FoldMonth(sh, sh.GracePeriod, FillRange(code, first, last, sessions))
	if err != nil {
		return nil, err
	}
	if seed := outcomes[len(outcomes)-1].Seed; seed != nil && timeutil.TruncateDay(seed.Date).Equal(from) {
		return seed, nil
	}
	return nil, nil
}

// reconcileLocked recomputes stored records from start through end, and
// through the last stored record of end's month. Callers hold the
// employee lock.
func (a *AttendanceServiceImpl) reconcileLocked(ctx context.Context, emp employee.Employee, sh shift.Shift, start, end time.Time) (pass, error) {
	from, grace, err := a.resumePoint(ctx, sh, emp.EmployeeCode, start)
	if err != nil {
		return pass{}, err
	}

	end = timeutil.TruncateDay(end)
	stored, err := a.attendanceRepo.GetRange(ctx, emp.EmployeeCode, from, timeutil.MonthEnd(end))
	if err != nil {
		return pass{}, fmt.Errorf("failed to load attendance records: %w", err)
	}
	if n := len(stored); n > 0 {
		if last := timeutil.TruncateDay(stored[n-1].Date); last.After(end) {
			end = last
		}
	}

	sessions := make(map[string]attendance.Session, len(stored))
	for _, r := range stored {
		sessions[timeutil.DateKey(r.Date)] = r.Session()
	}

	carry, err := a.carryInto(ctx, sh, emp.EmployeeCode, from)
	if err != nil {
		return pass{}, err
	}
	days := FillRange(emp.EmployeeCode, from, end, sessions)
	if carry != nil && len(days) > 0 {
		days[0] = mergeSeed(days[0], *carry)
	}

	outcomes, err := FoldMonth(sh, grace, days)
	if err != nil {
		return pass{}, err
	}

	records := make([]attendance.Record, 0, len(outcomes))
	for _, o := range outcomes {
		sess := sessions[timeutil.DateKey(o.Date)]
		records = append(records, attendance.NewRecordFromOutcome(o, sess.LeaveStatus, sess.SickLeaveDeduction))
	}
	if err := a.attendanceRepo.SaveOutcomes(ctx, records); err != nil {
		return pass{}, fmt.Errorf("failed to save attendance outcomes: %w", err)
	}

	p := pass{from: from, end: end, outcomes: outcomes, remainingGrace: grace}
	if n := len(outcomes); n > 0 {
		p.remainingGrace = outcomes[n-1].RemainingGrace
	}

	now := a.now()
	if ShouldPublishGrace(from, end, now) {
		month := timeutil.MonthKey(now)
		balance, found := 0, false
		for _, o := range outcomes {
			if timeutil.MonthKey(o.Date) == month {
				balance, found = o.RemainingGrace, true
			}
		}
		if found {
			if err := a.employeeRepo.UpdateGraceBalance(ctx, emp.EmployeeCode, month, balance); err != nil {
				return pass{}, fmt.Errorf("failed to publish grace balance: %w", err)
			}
			p.published = true
		}
	}

	return p, nil
}

// loadEmployeeShift resolves an employee and the shift they are reconciled against.
func (a *AttendanceServiceImpl) loadEmployeeShift(ctx context.Context, code string) (employee.Employee, shift.Shift, error) {
	emp, err := a.employeeRepo.GetByCode(ctx, code)
	if err != nil {
		return employee.Employee{}, shift.Shift{}, err
	}
	sh, err := a.shiftRepo.GetByID(ctx, emp.ShiftID)
	if err != nil {
		return employee.Employee{}, shift.Shift{}, err
	}
	return emp, sh, nil
}

// Reconcile implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Reconcile(ctx context.Context, req attendance.ReconcileRequest) (attendance.ReconcileResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ReconcileResponse{}, err
	}
	start, _ := timeutil.ParseDate(req.StartDate)
	end, _ := timeutil.ParseDate(req.EndDate)

	emp, sh, err := a.loadEmployeeShift(ctx, req.EmployeeCode)
	if err != nil {
		return attendance.ReconcileResponse{}, err
	}

	var p pass
	var records []attendance.Record
	err = a.locker.WithEmployeeLock(ctx, emp.EmployeeCode, func(ctx context.Context) error {
		var err error
		if p, err = a.reconcileMonths(ctx, emp, sh, start, end); err != nil {
			return err
		}
		records, err = a.attendanceRepo.GetRange(ctx, emp.EmployeeCode, start, end)
		return err
	})
	if err != nil {
		return attendance.ReconcileResponse{}, err
	}

	days := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		days = append(days, attendance.NewAttendanceResponse(r))
	}

	return attendance.ReconcileResponse{
		EmployeeCode:   emp.EmployeeCode,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		RemainingGrace: p.remainingGrace,
		GracePublished: p.published,
		Days:           days,
	}, nil
}

// reconcileMonths runs one pass per calendar month so that every month in
// a long range is walked to its last stored record.
func (a *AttendanceServiceImpl) reconcileMonths(ctx context.Context, emp employee.Employee, sh shift.Shift, start, end time.Time) (pass, error) {
	var last pass
	published := false
	for monthStart := timeutil.MonthStart(start); !monthStart.After(end); monthStart = monthStart.AddDate(0, 1, 0) {
		from := monthStart
		if from.Before(start) {
			from = start
		}
		to := timeutil.MonthEnd(monthStart)
		if to.After(end) {
			to = end
		}
		p, err := a.reconcileLocked(ctx, emp, sh, from, to)
		if err != nil {
			return pass{}, err
		}
		published = published || p.published
		last = p
	}
	last.published = published
	return last, nil
}

// ReconcileActive implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ReconcileActive(ctx context.Context, start, end time.Time) (int, error) {
	employees, err := a.employeeRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	shiftIDs := make([]string, 0)
	for _, emp := range employees {
		if !slices.Contains(shiftIDs, emp.ShiftID) {
			shiftIDs = append(shiftIDs, emp.ShiftID)
		}
	}
	shifts, err := a.shiftRepo.GetByIDs(ctx, shiftIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load shifts: %w", err)
	}

	var (
		mu         sync.Mutex
		reconciled int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, emp := range employees {
		sh, ok := shifts[emp.ShiftID]
		if !ok || len(sh.WorkDays) == 0 {
			slog.Warn("Skipping employee with unusable shift", "employee_code", emp.EmployeeCode, "shift_id", emp.ShiftID)
			continue
		}
		g.Go(func() error {
			err := a.locker.WithEmployeeLock(gctx, emp.EmployeeCode, func(ctx context.Context) error {
				_, err := a.reconcileMonths(ctx, emp, sh, start, end)
				return err
			})
			if isSkippable(err) {
				slog.Warn("Skipping employee", "employee_code", emp.EmployeeCode, "error", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.EmployeeCode, err)
			}
			mu.Lock()
			reconciled++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reconciled, err
	}
	return reconciled, nil
}

// SetLeave implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SetLeave(ctx context.Context, req attendance.SetLeaveRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	date, _ := timeutil.ParseDate(req.Date)

	emp, sh, err := a.loadEmployeeShift(ctx, req.EmployeeCode)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var record attendance.Record
	err = a.locker.WithEmployeeLock(ctx, emp.EmployeeCode, func(ctx context.Context) error {
		if err := a.attendanceRepo.UpsertLeave(ctx, emp.EmployeeCode, date, attendance.Status(req.Status), req.SickLeaveDeduction); err != nil {
			return fmt.Errorf("failed to set leave: %w", err)
		}
		if _, err := a.reconcileLocked(ctx, emp, sh, date, date); err != nil {
			return err
		}
		records, err := a.attendanceRepo.GetRange(ctx, emp.EmployeeCode, date, date)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return attendance.ErrAttendanceNotFound
		}
		record = records[0]
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Leave assigned", "employee_code", emp.EmployeeCode, "date", req.Date, "status", req.Status)
	return attendance.NewAttendanceResponse(record), nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := a.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	// Map to response
	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, attendance.NewAttendanceResponse(r))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min((filter.Page)*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// GetMonthlySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMonthlySummary(ctx context.Context, req attendance.MonthlySummaryRequest) (attendance.MonthlySummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}
	month, _ := time.Parse(timeutil.MonthLayout, req.Month)

	emp, err := a.employeeRepo.GetByCode(ctx, req.EmployeeCode)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	records, err := a.attendanceRepo.GetRange(ctx, emp.EmployeeCode, timeutil.MonthStart(month), timeutil.MonthEnd(month))
	if err != nil {
		return attendance.MonthlySummaryResponse{}, fmt.Errorf("failed to load attendance records: %w", err)
	}

	outcomes := make([]attendance.DayOutcome, 0, len(records))
	for _, r := range records {
		// Stored but never reconciled
		if r.AttendanceStatus == nil {
			continue
		}
		outcomes = append(outcomes, OutcomeFromRecord(r))
	}

	summary := Summarize(emp.EmployeeCode, req.Month, outcomes)
	if summary.RemainingGrace == nil {
		if balance, ok := emp.GraceFor(req.Month); ok {
			summary.RemainingGrace = &balance
		}
	}

	return attendance.NewMonthlySummaryResponse(summary), nil
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	shiftRepo shift.ShiftRepository,
	locker attendance.Locker,
	fileService file.FileService,
	workers int,
	loc *time.Location,
) attendance.AttendanceService {
	if workers <= 0 {
		workers = 4
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		shiftRepo:      shiftRepo,
		locker:         locker,
		fileService:    fileService,
		workers:        workers,
		now: func() time.Time {
			return timeutil.WallClock(time.Now(), loc)
		},
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// isSkippable reports errors that skip one employee rather than a batch.
func isSkippable(err error) bool {
	return errors.Is(err, shift.ErrShiftNotFound) ||
		errors.Is(err, shift.ErrMissingWorkDays) ||
		errors.Is(err, employee.ErrEmployeeNotFound)
}
