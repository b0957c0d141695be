package attendance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
)

// ── attendance ──

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]map[string]attendance.Record // code -> date -> record
	seq     int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]map[string]attendance.Record)}
}

func (r *fakeAttendanceRepo) load(code string, date time.Time) attendance.Record {
	byDate, ok := r.records[code]
	if !ok {
		byDate = make(map[string]attendance.Record)
		r.records[code] = byDate
	}
	key := timeutil.DateKey(date)
	rec, ok := byDate[key]
	if !ok {
		r.seq++
		rec = attendance.Record{
			ID:           fmt.Sprintf("att-%d", r.seq),
			EmployeeCode: code,
			Date:         timeutil.TruncateDay(date),
			CreatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return rec
}

func (r *fakeAttendanceRepo) store(rec attendance.Record) {
	rec.UpdatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r.records[rec.EmployeeCode][timeutil.DateKey(rec.Date)] = rec
}

func (r *fakeAttendanceRepo) UpsertSession(ctx context.Context, s attendance.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.load(s.EmployeeCode, s.Date)
	if s.CheckIn != nil && (rec.CheckIn == nil || s.CheckIn.Before(*rec.CheckIn)) {
		rec.CheckIn = s.CheckIn
	}
	if s.CheckOut != nil && (rec.CheckOut == nil || s.CheckOut.After(*rec.CheckOut)) {
		rec.CheckOut = s.CheckOut
	}
	r.store(rec)
	return nil
}

func (r *fakeAttendanceRepo) UpsertLeave(ctx context.Context, code string, date time.Time, status attendance.Status, sick *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.load(code, date)
	rec.LeaveStatus = &status
	rec.SickLeaveDeduction = sick
	r.store(rec)
	return nil
}

func (r *fakeAttendanceRepo) GetRange(ctx context.Context, code string, start, end time.Time) ([]attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.records[code] {
		if rec.Date.Before(timeutil.TruncateDay(start)) || rec.Date.After(timeutil.TruncateDay(end)) {
			continue
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b attendance.Record) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (r *fakeAttendanceRepo) SaveOutcomes(ctx context.Context, records []attendance.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		existing := r.load(rec.EmployeeCode, rec.Date)
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		r.store(rec)
	}
	return nil
}

func (r *fakeAttendanceRepo) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Record
	for code, byDate := range r.records {
		if filter.EmployeeCode != nil && *filter.EmployeeCode != code {
			continue
		}
		for _, rec := range byDate {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b attendance.Record) int { return b.Date.Compare(a.Date) })
	total := int64(len(out))
	from := min((filter.Page-1)*filter.Limit, len(out))
	to := min(from+filter.Limit, len(out))
	return out[from:to], total, nil
}

// ── employees & shifts ──

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]employee.Employee
}

func newFakeEmployeeRepo(employees ...employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
	for _, e := range employees {
		r.employees[e.EmployeeCode] = e
	}
	return r
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[e.EmployeeCode]; ok {
		return employee.Employee{}, employee.ErrEmployeeCodeExists
	}
	e.ID = "emp-" + e.EmployeeCode
	r.employees[e.EmployeeCode] = e
	return e, nil
}

func (r *fakeEmployeeRepo) GetByCode(ctx context.Context, code string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[code]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByCodes(ctx context.Context, codes []string) (map[string]employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]employee.Employee)
	for _, c := range codes {
		if e, ok := r.employees[c]; ok {
			out[c] = e
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []employee.Employee
	for _, e := range r.employees {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []employee.Employee
	for _, e := range r.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b employee.Employee) int { return strings.Compare(a.EmployeeCode, b.EmployeeCode) })
	return out, nil
}

func (r *fakeEmployeeRepo) AssignShift(ctx context.Context, code, shiftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[code]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.ShiftID = shiftID
	r.employees[code] = e
	return nil
}

func (r *fakeEmployeeRepo) UpdateGraceBalance(ctx context.Context, code, month string, balance int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[code]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.GraceBalance = &balance
	e.GraceMonth = &month
	r.employees[code] = e
	return nil
}

type fakeShiftRepo struct {
	shifts map[string]shift.Shift
}

func newFakeShiftRepo(shifts ...shift.Shift) *fakeShiftRepo {
	r := &fakeShiftRepo{shifts: make(map[string]shift.Shift)}
	for _, s := range shifts {
		r.shifts[s.ID] = s
	}
	return r
}

func (r *fakeShiftRepo) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	r.shifts[s.ID] = s
	return s, nil
}

func (r *fakeShiftRepo) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	s, ok := r.shifts[id]
	if !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (r *fakeShiftRepo) GetByIDs(ctx context.Context, ids []string) (map[string]shift.Shift, error) {
	out := make(map[string]shift.Shift)
	for _, id := range ids {
		if s, ok := r.shifts[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) List(ctx context.Context, filter shift.ShiftFilter) ([]shift.Shift, int64, error) {
	var out []shift.Shift
	for _, s := range r.shifts {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeShiftRepo) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	if _, ok := r.shifts[s.ID]; !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	r.shifts[s.ID] = s
	return s, nil
}

func (r *fakeShiftRepo) Delete(ctx context.Context, id string) error {
	delete(r.shifts, id)
	return nil
}

// ── locking & files ──

type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	calls int
}

func (l *fakeLocker) WithEmployeeLock(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[code]
	if !ok {
		m = &sync.Mutex{}
		l.locks[code] = m
	}
	l.calls++
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type fakeFileService struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (f *fakeFileService) ArchiveImport(ctx context.Context, batchID string, uploadedAt time.Time, file io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	path := "imports/" + uploadedAt.Format("2006-01") + "/" + batchID + ".xlsx"
	f.files[path] = data
	return path, nil
}

func (f *fakeFileService) OpenImport(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

func (f *fakeFileService) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "http://localhost:8080/files/" + path, nil
}
