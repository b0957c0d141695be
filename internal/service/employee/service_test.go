package employee

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if _, ok := r.employees[e.EmployeeCode]; ok {
		return employee.Employee{}, &pgconn.PgError{Code: "23505"}
	}
	e.ID = "emp-" + e.EmployeeCode
	r.employees[e.EmployeeCode] = e
	return e, nil
}

func (r *fakeEmployeeRepo) GetByCode(ctx context.Context, code string) (employee.Employee, error) {
	e, ok := r.employees[code]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByCodes(ctx context.Context, codes []string) (map[string]employee.Employee, error) {
	out := map[string]employee.Employee{}
	for _, c := range codes {
		if e, ok := r.employees[c]; ok {
			out[c] = e
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}

func (r *fakeEmployeeRepo) AssignShift(ctx context.Context, code, shiftID string) error {
	e, ok := r.employees[code]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.ShiftID = shiftID
	r.employees[code] = e
	return nil
}

func (r *fakeEmployeeRepo) UpdateGraceBalance(ctx context.Context, code, month string, balance int) error {
	return nil
}

type fakeShiftRepo struct {
	shift.ShiftRepository
	ids map[string]bool
}

func (r fakeShiftRepo) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	if !r.ids[id] {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return shift.Shift{ID: id}, nil
}

func newTestService() (*fakeEmployeeRepo, employee.EmployeeService) {
	repo := &fakeEmployeeRepo{employees: map[string]employee.Employee{}}
	shifts := fakeShiftRepo{ids: map[string]bool{"shift-day": true, "shift-night": true}}
	return repo, NewEmployeeService(repo, shifts)
}

func TestEmployeeService_CreateEmployee(t *testing.T) {
	_, svc := newTestService()
	ctx := context.Background()

	resp, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		EmployeeCode: " 1001 ",
		FullName:     "Sara Haddad",
		ShiftID:      "shift-day",
	})
	require.NoError(t, err)
	assert.Equal(t, "1001", resp.EmployeeCode)
	assert.True(t, resp.IsActive)
	assert.Nil(t, resp.GraceBalance)

	_, err = svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeCode: "1001", FullName: "Dup", ShiftID: "shift-day"})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)

	_, err = svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeCode: "1002", FullName: "No Shift", ShiftID: "shift-gone"})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	_, err = svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}

func TestEmployeeService_AssignShift(t *testing.T) {
	repo, svc := newTestService()
	ctx := context.Background()
	repo.employees["1001"] = employee.Employee{ID: "emp-1001", EmployeeCode: "1001", ShiftID: "shift-day", IsActive: true}

	resp, err := svc.AssignShift(ctx, employee.AssignShiftRequest{EmployeeCode: "1001", ShiftID: "shift-night"})
	require.NoError(t, err)
	assert.Equal(t, "shift-night", resp.ShiftID)

	_, err = svc.AssignShift(ctx, employee.AssignShiftRequest{EmployeeCode: "9999", ShiftID: "shift-night"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.AssignShift(ctx, employee.AssignShiftRequest{EmployeeCode: "1001", ShiftID: "shift-gone"})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestEmployeeService_ListEmployees(t *testing.T) {
	repo, svc := newTestService()
	repo.employees["1001"] = employee.Employee{EmployeeCode: "1001"}
	repo.employees["1002"] = employee.Employee{EmployeeCode: "1002"}

	resp, err := svc.ListEmployees(context.Background(), employee.EmployeeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Equal(t, "1-2 of 2", resp.Showing)
	assert.Equal(t, 1, resp.TotalPages)
}
