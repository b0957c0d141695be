package shift

import (
	"context"
	"fmt"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShiftRepo struct {
	shifts   map[string]shift.Shift
	seq      int
	inUse    map[string]bool
	lastList shift.ShiftFilter
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: map[string]shift.Shift{}, inUse: map[string]bool{}}
}

func (r *fakeShiftRepo) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	for _, existing := range r.shifts {
		if existing.Name == s.Name {
			return shift.Shift{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r.seq++
	s.ID = fmt.Sprintf("shift-%d", r.seq)
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
	out := map[string]shift.Shift{}
	for _, id := range ids {
		if s, ok := r.shifts[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) List(ctx context.Context, filter shift.ShiftFilter) ([]shift.Shift, int64, error) {
	r.lastList = filter
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
	if r.inUse[id] {
		return &pgconn.PgError{Code: "23503"}
	}
	if _, ok := r.shifts[id]; !ok {
		return shift.ErrShiftNotFound
	}
	delete(r.shifts, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func officeShiftRequest() shift.CreateShiftRequest {
	return shift.CreateShiftRequest{
		Name:                     "Office",
		Type:                     string(shift.TypeStandardDay),
		StartTime:                "08:00",
		EndTime:                  "5:00 PM",
		WorkDays:                 []int{0, 1, 2, 3, 4, 6},
		BaseHours:                9,
		MaxOvertimeHours:         4,
		FridayMaxOvertimeHours:   6,
		OvertimeMultiplier:       1.5,
		FridayOvertimeMultiplier: 0.7442,
		GracePeriod:              30,
		Deductions: []shift.DeductionTierRequest{
			{Kind: string(shift.TierQuarterDay), Start: ptr("08:15"), End: ptr("09:00")},
			{Kind: string(shift.TierMinutes)},
		},
		SickLeaveDeduction: 0.5,
	}
}

func TestShiftService_CreateShift(t *testing.T) {
	svc := NewShiftService(newFakeShiftRepo())

	resp, err := svc.CreateShift(context.Background(), officeShiftRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "08:00", resp.StartTime)
	assert.Equal(t, "17:00", resp.EndTime)
	assert.False(t, resp.IsCrossDay)
	require.Len(t, resp.Deductions, 2)
	assert.Equal(t, "08:15", *resp.Deductions[0].Start)
	assert.Nil(t, resp.Deductions[1].Start)

	_, err = svc.CreateShift(context.Background(), officeShiftRequest())
	assert.ErrorIs(t, err, shift.ErrShiftNameExists)
}

func TestShiftService_CreateShift_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *shift.CreateShiftRequest)
		field  string
	}{
		{"unknown type", func(r *shift.CreateShiftRequest) { r.Type = "split" }, "type"},
		{"bad clock", func(r *shift.CreateShiftRequest) { r.StartTime = "25:00" }, "start_time"},
		{"no work days", func(r *shift.CreateShiftRequest) { r.WorkDays = nil }, "work_days"},
		{"weekday out of range", func(r *shift.CreateShiftRequest) { r.WorkDays = []int{7} }, "work_days"},
		{"day tier without window", func(r *shift.CreateShiftRequest) {
			r.Deductions = []shift.DeductionTierRequest{{Kind: string(shift.TierHalfDay)}}
		}, "deductions[0]"},
		{"sick deduction above a day", func(r *shift.CreateShiftRequest) { r.SickLeaveDeduction = 1.5 }, "sick_leave_deduction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := officeShiftRequest()
			tt.mutate(&req)

			_, err := NewShiftService(newFakeShiftRepo()).CreateShift(context.Background(), req)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}
}

func TestShiftService_UpdateShift(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo)
	ctx := context.Background()

	created, err := svc.CreateShift(ctx, officeShiftRequest())
	require.NoError(t, err)

	req := shift.UpdateShiftRequest{ID: created.ID, CreateShiftRequest: officeShiftRequest()}
	req.Type = string(shift.TypeEvening)
	req.StartTime = "20:00"
	req.EndTime = "04:00"

	updated, err := svc.UpdateShift(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "evening", updated.Type)
	assert.True(t, updated.IsCrossDay)

	_, err = svc.UpdateShift(ctx, shift.UpdateShiftRequest{ID: "missing", CreateShiftRequest: officeShiftRequest()})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestShiftService_DeleteShift(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo)
	ctx := context.Background()

	created, err := svc.CreateShift(ctx, officeShiftRequest())
	require.NoError(t, err)

	repo.inUse[created.ID] = true
	assert.ErrorIs(t, svc.DeleteShift(ctx, created.ID), shift.ErrShiftInUse)

	repo.inUse[created.ID] = false
	assert.NoError(t, svc.DeleteShift(ctx, created.ID))

	_, err = svc.GetShift(ctx, created.ID)
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestShiftService_ListShifts(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo)
	ctx := context.Background()

	_, err := svc.CreateShift(ctx, officeShiftRequest())
	require.NoError(t, err)

	resp, err := svc.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastList.Page)
	assert.Equal(t, 20, repo.lastList.Limit)
	assert.Equal(t, "1-1 of 1", resp.Showing)
	assert.Len(t, resp.Shifts, 1)

	_, err = svc.ListShifts(ctx, shift.ShiftFilter{Type: ptr("split")})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
