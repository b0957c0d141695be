package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/stretchr/testify/require"
)

// March 2024: the 1st and 8th are Fridays, the 4th is a Monday.

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return v
}

func tsPtr(t *testing.T, s string) *time.Time {
	v := ts(t, s)
	return &v
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := timeutil.ParseDate(s)
	require.NoError(t, err)
	return v
}

func clk(s string) *time.Time {
	v, err := timeutil.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return &v
}

func ptr[T any](v T) *T {
	return &v
}

// standardShift works Saturday to Thursday, 08:00-17:00, with a minute tier.
func standardShift() shift.Shift {
	return shift.Shift{
		ID:                       "shift-std",
		Name:                     "Office",
		Type:                     shift.TypeStandardDay,
		StartTime:                *clk("08:00"),
		EndTime:                  *clk("17:00"),
		WorkDays:                 []int{0, 1, 2, 3, 4, 6},
		BaseHours:                9,
		MaxOvertimeHours:         4,
		FridayMaxOvertimeHours:   6,
		OvertimeMultiplier:       1.5,
		FridayOvertimeMultiplier: 0.7442,
		GracePeriod:              30,
		Deductions: []shift.DeductionTier{
			{Kind: shift.TierMinutes, Start: clk("08:00")},
		},
		SickLeaveDeduction: 0.5,
	}
}

// tieredShift is standardShift with clock-window day tiers only.
func tieredShift() shift.Shift {
	s := standardShift()
	s.Deductions = []shift.DeductionTier{
		{Kind: shift.TierQuarterDay, Start: clk("08:15"), End: clk("09:00")},
		{Kind: shift.TierHalfDay, Start: clk("09:00"), End: clk("12:00")},
		{Kind: shift.TierQuarterDay, Start: clk("16:00"), End: clk("16:59")},
	}
	return s
}

func eveningShift() shift.Shift {
	s := standardShift()
	s.ID = "shift-eve"
	s.Name = "Night"
	s.Type = shift.TypeEvening
	s.StartTime = *clk("20:00")
	s.EndTime = *clk("04:00")
	s.BaseHours = 8
	s.Deductions = []shift.DeductionTier{{Kind: shift.TierMinutes}}
	return s
}

func continuousShift() shift.Shift {
	return shift.Shift{
		ID:                       "shift-24",
		Name:                     "Guard rotation",
		Type:                     shift.TypeContinuous24,
		StartTime:                *clk("08:00"),
		EndTime:                  *clk("08:00"),
		WorkDays:                 []int{0, 1, 2, 3, 4, 5, 6},
		BaseHours:                12,
		MaxOvertimeHours:         4,
		FridayMaxOvertimeHours:   6,
		OvertimeMultiplier:       1,
		FridayOvertimeMultiplier: 0.7442,
		GracePeriod:              30,
	}
}

func session(t *testing.T, date, in, out string) attendance.Session {
	s := attendance.Session{EmployeeCode: "1001", Date: day(t, date)}
	if in != "" {
		s.CheckIn = tsPtr(t, in)
	}
	if out != "" {
		s.CheckOut = tsPtr(t, out)
	}
	return s
}
