package attendance

import (
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// Summarize aggregates reconciled days. The remaining grace is the balance
// after the last day.
func Summarize(code, month string, outcomes []attendance.DayOutcome) attendance.MonthlySummary {
	summary := attendance.MonthlySummary{
		EmployeeCode: code,
		Month:        month,
		Days:         len(outcomes),
	}

	overtime, deductedHours, deductedDays := decimal.Zero, decimal.Zero, decimal.Zero
	for _, o := range outcomes {
		switch o.Status {
		case attendance.StatusPresent:
			summary.PresentDays++
		case attendance.StatusLate:
			summary.PresentDays++
			summary.LateDays++
		case attendance.StatusAbsent:
			summary.AbsentDays++
		case attendance.StatusWeeklyOff:
			summary.WeeklyOffDays++
		case attendance.StatusAnnualLeave, attendance.StatusOfficialLeave:
			summary.LeaveDays++
		case attendance.StatusSickLeave:
			summary.SickLeaveDays++
		}
		if o.IsWorkedWeeklyOff {
			summary.WorkedWeeklyOffs++
		}
		if o.PendingCheckout {
			summary.PendingCheckouts++
		}

		summary.TotalDelayMinutes += o.DelayMinutes
		overtime = overtime.Add(decimal.NewFromFloat(o.OvertimeHours))
		deductedHours = deductedHours.Add(decimal.NewFromFloat(o.DeductedHours))
		deductedDays = deductedDays.Add(decimal.NewFromFloat(o.DeductedDays))
	}

	summary.TotalOvertimeHours = overtime.Round(1).InexactFloat64()
	summary.TotalDeductedHours = deductedHours.Round(1).InexactFloat64()
	summary.TotalDeductedDays = deductedDays.Round(2).InexactFloat64()

	if n := len(outcomes); n > 0 {
		grace := outcomes[n-1].RemainingGrace
		summary.RemainingGrace = &grace
	}
	return summary
}

// OutcomeFromRecord restores the adjudicated result held by a stored record.
func OutcomeFromRecord(r attendance.Record) attendance.DayOutcome {
	o := attendance.DayOutcome{
		EmployeeCode:      r.EmployeeCode,
		Date:              timeutil.TruncateDay(r.Date),
		CheckIn:           r.CheckIn,
		CheckOut:          r.CheckOut,
		LateMinutes:       r.LateMinutes,
		EarlyLeaveMinutes: r.EarlyLeaveMinutes,
		DelayMinutes:      r.DelayMinutes,
		OvertimeHours:     r.OvertimeHours,
		DeductedHours:     r.DeductedHours,
		DeductedDays:      r.DeductedDays,
		IsWeeklyOff:       r.IsWeeklyOff,
		IsWorkedWeeklyOff: r.IsWorkedWeeklyOff,
		PendingCheckout:   r.PendingCheckout,
	}
	if r.AttendanceStatus != nil {
		o.Status = *r.AttendanceStatus
	}
	if r.RemainingGracePeriod != nil {
		o.RemainingGrace = *r.RemainingGracePeriod
	}
	return o
}
