package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
)

const minutesPerDay = 24 * 60

// workedDay is the work credited to one date: the closed punch pair, when
// there is one, plus hours carried in from the previous date.
type workedDay struct {
	date     time.Time
	checkIn  time.Time
	checkOut time.Time
	duration float64
	punched  bool
}

// shiftRules computes lateness, overtime and deductions for a worked
// regular day of one shift type.
type shiftRules interface {
	evaluate(s shift.Shift, day workedDay, grace int, out *attendance.DayOutcome)
}

type standardDayRules struct{}

type eveningRules struct{}

type continuousRules struct{}

func rulesFor(t shift.Type) (shiftRules, error) {
	switch t {
	case shift.TypeStandardDay:
		return standardDayRules{}, nil
	case shift.TypeEvening:
		return eveningRules{}, nil
	case shift.TypeContinuous24:
		return continuousRules{}, nil
	}
	return nil, fmt.Errorf("%w: %q", shift.ErrInvalidShiftType, t)
}

// EvaluateDay adjudicates one session against its shift, starting from the
// carried grace balance. The returned outcome holds the balance to carry
// into the next day.
func EvaluateDay(s shift.Shift, session attendance.Session, carriedGrace int) (attendance.DayOutcome, error) {
	rules, err := rulesFor(s.Type)
	if err != nil {
		return attendance.DayOutcome{}, err
	}

	date := timeutil.TruncateDay(session.Date)
	off, err := IsWeeklyOff(date, s)
	if err != nil {
		return attendance.DayOutcome{}, err
	}

	out := attendance.DayOutcome{
		EmployeeCode:   session.EmployeeCode,
		Date:           date,
		CheckIn:        session.CheckIn,
		CheckOut:       session.CheckOut,
		RemainingGrace: carriedGrace,
		IsWeeklyOff:    off,
	}

	day := workedDay{date: date, duration: math.Max(session.CarriedHours, 0)}
	if session.LeaveStatus == "" && session.CheckIn != nil && session.CheckOut != nil {
		day.checkIn = *session.CheckIn
		day.checkOut = *session.CheckOut
		day.duration += timeutil.ElapsedHours(day.checkIn, day.checkOut)
		day.punched = true
	}
	if s.Type == shift.TypeContinuous24 {
		out.Seed = splitOverflow(s, &day, session.EmployeeCode)
	}
	out.DurationHours = day.duration

	switch {
	case session.LeaveStatus.IsApprovedLeave():
		out.Status = session.LeaveStatus
		return out, nil

	case session.LeaveStatus == attendance.StatusSickLeave:
		out.Status = attendance.StatusSickLeave
		out.DeductedDays = s.SickLeaveDeduction
		if session.SickLeaveDeduction != nil {
			out.DeductedDays = *session.SickLeaveDeduction
		}
		return out, nil

	case !session.HasPunches() && day.duration == 0:
		if off {
			out.Status = attendance.StatusWeeklyOff
			return out, nil
		}
		out.Status = attendance.StatusAbsent
		out.DeductedDays = 1
		return out, nil

	case session.HasPunches() && session.CheckIn == nil:
		// Checkout-only days are treated as fully worked.
		out.Status = attendance.StatusPresent
		return out, nil

	case session.HasPunches() && session.CheckOut == nil:
		out.Status = attendance.StatusPresent
		out.PendingCheckout = true
		return out, nil
	}

	out.Status = attendance.StatusPresent

	if date.Weekday() == time.Friday {
		out.OvertimeHours = cappedHours(day.duration*s.FridayOvertimeMultiplier, s.FridayMaxOvertimeHours)
		return out, nil
	}

	if off {
		out.IsWorkedWeeklyOff = true
		out.OvertimeHours = cappedHours(day.duration*s.OvertimeMultiplier, s.MaxOvertimeHours)
		return out, nil
	}

	rules.evaluate(s, day, carriedGrace, &out)

	out.DelayMinutes = out.LateMinutes + out.EarlyLeaveMinutes
	if out.DelayMinutes > s.GracePeriod {
		out.Status = attendance.StatusLate
	}

	return out, nil
}

// splitOverflow caps day at the shift's span limit and returns a seed that
// carries the excess hours into the next date. The punches are untouched.
func splitOverflow(s shift.Shift, day *workedDay, code string) *attendance.Session {
	maxSpan := s.MaxSpanHours()
	if maxSpan <= 0 || day.duration <= maxSpan {
		return nil
	}
	seed := &attendance.Session{
		EmployeeCode: code,
		Date:         day.date.AddDate(0, 0, 1),
		CarriedHours: day.duration - maxSpan,
	}
	day.duration = maxSpan
	return seed
}

func (standardDayRules) evaluate(s shift.Shift, day workedDay, grace int, out *attendance.DayOutcome) {
	evaluateTiered(s, day, grace, out)
}

func (eveningRules) evaluate(s shift.Shift, day workedDay, grace int, out *attendance.DayOutcome) {
	evaluateTiered(s, day, grace, out)
}

// Shortfall against base hours is only assessed for a punched rotation.
// Carried hours alone never make a day late.
func (continuousRules) evaluate(s shift.Shift, day workedDay, grace int, out *attendance.DayOutcome) {
	if shortfall := s.BaseHours - day.duration; day.punched && shortfall > 0 {
		out.LateMinutes = int(math.Round(shortfall * 60))
	}
	if day.duration > s.BaseHours {
		out.OvertimeHours = cappedHours(day.duration-s.BaseHours, s.MaxOvertimeHours)
	}

	applyMinuteDeduction(out.LateMinutes, grace, out)
}

// evaluateTiered applies day tiers and the minute tier to regular days of
// standard and evening shifts.
func evaluateTiered(s shift.Shift, day workedDay, grace int, out *attendance.DayOutcome) {
	if !day.punched {
		return
	}
	start, end := shiftBounds(s, day.date)

	var fraction float64
	dayTierMatched := false

	if late := timeutil.ElapsedMinutes(start, day.checkIn); late > 0 {
		if tier, ok := matchDayTier(s, day.checkIn); ok {
			out.LateMinutes = late
			fraction += tier.Kind.DayFraction()
			dayTierMatched = true
		} else if inMinuteWindow(s, day.checkIn) {
			out.LateMinutes = late
		}
	}

	if early := timeutil.ElapsedMinutes(day.checkOut, end); early > 0 {
		if tier, ok := matchDayTier(s, day.checkOut); ok {
			out.EarlyLeaveMinutes = early
			fraction += tier.Kind.DayFraction()
			dayTierMatched = true
		} else if inMinuteWindow(s, day.checkOut) {
			out.EarlyLeaveMinutes = early
		}
	}

	if day.checkOut.After(end) {
		out.OvertimeHours = cappedHours(day.checkOut.Sub(end).Hours()*s.OvertimeMultiplier, s.MaxOvertimeHours)
	}

	total := out.LateMinutes + out.EarlyLeaveMinutes
	if !dayTierMatched {
		applyMinuteDeduction(total, grace, out)
		return
	}

	if total <= grace {
		out.RemainingGrace = grace - total
		return
	}
	out.RemainingGrace = 0
	out.DeductedDays = fraction
}

// applyMinuteDeduction consumes grace for the delay and converts any excess
// into deducted hours.
func applyMinuteDeduction(total, grace int, out *attendance.DayOutcome) {
	if total <= 0 {
		return
	}
	if total <= grace {
		out.RemainingGrace = grace - total
		return
	}
	out.RemainingGrace = 0
	out.DeductedHours = timeutil.Round1(float64(total-grace) / 60)
}

// shiftBounds returns the expected start and end on date. An end clock at
// or before the start clock lands on the next day.
func shiftBounds(s shift.Shift, date time.Time) (time.Time, time.Time) {
	start := timeutil.Combine(date, s.StartTime)
	end := timeutil.Combine(date, s.EndTime)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// shiftOffset is the minute of t measured from the shift start clock.
func shiftOffset(s shift.Shift, t time.Time) int {
	return ((timeutil.ClockMinutes(t)-timeutil.ClockMinutes(s.StartTime))%minutesPerDay + minutesPerDay) % minutesPerDay
}

func inWindow(s shift.Shift, t, from, to time.Time) bool {
	x, lo, hi := shiftOffset(s, t), shiftOffset(s, from), shiftOffset(s, to)
	switch {
	case lo == hi:
		return true
	case lo < hi:
		return x >= lo && x <= hi
	default:
		return x >= lo || x <= hi
	}
}

// matchDayTier returns the first day tier whose window contains t.
func matchDayTier(s shift.Shift, t time.Time) (shift.DeductionTier, bool) {
	for _, tier := range s.Deductions {
		if !tier.Kind.IsDayTier() || tier.Start == nil || tier.End == nil {
			continue
		}
		if inWindow(s, t, *tier.Start, *tier.End) {
			return tier, true
		}
	}
	return shift.DeductionTier{}, false
}

// inMinuteWindow reports whether t falls in the minute tier's window, which
// defaults to the shift boundaries.
func inMinuteWindow(s shift.Shift, t time.Time) bool {
	tier, ok := s.MinuteTier()
	if !ok {
		return false
	}
	from, to := s.StartTime, s.EndTime
	if tier.Start != nil {
		from = *tier.Start
	}
	if tier.End != nil {
		to = *tier.End
	}
	return inWindow(s, t, from, to)
}

// cappedHours clamps v to [0, limit] and rounds to one decimal.
func cappedHours(v, limit float64) float64 {
	v = math.Min(v, limit)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return timeutil.Round1(v)
}
