package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
)

// FoldMonth evaluates one employee's sessions in date order, threading the
// grace balance from day to day and resetting it to the shift's grace
// period at every calendar month boundary. initialGrace is the balance
// before the first day.
//
// A seed spawned by a day is merged into the next date's session before
// that date is evaluated, or evaluated as its own day when the next date is
// not in days. A seed past the last day is left on the last outcome.
// Splitting neither creates nor drops hours: the outcomes' DurationHours
// plus any trailing seed add up to the hours punched.
func FoldMonth(s shift.Shift, initialGrace int, days []attendance.Session) ([]attendance.DayOutcome, error) {
	outcomes := make([]attendance.DayOutcome, 0, len(days))
	if len(days) == 0 {
		return outcomes, nil
	}

	code := days[0].EmployeeCode
	for i, day := range days {
		if day.EmployeeCode != code {
			return nil, attendance.ErrMixedEmployees
		}
		if i > 0 && !timeutil.TruncateDay(day.Date).After(timeutil.TruncateDay(days[i-1].Date)) {
			return nil, fmt.Errorf("%w: %s after %s", attendance.ErrUnorderedDays,
				timeutil.DateKey(day.Date), timeutil.DateKey(days[i-1].Date))
		}
	}

	f := fold{shift: s, grace: initialGrace}
	var seed *attendance.Session

	for _, day := range days {
		date := timeutil.TruncateDay(day.Date)

		for seed != nil && timeutil.TruncateDay(seed.Date).Before(date) {
			out, err := f.step(*seed)
			if err != nil {
				return nil, err
			}
			outcomes = append(outcomes, out)
			seed = out.Seed
		}

		if seed != nil && timeutil.TruncateDay(seed.Date).Equal(date) {
			day = mergeSeed(day, *seed)
		}

		out, err := f.step(day)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
		seed = out.Seed
	}

	return outcomes, nil
}

type fold struct {
	shift shift.Shift
	grace int
	month string
}

func (f *fold) step(session attendance.Session) (attendance.DayOutcome, error) {
	month := timeutil.MonthKey(session.Date)
	if f.month != "" && month != f.month {
		f.grace = f.shift.GracePeriod
	}
	f.month = month

	out, err := EvaluateDay(f.shift, session, f.grace)
	if err != nil {
		return attendance.DayOutcome{}, fmt.Errorf("evaluate %s: %w", timeutil.DateKey(session.Date), err)
	}
	f.grace = out.RemainingGrace
	return out, nil
}

// mergeSeed credits a seed's carried hours to the session of the same
// date. The day's own punches are kept as they are.
func mergeSeed(day, seed attendance.Session) attendance.Session {
	day.CarriedHours += seed.CarriedHours
	return day
}

// FillRange returns a session for every date from start to end, using
// stubs with no punches for dates missing from sessions.
func FillRange(code string, start, end time.Time, sessions map[string]attendance.Session) []attendance.Session {
	var out []attendance.Session
	for date := range timeutil.DateRange(start, end) {
		if sess, ok := sessions[timeutil.DateKey(date)]; ok {
			sess.Date = date
			out = append(out, sess)
			continue
		}
		out = append(out, attendance.Session{EmployeeCode: code, Date: date})
	}
	return out
}

// ShouldPublishGrace reports whether a pass over start..end covers now's
// month. Balances of past months must not overwrite the live counter.
func ShouldPublishGrace(start, end, now time.Time) bool {
	return !timeutil.MonthStart(start).After(now) && !timeutil.MonthEnd(end).Before(timeutil.TruncateDay(now))
}
