package attendance

import (
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
)

// IsWeeklyOff reports whether date is a scheduled rest day for the shift.
// Continuous 24-hour shifts are always off on Fridays.
func IsWeeklyOff(date time.Time, s shift.Shift) (bool, error) {
	if len(s.WorkDays) == 0 {
		return false, shift.ErrMissingWorkDays
	}

	weekday := date.Weekday()
	if s.Type == shift.TypeContinuous24 && weekday == time.Friday {
		return true, nil
	}

	return !slices.Contains(s.WorkDays, int(weekday)), nil
}
