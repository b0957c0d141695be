// Package timeutil parses punch-clock timestamps and does the calendar and
// elapsed-time arithmetic used by attendance reconciliation.
//
// All values are naive wall-clock times: punches are recorded in the
// branch's local time and carried in the UTC location so that date math is
// never shifted by DST or zone offsets.
package timeutil

import (
	"errors"
	"iter"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	ClockLayout = "15:04:05"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

// ParseTimestamp parses a punch timestamp in any of the formats attendance
// exports are known to use, including spreadsheet serial numbers. The
// result keeps the wall clock and drops any zone offset.
func ParseTimestamp(raw string) (time.Time, error) {
	s := normalizeMeridiem(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t), nil
		}
	}

	// Spreadsheet serial date (days since 1899-12-30 with fractional time).
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 1 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return naive(t.Round(time.Second)), nil
		}
	}

	return time.Time{}, ErrInvalidTimestamp
}

// ParseClock parses a clock-only value (24h or 12h AM/PM) onto the zero date.
func ParseClock(raw string) (time.Time, error) {
	s := normalizeMeridiem(strings.TrimSpace(raw))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// normalizeMeridiem upper-cases am/pm markers and makes sure they are
// separated from the clock by a single space.
func normalizeMeridiem(s string) string {
	upper := strings.ToUpper(s)
	for _, m := range []string{"AM", "PM"} {
		if strings.HasSuffix(upper, m) {
			head := strings.TrimSpace(s[:len(s)-2])
			return head + " " + m
		}
	}
	return s
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// WallClock returns the naive wall-clock reading of instant t in loc.
func WallClock(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return naive(t.In(loc))
}

// Combine places a clock value on the given calendar date.
func Combine(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}

// TruncateDay returns midnight of t's calendar date.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClockMinutes returns the minute of day of t.
func ClockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ElapsedHours returns the hours between in and out rounded to one decimal.
// A negative difference means only clock values were compared across
// midnight, so a day is added.
func ElapsedHours(in, out time.Time) float64 {
	hours := out.Sub(in).Hours()
	if hours < 0 {
		hours += 24
	}
	return Round1(hours)
}

// ElapsedMinutes returns the whole minutes from a to b, rounding the
// sub-minute remainder to nearest.
func ElapsedMinutes(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Minutes()))
}

// Round1 rounds half away from zero to one decimal place. Non-finite input
// is clamped to zero.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		slog.Warn("Non-finite hour value clamped to zero", "value", v)
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// DateRange yields every calendar date from start to end inclusive. The
// sequence can be ranged over any number of times.
func DateRange(start, end time.Time) iter.Seq[time.Time] {
	first, last := TruncateDay(start), TruncateDay(end)
	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Dates collects DateRange into a slice.
func Dates(start, end time.Time) []time.Time {
	var out []time.Time
	for d := range DateRange(start, end) {
		out = append(out, d)
	}
	return out
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}
