package timeutil

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 20, 15, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
	}{
		{"iso with T", "2024-03-05T20:15:00"},
		{"iso with space", "2024-03-05 20:15:00"},
		{"iso without seconds", "2024-03-05 20:15"},
		{"rfc3339 keeps wall clock", "2024-03-05T20:15:00+03:00"},
		{"12 hour", "2024-03-05 8:15:00 PM"},
		{"12 hour lowercase no space", "2024-03-05 8:15:00pm"},
		{"slash date", "3/5/2024 20:15"},
		{"slash date 12 hour", "03/05/2024 08:15 PM"},
		{"padded", "  2024-03-05 20:15:00  "},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseTimestamp(c.raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTimestamp_SpreadsheetSerial(t *testing.T) {
	// 45356 is 2024-03-05, .5 is noon.
	got, err := ParseTimestamp("45356.5")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), got)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a time", "2024-13-40 25:61", "yesterday 8am"} {
		_, err := ParseTimestamp(raw)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "raw=%q", raw)
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]string{
		"08:00":       "08:00:00",
		"17:30:15":    "17:30:15",
		"8:05:00 AM":  "08:05:00",
		"12:00:00 AM": "00:00:00",
		"12:30 PM":    "12:30:00",
		"11:59:59 pm": "23:59:59",
	}
	for raw, want := range cases {
		got, err := ParseClock(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.Format(ClockLayout), raw)
	}

	_, err := ParseClock("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestElapsedHours(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 9.0, ElapsedHours(day.Add(8*time.Hour), day.Add(17*time.Hour)))
	assert.Equal(t, 14.0, ElapsedHours(day.Add(8*time.Hour), day.Add(22*time.Hour)))
	// Explicit next-day checkout.
	assert.Equal(t, 8.0, ElapsedHours(day.Add(22*time.Hour), day.Add(30*time.Hour)))
	// Clock-only comparison across midnight rolls over.
	assert.Equal(t, 8.0, ElapsedHours(day.Add(22*time.Hour), day.Add(6*time.Hour)))
	// 8h20m = 8.333 -> 8.3
	assert.Equal(t, 8.3, ElapsedHours(day.Add(8*time.Hour), day.Add(16*time.Hour+20*time.Minute)))
	// 8h15m = 8.25 -> 8.3 (half away from zero)
	assert.Equal(t, 8.3, ElapsedHours(day.Add(8*time.Hour), day.Add(16*time.Hour+15*time.Minute)))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 4.5, Round1(6*0.7442))
	assert.Equal(t, 0.3, Round1(15.0/60.0))
	assert.Equal(t, 0.4, Round1(0.35))
	assert.Equal(t, -0.4, Round1(-0.35))
	assert.Equal(t, 0.0, Round1(math.NaN()))
	assert.Equal(t, 0.0, Round1(math.Inf(1)))
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 2, 27, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	seq := DateRange(start, end)

	var first []string
	for d := range seq {
		first = append(first, DateKey(d))
	}
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, first)

	// Restartable.
	var second []string
	for d := range seq {
		second = append(second, DateKey(d))
	}
	assert.Equal(t, first, second)

	assert.Len(t, Dates(end, end), 1)
	assert.Empty(t, Dates(end, start))
}

func TestMonthBoundaries(t *testing.T) {
	d := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-01", DateKey(MonthStart(d)))
	assert.Equal(t, "2024-02-29", DateKey(MonthEnd(d)))
	assert.Equal(t, "2024-02", MonthKey(d))
}

func TestWallClock(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	instant := time.Date(2024, 3, 31, 20, 30, 0, 0, time.UTC)

	got := WallClock(instant, jakarta)
	assert.Equal(t, time.Date(2024, 4, 1, 3, 30, 0, 0, time.UTC), got)
	assert.Equal(t, "2024-04", MonthKey(got))

	assert.Equal(t, instant, WallClock(instant, nil))
}
