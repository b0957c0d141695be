package attendance

import (
	"maps"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
)

// checkInWindow is how long after the nominal start a punch still counts as
// the check-in of a same-day shift.
const checkInWindow = 2 * time.Hour

// BuildSessions pairs one employee's punches into sessions keyed by
// timeutil.DateKey of the date each session is attributed to.
func BuildSessions(s shift.Shift, punches []attendance.Punch) map[string]attendance.Session {
	sorted := slices.Clone(punches)
	slices.SortStableFunc(sorted, func(a, b attendance.Punch) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	b := sessionBuilder{shift: s, sessions: make(map[string]*attendance.Session)}
	for _, p := range sorted {
		if s.CrossDay() {
			b.addCrossDay(p)
		} else {
			b.addSameDay(p)
		}
	}

	out := make(map[string]attendance.Session, len(b.sessions))
	for k, v := range b.sessions {
		out[k] = *v
	}
	return out
}

// SortedSessions returns the sessions ordered by date.
func SortedSessions(sessions map[string]attendance.Session) []attendance.Session {
	keys := slices.Sorted(maps.Keys(sessions))
	out := make([]attendance.Session, 0, len(keys))
	for _, k := range keys {
		out = append(out, sessions[k])
	}
	return out
}

type sessionBuilder struct {
	shift    shift.Shift
	sessions map[string]*attendance.Session
}

func (b *sessionBuilder) get(code string, date time.Time) *attendance.Session {
	key := timeutil.DateKey(date)
	if sess, ok := b.sessions[key]; ok {
		return sess
	}
	sess := &attendance.Session{EmployeeCode: code, Date: date}
	b.sessions[key] = sess
	return sess
}

func (b *sessionBuilder) addSameDay(p attendance.Punch) {
	date := timeutil.TruncateDay(p.Timestamp)
	sess := b.get(p.EmployeeCode, date)
	ts := p.Timestamp

	latestCheckIn := timeutil.Combine(date, b.shift.StartTime).Add(checkInWindow)
	if !ts.After(latestCheckIn) {
		if sess.CheckIn == nil || ts.Before(*sess.CheckIn) {
			sess.CheckIn = &ts
		}
		return
	}
	if sess.CheckOut == nil || ts.After(*sess.CheckOut) {
		sess.CheckOut = &ts
	}
}

func (b *sessionBuilder) addCrossDay(p attendance.Punch) {
	ts := p.Timestamp
	date := timeutil.TruncateDay(ts)
	maxSpan := b.shift.MaxSpanHours()

	// A punch within yesterday's span checks it out, unless today's
	// session has already started.
	if prev, ok := b.sessions[timeutil.DateKey(date.AddDate(0, 0, -1))]; ok && prev.CheckIn != nil {
		cur, started := b.sessions[timeutil.DateKey(date)]
		started = started && cur.CheckIn != nil
		if !started && timeutil.ElapsedHours(*prev.CheckIn, ts) <= maxSpan {
			if prev.CheckOut == nil || ts.After(*prev.CheckOut) {
				prev.CheckOut = &ts
			}
			return
		}
	}

	sess := b.get(p.EmployeeCode, date)
	if sess.CheckIn == nil {
		sess.CheckIn = &ts
		return
	}
	if timeutil.ElapsedHours(*sess.CheckIn, ts) <= maxSpan {
		if sess.CheckOut == nil || ts.After(*sess.CheckOut) {
			sess.CheckOut = &ts
		}
		return
	}

	// Overflow: the punch starts the next rotation.
	next := b.get(p.EmployeeCode, date.AddDate(0, 0, 1))
	if next.CheckIn == nil || ts.Before(*next.CheckIn) {
		next.CheckIn = &ts
	}
}
