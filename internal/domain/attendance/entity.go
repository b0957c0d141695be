package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
)

type Status string

const (
	StatusPresent       Status = "present"
	StatusLate          Status = "late"
	StatusAbsent        Status = "absent"
	StatusWeeklyOff     Status = "weekly_off"
	StatusOfficialLeave Status = "official_leave"
	StatusAnnualLeave   Status = "annual_leave"
	StatusSickLeave     Status = "sick_leave"
)

var StatusValues = []string{
	string(StatusPresent),
	string(StatusLate),
	string(StatusAbsent),
	string(StatusWeeklyOff),
	string(StatusOfficialLeave),
	string(StatusAnnualLeave),
	string(StatusSickLeave),
}

// LeaveStatusValues are the statuses that can be assigned to a date ahead of
// reconciliation.
var LeaveStatusValues = []string{
	string(StatusWeeklyOff),
	string(StatusOfficialLeave),
	string(StatusAnnualLeave),
	string(StatusSickLeave),
}

// IsApprovedLeave reports statuses that carry no deduction at all.
func (s Status) IsApprovedLeave() bool {
	return s == StatusAnnualLeave || s == StatusWeeklyOff || s == StatusOfficialLeave
}

// Punch is a single raw badge event.
type Punch struct {
	EmployeeCode string
	Timestamp    time.Time
}

// Session is one check-in/check-out pairing for a work cycle. Date is the
// calendar day the session is attributed to; the punches themselves may
// fall on the following day for cross-day shifts.
type Session struct {
	EmployeeCode string
	Date         time.Time
	CheckIn      *time.Time
	CheckOut     *time.Time

	// CarriedHours were worked past the previous rotation's span limit and
	// are credited to this date in addition to its own punches.
	CarriedHours float64

	// Pre-assigned leave status, empty when none.
	LeaveStatus        Status
	SickLeaveDeduction *float64
}

func (s Session) HasPunches() bool {
	return s.CheckIn != nil || s.CheckOut != nil
}

// DayOutcome is the fully adjudicated result for one session.
type DayOutcome struct {
	EmployeeCode      string
	Date              time.Time
	CheckIn           *time.Time
	CheckOut          *time.Time
	Status            Status
	LateMinutes       int
	EarlyLeaveMinutes int
	DelayMinutes      int
	DurationHours     float64
	OvertimeHours     float64
	DeductedHours     float64
	DeductedDays      float64
	RemainingGrace    int
	IsWeeklyOff       bool
	IsWorkedWeeklyOff bool
	PendingCheckout   bool

	// Seed carries the hours of an over-long session past the span limit.
	// It holds no punches and is merged into Seed.Date before that date is
	// evaluated.
	Seed *Session
}

// Record is the persisted attendance record of one employee on one date.
type Record struct {
	ID                   string
	EmployeeCode         string
	Date                 time.Time
	CheckIn              *time.Time
	CheckOut             *time.Time
	LeaveStatus          *Status
	SickLeaveDeduction   *float64
	AttendanceStatus     *Status
	LateMinutes          int
	EarlyLeaveMinutes    int
	DelayMinutes         int
	OvertimeHours        float64
	DeductedHours        float64
	DeductedDays         float64
	RemainingGracePeriod *int
	IsWeeklyOff          bool
	IsWorkedWeeklyOff    bool
	PendingCheckout      bool
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// DTO
	EmployeeName *string
}

// CheckInDate is the calendar date the check-in punch occurred on.
func (r Record) CheckInDate() *time.Time {
	if r.CheckIn == nil {
		return nil
	}
	d := timeutil.TruncateDay(*r.CheckIn)
	return &d
}

// CheckOutDate is the calendar date the check-out punch occurred on.
func (r Record) CheckOutDate() *time.Time {
	if r.CheckOut == nil {
		return nil
	}
	d := timeutil.TruncateDay(*r.CheckOut)
	return &d
}

// Session returns the engine input held by the record.
func (r Record) Session() Session {
	s := Session{
		EmployeeCode:       r.EmployeeCode,
		Date:               timeutil.TruncateDay(r.Date),
		CheckIn:            r.CheckIn,
		CheckOut:           r.CheckOut,
		SickLeaveDeduction: r.SickLeaveDeduction,
	}
	if r.LeaveStatus != nil {
		s.LeaveStatus = *r.LeaveStatus
	}
	return s
}

// NewRecordFromOutcome builds the record state for a reconciled day.
func NewRecordFromOutcome(o DayOutcome, leave Status, sickDeduction *float64) Record {
	status := o.Status
	grace := o.RemainingGrace
	r := Record{
		EmployeeCode:         o.EmployeeCode,
		Date:                 o.Date,
		CheckIn:              o.CheckIn,
		CheckOut:             o.CheckOut,
		SickLeaveDeduction:   sickDeduction,
		AttendanceStatus:     &status,
		LateMinutes:          o.LateMinutes,
		EarlyLeaveMinutes:    o.EarlyLeaveMinutes,
		DelayMinutes:         o.DelayMinutes,
		OvertimeHours:        o.OvertimeHours,
		DeductedHours:        o.DeductedHours,
		DeductedDays:         o.DeductedDays,
		RemainingGracePeriod: &grace,
		IsWeeklyOff:          o.IsWeeklyOff,
		IsWorkedWeeklyOff:    o.IsWorkedWeeklyOff,
		PendingCheckout:      o.PendingCheckout,
	}
	if leave != "" {
		r.LeaveStatus = &leave
	}
	return r
}

// MonthlySummary aggregates reconciled days for one employee and month.
type MonthlySummary struct {
	EmployeeCode       string
	Month              string // YYYY-MM
	Days               int
	PresentDays        int
	LateDays           int
	AbsentDays         int
	WeeklyOffDays      int
	LeaveDays          int
	SickLeaveDays      int
	WorkedWeeklyOffs   int
	PendingCheckouts   int
	TotalDelayMinutes  int
	TotalOvertimeHours float64
	TotalDeductedHours float64
	TotalDeductedDays  float64
	RemainingGrace     *int
}
