package shift

import "time"

// Shift is the work pattern an employee's attendance is reconciled against.
// The reconciliation engine only ever reads it.
type Shift struct {
	ID                       string
	Name                     string
	Type                     Type
	StartTime                time.Time // clock only
	EndTime                  time.Time // clock only, may wrap past midnight
	WorkDays                 []int     // 0=Sunday, ..., 6=Saturday
	BaseHours                float64
	MaxOvertimeHours         float64
	FridayMaxOvertimeHours   float64
	OvertimeMultiplier       float64
	FridayOvertimeMultiplier float64
	GracePeriod              int // minutes per calendar month
	Deductions               []DeductionTier
	SickLeaveDeduction       float64 // day fraction
	IsCrossDay               bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type Type string

const (
	TypeStandardDay  Type = "standard_day"
	TypeEvening      Type = "evening"
	TypeContinuous24 Type = "continuous_24"
)

var TypeValues = []string{
	string(TypeStandardDay),
	string(TypeEvening),
	string(TypeContinuous24),
}

type TierKind string

const (
	TierQuarterDay TierKind = "quarter_day"
	TierHalfDay    TierKind = "half_day"
	TierFullDay    TierKind = "full_day"
	TierMinutes    TierKind = "minutes"
)

var TierKindValues = []string{
	string(TierQuarterDay),
	string(TierHalfDay),
	string(TierFullDay),
	string(TierMinutes),
}

// DayFraction is the share of a day a day tier deducts. Minute tiers
// deduct hours instead and report zero.
func (k TierKind) DayFraction() float64 {
	switch k {
	case TierQuarterDay:
		return 0.25
	case TierHalfDay:
		return 0.5
	case TierFullDay:
		return 1.0
	}
	return 0
}

func (k TierKind) IsDayTier() bool {
	return k == TierQuarterDay || k == TierHalfDay || k == TierFullDay
}

// DeductionTier is either a clock window that deducts a day fraction, or a
// minute tier converting excess minutes into deducted hours. Minute tier
// bounds are optional and default to the shift boundaries.
type DeductionTier struct {
	Kind  TierKind
	Start *time.Time
	End   *time.Time
}

// CrossDay reports whether a session may span two calendar dates. Evening
// and continuous shifts always do.
func (s Shift) CrossDay() bool {
	return s.IsCrossDay || s.Type == TypeEvening || s.Type == TypeContinuous24
}

// MaxSpanHours is the longest session the shift credits before it is split.
func (s Shift) MaxSpanHours() float64 {
	return s.BaseHours + s.MaxOvertimeHours
}

// MinuteTier returns the first minute tier, if any.
func (s Shift) MinuteTier() (DeductionTier, bool) {
	for _, t := range s.Deductions {
		if t.Kind == TierMinutes {
			return t, true
		}
	}
	return DeductionTier{}, false
}
