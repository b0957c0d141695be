package employee

import "time"

type Employee struct {
	ID           string
	EmployeeCode string
	FullName     string
	ShiftID      string
	// GraceBalance is the live grace-period counter for GraceMonth
	// (YYYY-MM). It is only written by reconciliation passes that cover
	// the current month.
	GraceBalance *int
	GraceMonth   *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GraceFor returns the live balance if it belongs to the given month.
func (e Employee) GraceFor(month string) (int, bool) {
	if e.GraceBalance == nil || e.GraceMonth == nil || *e.GraceMonth != month {
		return 0, false
	}
	return *e.GraceBalance, true
}
