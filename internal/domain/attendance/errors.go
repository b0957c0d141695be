package attendance

import "errors"

// Attendance domain errors
var (
	// Reconciliation errors
	ErrUnorderedDays  = errors.New("days must be in strictly ascending date order")
	ErrMixedEmployees = errors.New("sessions belong to more than one employee")

	// Import errors
	ErrInvalidImportFile = errors.New("invalid attendance file")
	ErrImportNoData      = errors.New("attendance file has no data rows")
	ErrImportBadHeader   = errors.New("attendance file header must contain employee_code and timestamp (or date and time) columns")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
