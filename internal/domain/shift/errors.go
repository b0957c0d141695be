package shift

import "errors"

var (
	ErrShiftNotFound    = errors.New("shift not found")
	ErrShiftNameExists  = errors.New("shift with this name already exists")
	ErrMissingWorkDays  = errors.New("shift has no work days configured")
	ErrInvalidShiftType = errors.New("invalid shift type")
	ErrShiftInUse       = errors.New("shift is still assigned to employees")
)
