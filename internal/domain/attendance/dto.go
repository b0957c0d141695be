package attendance

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// IMPORT DTOs
// ========================================

const MaxImportFileSize = 10 << 20 // 10MB

type ImportPunchesRequest struct {
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *ImportPunchesRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.File == nil || r.FileHeader == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "file",
			Message: "attendance file is required",
		})
	} else if ext := strings.ToLower(filepath.Ext(r.FileHeader.Filename)); ext != ".xlsx" && ext != ".xlsm" {
		errs = append(errs, validator.ValidationError{
			Field:   "file",
			Message: "invalid file type: only xlsx, xlsm allowed",
		})
	} else if r.FileHeader.Size > MaxImportFileSize {
		errs = append(errs, validator.ValidationError{
			Field:   "file",
			Message: "attendance file size must not exceed 10MB",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type EmployeeImportResult struct {
	EmployeeCode   string `json:"employee_code"`
	Punches        int    `json:"punches"`
	Sessions       int    `json:"sessions"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	RemainingGrace int    `json:"remaining_grace"`
}

type SkippedEmployee struct {
	EmployeeCode string `json:"employee_code"`
	Reason       string `json:"reason"`
}

type ImportPunchesResponse struct {
	BatchID         string                 `json:"batch_id"`
	FileURL         string                 `json:"file_url"`
	TotalRows       int                    `json:"total_rows"`
	AcceptedPunches int                    `json:"accepted_punches"`
	InvalidRows     int                    `json:"invalid_rows"`
	RowErrors       []RowError             `json:"row_errors,omitempty"`
	Employees       []EmployeeImportResult `json:"employees"`
	Skipped         []SkippedEmployee      `json:"skipped,omitempty"`
}

// ========================================
// RECONCILE DTOs
// ========================================

type ReconcileRequest struct {
	EmployeeCode string `json:"employee_code"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	EndDate      string `json:"end_date"`   // YYYY-MM-DD
}

func (r *ReconcileRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startOK && endOK {
		if start.After(end) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		} else if end.Sub(start) > 366*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "date range must not exceed one year",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ReconcileResponse struct {
	EmployeeCode   string               `json:"employee_code"`
	StartDate      string               `json:"start_date"`
	EndDate        string               `json:"end_date"`
	RemainingGrace int                  `json:"remaining_grace"`
	GracePublished bool                 `json:"grace_published"`
	Days           []AttendanceResponse `json:"days"`
}

// ========================================
// LEAVE DTOs
// ========================================

type SetLeaveRequest struct {
	EmployeeCode       string   `json:"employee_code"`
	Date               string   `json:"date"` // YYYY-MM-DD
	Status             string   `json:"status"`
	SickLeaveDeduction *float64 `json:"sick_leave_deduction,omitempty"`
}

func (r *SetLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if !validator.IsInSlice(r.Status, LeaveStatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(LeaveStatusValues, ", "),
		})
	}

	if r.SickLeaveDeduction != nil {
		if r.Status != string(StatusSickLeave) {
			errs = append(errs, validator.ValidationError{
				Field:   "sick_leave_deduction",
				Message: "sick_leave_deduction only applies to sick_leave",
			})
		} else if *r.SickLeaveDeduction < 0 || *r.SickLeaveDeduction > 1 {
			errs = append(errs, validator.ValidationError{
				Field:   "sick_leave_deduction",
				Message: "sick_leave_deduction must be between 0 and 1",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// QUERY DTOs
// ========================================

type AttendanceResponse struct {
	ID                 string   `json:"id,omitempty"`
	EmployeeCode       string   `json:"employee_code"`
	EmployeeName       *string  `json:"employee_name,omitempty"`
	Date               string   `json:"date"`
	CheckIn            *string  `json:"check_in,omitempty"`
	CheckOut           *string  `json:"check_out,omitempty"`
	CheckInDate        *string  `json:"check_in_date,omitempty"`
	CheckOutDate       *string  `json:"check_out_date,omitempty"`
	LeaveStatus        *string  `json:"leave_status,omitempty"`
	Status             *string  `json:"status,omitempty"`
	LateMinutes        int      `json:"late_minutes"`
	EarlyLeaveMinutes  int      `json:"early_leave_minutes"`
	DelayMinutes       int      `json:"delay_minutes"`
	OvertimeHours      float64  `json:"overtime_hours"`
	DeductedHours      float64  `json:"deducted_hours"`
	DeductedDays       float64  `json:"deducted_days"`
	SickLeaveDeduction *float64 `json:"sick_leave_deduction,omitempty"`
	RemainingGrace     *int     `json:"remaining_grace_period,omitempty"`
	IsWeeklyOff        bool     `json:"is_weekly_off"`
	IsWorkedWeeklyOff  bool     `json:"is_worked_weekly_off"`
	PendingCheckout    bool     `json:"pending_checkout"`
	CreatedAt          string   `json:"created_at,omitempty"`
	UpdatedAt          string   `json:"updated_at,omitempty"`
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02 15:04:05")
	return &s
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timeutil.DateKey(*t)
	return &s
}

// NewAttendanceResponse maps a stored record to its API representation.
func NewAttendanceResponse(r Record) AttendanceResponse {
	resp := AttendanceResponse{
		ID:                 r.ID,
		EmployeeCode:       r.EmployeeCode,
		EmployeeName:       r.EmployeeName,
		Date:               timeutil.DateKey(r.Date),
		CheckIn:            formatTimestamp(r.CheckIn),
		CheckOut:           formatTimestamp(r.CheckOut),
		CheckInDate:        formatDate(r.CheckInDate()),
		CheckOutDate:       formatDate(r.CheckOutDate()),
		LateMinutes:        r.LateMinutes,
		EarlyLeaveMinutes:  r.EarlyLeaveMinutes,
		DelayMinutes:       r.DelayMinutes,
		OvertimeHours:      r.OvertimeHours,
		DeductedHours:      r.DeductedHours,
		DeductedDays:       r.DeductedDays,
		SickLeaveDeduction: r.SickLeaveDeduction,
		RemainingGrace:     r.RemainingGracePeriod,
		IsWeeklyOff:        r.IsWeeklyOff,
		IsWorkedWeeklyOff:  r.IsWorkedWeeklyOff,
		PendingCheckout:    r.PendingCheckout,
	}
	if r.LeaveStatus != nil {
		s := string(*r.LeaveStatus)
		resp.LeaveStatus = &s
	}
	if r.AttendanceStatus != nil {
		s := string(*r.AttendanceStatus)
		resp.Status = &s
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format("2006-01-02 15:04:05")
		resp.UpdatedAt = r.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	return resp
}

type AttendanceFilter struct {
	// Search & Filter
	EmployeeCode *string `json:"employee_code,omitempty"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Date         *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status       *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_code, employee_name, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	// Status validation
	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues, ", "),
		})
	}

	// Date validation
	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	// Sort validation
	validSortFields := []string{"date", "employee_code", "employee_name", "status"}
	if f.SortBy != "" {
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: " + strings.Join(validSortFields, ", "),
			})
		}
	} else {
		f.SortBy = "date" // Default sort
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// ========================================
// SUMMARY DTOs
// ========================================

type MonthlySummaryRequest struct {
	EmployeeCode string `json:"employee_code"`
	Month        string `json:"month"` // YYYY-MM
}

func (r *MonthlySummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code is required",
		})
	}
	if _, err := time.Parse(timeutil.MonthLayout, r.Month); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MonthlySummaryResponse struct {
	EmployeeCode       string  `json:"employee_code"`
	Month              string  `json:"month"`
	Days               int     `json:"days"`
	PresentDays        int     `json:"present_days"`
	LateDays           int     `json:"late_days"`
	AbsentDays         int     `json:"absent_days"`
	WeeklyOffDays      int     `json:"weekly_off_days"`
	LeaveDays          int     `json:"leave_days"`
	SickLeaveDays      int     `json:"sick_leave_days"`
	WorkedWeeklyOffs   int     `json:"worked_weekly_offs"`
	PendingCheckouts   int     `json:"pending_checkouts"`
	TotalDelayMinutes  int     `json:"total_delay_minutes"`
	TotalOvertimeHours float64 `json:"total_overtime_hours"`
	TotalDeductedHours float64 `json:"total_deducted_hours"`
	TotalDeductedDays  float64 `json:"total_deducted_days"`
	RemainingGrace     *int    `json:"remaining_grace,omitempty"`
}

func NewMonthlySummaryResponse(s MonthlySummary) MonthlySummaryResponse {
	return MonthlySummaryResponse(s)
}
