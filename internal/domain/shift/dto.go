package shift

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// SHIFT DTOs
// ========================================

type DeductionTierRequest struct {
	Kind  string  `json:"kind"`
	Start *string `json:"start,omitempty"` // HH:MM
	End   *string `json:"end,omitempty"`   // HH:MM
}

type CreateShiftRequest struct {
	Name                     string                 `json:"name"`
	Type                     string                 `json:"type"`
	StartTime                string                 `json:"start_time"` // HH:MM or h:mm AM/PM
	EndTime                  string                 `json:"end_time"`
	WorkDays                 []int                  `json:"work_days"`
	BaseHours                float64                `json:"base_hours"`
	MaxOvertimeHours         float64                `json:"max_overtime_hours"`
	FridayMaxOvertimeHours   float64                `json:"friday_max_overtime_hours"`
	OvertimeMultiplier       float64                `json:"overtime_multiplier"`
	FridayOvertimeMultiplier float64                `json:"friday_overtime_multiplier"`
	GracePeriod              int                    `json:"grace_period"`
	Deductions               []DeductionTierRequest `json:"deductions"`
	SickLeaveDeduction       float64                `json:"sick_leave_deduction"`
	IsCrossDay               bool                   `json:"is_cross_day"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if !validator.IsInSlice(r.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(TypeValues, ", "),
		})
	}
	if _, ok := validator.IsValidClock(r.StartTime); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be HH:MM or h:mm AM/PM",
		})
	}
	if _, ok := validator.IsValidClock(r.EndTime); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be HH:MM or h:mm AM/PM",
		})
	}

	if len(r.WorkDays) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "work_days",
			Message: "work_days must contain at least one weekday",
		})
	}
	for _, d := range r.WorkDays {
		if d < 0 || d > 6 {
			errs = append(errs, validator.ValidationError{
				Field:   "work_days",
				Message: "work_days entries must be between 0 (Sunday) and 6 (Saturday)",
			})
			break
		}
	}

	if r.BaseHours <= 0 || r.BaseHours > 48 {
		errs = append(errs, validator.ValidationError{
			Field:   "base_hours",
			Message: "base_hours must be greater than 0 and at most 48",
		})
	}
	for field, v := range map[string]float64{
		"max_overtime_hours":         r.MaxOvertimeHours,
		"friday_max_overtime_hours":  r.FridayMaxOvertimeHours,
		"overtime_multiplier":        r.OvertimeMultiplier,
		"friday_overtime_multiplier": r.FridayOvertimeMultiplier,
		"sick_leave_deduction":       r.SickLeaveDeduction,
	} {
		if v < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be a non-negative number",
			})
		}
	}
	if r.SickLeaveDeduction > 1 {
		errs = append(errs, validator.ValidationError{
			Field:   "sick_leave_deduction",
			Message: "sick_leave_deduction must not exceed 1 day",
		})
	}
	if r.GracePeriod < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "grace_period",
			Message: "grace_period must be a non-negative number",
		})
	}

	for i, tier := range r.Deductions {
		field := fmt.Sprintf("deductions[%d]", i)
		if !validator.IsInSlice(tier.Kind, TierKindValues) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".kind",
				Message: "kind must be one of: " + strings.Join(TierKindValues, ", "),
			})
			continue
		}
		if TierKind(tier.Kind).IsDayTier() && (tier.Start == nil || tier.End == nil) {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "day tiers require both start and end",
			})
			continue
		}
		if tier.Start != nil {
			if _, ok := validator.IsValidClock(*tier.Start); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   field + ".start",
					Message: "start must be HH:MM",
				})
			}
		}
		if tier.End != nil {
			if _, ok := validator.IsValidClock(*tier.End); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   field + ".end",
					Message: "end must be HH:MM",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToShift converts a validated request into an entity.
func (r *CreateShiftRequest) ToShift() Shift {
	start, _ := timeutil.ParseClock(r.StartTime)
	end, _ := timeutil.ParseClock(r.EndTime)

	tiers := make([]DeductionTier, 0, len(r.Deductions))
	for _, t := range r.Deductions {
		tier := DeductionTier{Kind: TierKind(t.Kind)}
		if t.Start != nil {
			c, _ := timeutil.ParseClock(*t.Start)
			tier.Start = &c
		}
		if t.End != nil {
			c, _ := timeutil.ParseClock(*t.End)
			tier.End = &c
		}
		tiers = append(tiers, tier)
	}

	return Shift{
		Name:                     strings.TrimSpace(r.Name),
		Type:                     Type(r.Type),
		StartTime:                start,
		EndTime:                  end,
		WorkDays:                 r.WorkDays,
		BaseHours:                r.BaseHours,
		MaxOvertimeHours:         r.MaxOvertimeHours,
		FridayMaxOvertimeHours:   r.FridayMaxOvertimeHours,
		OvertimeMultiplier:       r.OvertimeMultiplier,
		FridayOvertimeMultiplier: r.FridayOvertimeMultiplier,
		GracePeriod:              r.GracePeriod,
		Deductions:               tiers,
		SickLeaveDeduction:       r.SickLeaveDeduction,
		IsCrossDay:               r.IsCrossDay,
	}
}

// UpdateShiftRequest replaces the whole configuration of an existing shift.
type UpdateShiftRequest struct {
	ID string `json:"-"`
	CreateShiftRequest
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if err := r.CreateShiftRequest.Validate(); err != nil {
		if v, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, v...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeductionTierResponse struct {
	Kind  string  `json:"kind"`
	Start *string `json:"start,omitempty"`
	End   *string `json:"end,omitempty"`
}

type ShiftResponse struct {
	ID                       string                  `json:"id"`
	Name                     string                  `json:"name"`
	Type                     string                  `json:"type"`
	StartTime                string                  `json:"start_time"`
	EndTime                  string                  `json:"end_time"`
	WorkDays                 []int                   `json:"work_days"`
	BaseHours                float64                 `json:"base_hours"`
	MaxOvertimeHours         float64                 `json:"max_overtime_hours"`
	FridayMaxOvertimeHours   float64                 `json:"friday_max_overtime_hours"`
	OvertimeMultiplier       float64                 `json:"overtime_multiplier"`
	FridayOvertimeMultiplier float64                 `json:"friday_overtime_multiplier"`
	GracePeriod              int                     `json:"grace_period"`
	Deductions               []DeductionTierResponse `json:"deductions"`
	SickLeaveDeduction       float64                 `json:"sick_leave_deduction"`
	IsCrossDay               bool                    `json:"is_cross_day"`
	CreatedAt                string                  `json:"created_at"`
	UpdatedAt                string                  `json:"updated_at"`
}

func clockString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("15:04")
	return &s
}

// NewShiftResponse maps an entity to its API representation.
func NewShiftResponse(s Shift) ShiftResponse {
	tiers := make([]DeductionTierResponse, 0, len(s.Deductions))
	for _, t := range s.Deductions {
		tiers = append(tiers, DeductionTierResponse{
			Kind:  string(t.Kind),
			Start: clockString(t.Start),
			End:   clockString(t.End),
		})
	}
	return ShiftResponse{
		ID:                       s.ID,
		Name:                     s.Name,
		Type:                     string(s.Type),
		StartTime:                s.StartTime.Format("15:04"),
		EndTime:                  s.EndTime.Format("15:04"),
		WorkDays:                 s.WorkDays,
		BaseHours:                s.BaseHours,
		MaxOvertimeHours:         s.MaxOvertimeHours,
		FridayMaxOvertimeHours:   s.FridayMaxOvertimeHours,
		OvertimeMultiplier:       s.OvertimeMultiplier,
		FridayOvertimeMultiplier: s.FridayOvertimeMultiplier,
		GracePeriod:              s.GracePeriod,
		Deductions:               tiers,
		SickLeaveDeduction:       s.SickLeaveDeduction,
		IsCrossDay:               s.CrossDay(),
		CreatedAt:                s.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:                s.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

type ListShiftResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Shifts     []ShiftResponse `json:"shifts"`
}

type ShiftFilter struct {
	Name *string `json:"name,omitempty"`
	Type *string `json:"type,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ShiftFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Type != nil && !validator.IsInSlice(*f.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(TypeValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
