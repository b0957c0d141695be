package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `
	id, name, type, start_time::text, end_time::text, work_days,
	base_hours, max_overtime_hours, friday_max_overtime_hours,
	overtime_multiplier, friday_overtime_multiplier, grace_period,
	deductions, sick_leave_deduction, is_cross_day, created_at, updated_at`

// tierRow is the JSONB form of a deduction tier. Clocks are stored as HH:MM:SS.
type tierRow struct {
	Kind  string  `json:"kind"`
	Start *string `json:"start,omitempty"`
	End   *string `json:"end,omitempty"`
}

func encodeTiers(tiers []shift.DeductionTier) ([]byte, error) {
	rows := make([]tierRow, 0, len(tiers))
	for _, t := range tiers {
		row := tierRow{Kind: string(t.Kind)}
		if t.Start != nil {
			s := t.Start.Format(timeutil.ClockLayout)
			row.Start = &s
		}
		if t.End != nil {
			s := t.End.Format(timeutil.ClockLayout)
			row.End = &s
		}
		rows = append(rows, row)
	}
	return json.Marshal(rows)
}

func decodeTiers(raw []byte) ([]shift.DeductionTier, error) {
	var rows []tierRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	tiers := make([]shift.DeductionTier, 0, len(rows))
	for _, row := range rows {
		tier := shift.DeductionTier{Kind: shift.TierKind(row.Kind)}
		if row.Start != nil {
			c, err := timeutil.ParseClock(*row.Start)
			if err != nil {
				return nil, err
			}
			tier.Start = &c
		}
		if row.End != nil {
			c, err := timeutil.ParseClock(*row.End)
			if err != nil {
				return nil, err
			}
			tier.End = &c
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func scanShift(row pgx.Row) (shift.Shift, error) {
	var (
		s          shift.Shift
		start, end string
		tiers      []byte
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Type, &start, &end, &s.WorkDays,
		&s.BaseHours, &s.MaxOvertimeHours, &s.FridayMaxOvertimeHours,
		&s.OvertimeMultiplier, &s.FridayOvertimeMultiplier, &s.GracePeriod,
		&tiers, &s.SickLeaveDeduction, &s.IsCrossDay, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return shift.Shift{}, err
	}

	if s.StartTime, err = timeutil.ParseClock(start); err != nil {
		return shift.Shift{}, fmt.Errorf("shift %s start_time: %w", s.ID, err)
	}
	if s.EndTime, err = timeutil.ParseClock(end); err != nil {
		return shift.Shift{}, fmt.Errorf("shift %s end_time: %w", s.ID, err)
	}
	if s.Deductions, err = decodeTiers(tiers); err != nil {
		return shift.Shift{}, fmt.Errorf("shift %s deductions: %w", s.ID, err)
	}
	return s, nil
}

// Create implements shift.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	tiers, err := encodeTiers(s.Deductions)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO shifts (
			name, type, start_time, end_time, work_days,
			base_hours, max_overtime_hours, friday_max_overtime_hours,
			overtime_multiplier, friday_overtime_multiplier, grace_period,
			deductions, sick_leave_deduction, is_cross_day
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		s.Name, s.Type, s.StartTime.Format(timeutil.ClockLayout), s.EndTime.Format(timeutil.ClockLayout), s.WorkDays,
		s.BaseHours, s.MaxOvertimeHours, s.FridayMaxOvertimeHours,
		s.OvertimeMultiplier, s.FridayOvertimeMultiplier, s.GracePeriod,
		tiers, s.SickLeaveDeduction, s.IsCrossDay,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return s, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)
	if uuid.Validate(id) != nil {
		return shift.Shift{}, shift.ErrShiftNotFound
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	s, err := scanShift(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift by id: %w", err)
	}
	return s, nil
}

// GetByIDs implements shift.ShiftRepository. Unknown ids are left out of the result.
func (r *shiftRepository) GetByIDs(ctx context.Context, ids []string) (map[string]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)
	result := make(map[string]shift.Shift, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id::text = ANY($1)`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		result[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return result, nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepository) List(ctx context.Context, filter shift.ShiftFilter) ([]shift.Shift, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.Name != nil && *filter.Name != "" {
		baseWhere += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+*filter.Name+"%")
		argIdx++
	}
	if filter.Type != nil && *filter.Type != "" {
		baseWhere += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM shifts WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shifts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, shiftColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return shifts, total, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)
	if uuid.Validate(s.ID) != nil {
		return shift.Shift{}, shift.ErrShiftNotFound
	}

	tiers, err := encodeTiers(s.Deductions)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		UPDATE shifts SET
			name = $2, type = $3, start_time = $4, end_time = $5, work_days = $6,
			base_hours = $7, max_overtime_hours = $8, friday_max_overtime_hours = $9,
			overtime_multiplier = $10, friday_overtime_multiplier = $11, grace_period = $12,
			deductions = $13, sick_leave_deduction = $14, is_cross_day = $15,
			updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		s.ID, s.Name, s.Type, s.StartTime.Format(timeutil.ClockLayout), s.EndTime.Format(timeutil.ClockLayout), s.WorkDays,
		s.BaseHours, s.MaxOvertimeHours, s.FridayMaxOvertimeHours,
		s.OvertimeMultiplier, s.FridayOvertimeMultiplier, s.GracePeriod,
		tiers, s.SickLeaveDeduction, s.IsCrossDay,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to update shift: %w", err)
	}

	return s, nil
}

// Delete implements shift.ShiftRepository.
func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)
	if uuid.Validate(id) != nil {
		return shift.ErrShiftNotFound
	}

	tag, err := q.Exec(ctx, "DELETE FROM shifts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}
