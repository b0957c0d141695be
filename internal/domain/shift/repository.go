package shift

import "context"

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id string) (Shift, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]Shift, int64, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	Delete(ctx context.Context, id string) error
}
