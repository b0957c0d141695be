package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByCode(ctx context.Context, code string) (Employee, error)
	GetByCodes(ctx context.Context, codes []string) (map[string]Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	ListActive(ctx context.Context) ([]Employee, error)
	AssignShift(ctx context.Context, code string, shiftID string) error

	// UpdateGraceBalance overwrites the live grace counter for month (YYYY-MM).
	UpdateGraceBalance(ctx context.Context, code string, month string, balance int) error
}
