package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// EmployeeLocker serializes work per employee with a transaction-scoped
// advisory lock. Everything fn writes through GetQuerier commits or rolls
// back together, and the lock is released with the transaction.
type EmployeeLocker struct {
	db *database.DB
}

func NewEmployeeLocker(db *database.DB) attendance.Locker {
	return &EmployeeLocker{db: db}
}

// WithEmployeeLock implements attendance.Locker.
func (l *EmployeeLocker) WithEmployeeLock(ctx context.Context, employeeCode string, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, l.db, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(txCtx, "SELECT pg_advisory_xact_lock(hashtext($1))", employeeCode); err != nil {
			return fmt.Errorf("failed to lock employee %s: %w", employeeCode, err)
		}
		return fn(txCtx)
	})
}
