package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// dbExecutor is an interface that both *sql.DB and *sql.Tx implement
type dbExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// transactionManager runs repository work inside a database transaction
type transactionManager struct {
	db *sql.DB
}

// withTransaction executes fn with a repository bound to a transaction,
// committing on success and rolling back on error
func (tm *transactionManager) withTransaction(ctx context.Context, fn func(repo *PostgresRepository) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(&PostgresRepository{db: tx})
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rollbackErr)
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
