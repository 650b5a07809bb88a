package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Statement is one write of an atomic batch.
type Statement struct {
	Query string
	Args  []any
}

// ExecAtomic executes stmts in a single transaction. Either every statement
// is applied or none is.
func ExecAtomic(ctx context.Context, db *sql.DB, stmts []Statement) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		for i, s := range stmts {
			if _, err := tx.ExecContext(ctx, s.Query, s.Args...); err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
		}
		return nil
	})
}

// withTx runs fn inside a transaction and commits when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
