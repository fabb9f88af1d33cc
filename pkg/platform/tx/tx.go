// Package tx runs read-modify-write sequences inside a SQL transaction carried
// through the context, so store methods called from the callback join it.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// OpError reports a failure of the transaction itself (begin or commit), as
// opposed to an error returned by the callback.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return tx, ok
}

// Run calls fn inside a transaction and commits when fn returns nil. When ctx
// already carries a transaction, fn joins it and the outer caller commits.
// Errors from fn are returned unchanged.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if existing, ok := From(ctx); ok {
		return fn(ctx, existing)
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &OpError{Op: "begin", Err: err}
	}
	defer sqlTx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(WithTx(ctx, sqlTx), sqlTx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return &OpError{Op: "commit", Err: err}
	}
	return nil
}
