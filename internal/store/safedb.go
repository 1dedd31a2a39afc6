package store

import (
	"context"
	"database/sql"
)

// dbExecutor is satisfied by both *sql.DB and *sql.Tx, letting the store
// run the same queries either directly against the connection pool or
// inside a transaction handed to it by the worker's batching commit
// policy.
type dbExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// safeDB wraps a dbExecutor and only exposes context-aware methods, so
// every query made through the store carries the caller's context (and,
// through it, its cancellation/timeout) down to the driver.
type safeDB struct {
	exec dbExecutor
	raw  *sql.DB // nil when exec is a *sql.Tx rather than the pool itself
}

func newSafeDB(db *sql.DB) *safeDB {
	return &safeDB{exec: db, raw: db}
}

// withTx returns a safeDB that runs every statement inside tx instead of
// against the connection pool directly.
func withTx(tx *sql.Tx) *safeDB {
	return &safeDB{exec: tx}
}

func (d *safeDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.exec.QueryContext(ctx, query, args...)
}

func (d *safeDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.exec.QueryRowContext(ctx, query, args...)
}

func (d *safeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.exec.ExecContext(ctx, query, args...)
}

// BeginTx starts a new transaction on the underlying pool. It panics if
// called on a safeDB that is already bound to a transaction; callers only
// ever do this on the Store's top-level safeDB.
func (d *safeDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return d.raw.BeginTx(ctx, opts)
}

// Raw returns the underlying *sql.DB, for schema setup and migrations only.
func (d *safeDB) Raw() *sql.DB {
	return d.raw
}

func (d *safeDB) Close() error {
	return d.raw.Close()
}
