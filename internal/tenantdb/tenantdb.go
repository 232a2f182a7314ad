// Package tenantdb wraps a *sql.DB so that every statement is tenant
// filtered before it reaches the driver.
//
// The tenant context travels in the context.Context passed to each call
// (see tenant.WithContext). Statements run under tenant.WithIgnore are
// passed through untouched, which is also how schema changes are issued.
package tenantdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tenantsql/internal/sqlrewrite"
	"tenantsql/internal/tenant"
)

// Options configures Open.
type Options struct {
	// PassThrough disables rewriting (tenant mode off).
	PassThrough bool
	Logger      *slog.Logger
}

// DB is a tenant-aware database handle. It is safe for concurrent use.
type DB struct {
	db          *sql.DB
	rw          *sqlrewrite.Rewriter
	passThrough bool
	logger      *slog.Logger
}

// Open opens a database with database/sql and wraps it. The "sqlite3"
// driver goes through OpenSQLite.
func Open(driverName, dsn string, rw *sqlrewrite.Rewriter, opts Options) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	if driverName == "sqlite3" {
		db, err = OpenSQLite(dsn)
	} else {
		db, err = sql.Open(driverName, dsn)
	}
	if err != nil {
		return nil, err
	}

	d := New(db, rw)
	d.passThrough = opts.PassThrough
	if opts.Logger != nil {
		d.logger = opts.Logger
	}
	return d, nil
}

// New wraps an existing pool with rewriting enabled.
func New(db *sql.DB, rw *sqlrewrite.Rewriter) *DB {
	return &DB{
		db:     db,
		rw:     rw,
		logger: slog.New(slog.DiscardHandler),
	}
}

// Close closes the underlying pool.
func (d *DB) Close() error { return d.db.Close() }

// rewrite applies the tenant context of ctx to query.
func (d *DB) rewrite(ctx context.Context, query string) (string, error) {
	if d.passThrough || tenant.IgnoreFromContext(ctx) {
		return query, nil
	}

	tc, ok := tenant.FromContext(ctx)
	if !ok {
		return "", sqlrewrite.ErrNoTenant
	}

	res, err := d.rw.RewriteSQL(query, tc)
	if err != nil {
		d.logger.Warn("statement rejected", "tenant_id", tc.TenantID, "error", err)
		return "", fmt.Errorf("tenant rewrite: %w", err)
	}
	return res.SQL, nil
}

// ExecContext rewrites and executes a statement that returns no rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q, err := d.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}
	return d.db.ExecContext(ctx, q, args...)
}

// QueryContext rewrites and executes a query.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q, err := d.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}
	return d.db.QueryContext(ctx, q, args...)
}

// QueryRowContext rewrites and executes a query expected to return at
// most one row. A rewrite error is reported by Scan.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	q, err := d.rewrite(ctx, query)
	if err != nil {
		return &Row{err: err}
	}
	return &Row{row: d.db.QueryRowContext(ctx, q, args...)}
}

// BeginTx starts a transaction whose statements are rewritten the same
// way.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: d}, nil
}

// Tx is a tenant-aware transaction.
type Tx struct {
	tx *sql.Tx
	db *DB
}

// ExecContext rewrites and executes a statement inside the transaction.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q, err := t.db.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}
	return t.tx.ExecContext(ctx, q, args...)
}

// QueryContext rewrites and executes a query inside the transaction.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q, err := t.db.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}
	return t.tx.QueryContext(ctx, q, args...)
}

// QueryRowContext rewrites and executes a single-row query inside the
// transaction.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	q, err := t.db.rewrite(ctx, query)
	if err != nil {
		return &Row{err: err}
	}
	return &Row{row: t.tx.QueryRowContext(ctx, q, args...)}
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Row is the result of QueryRowContext.
type Row struct {
	row *sql.Row
	err error
}

// Scan copies the row's columns into dest. It returns the rewrite error,
// if any, before touching the database row.
func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}

// Err returns the rewrite or query error without scanning.
func (r *Row) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.row.Err()
}
