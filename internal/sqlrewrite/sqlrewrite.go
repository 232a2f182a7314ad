// Package sqlrewrite enforces tenant row isolation on SQL statements.
//
// Statements are parsed into sqlast trees, a tenant predicate is injected
// into every filtered table reference (or the tenant column appended to
// INSERTs), and the tree is formatted back to SQL.
package sqlrewrite

import (
	"log/slog"

	"tenantsql/internal/sqlast"
	"tenantsql/internal/sqlparse"
	"tenantsql/internal/tenant"
)

// Rewriter applies tenant isolation to statements. It holds no per-call
// state and is safe for concurrent use.
type Rewriter struct {
	logger *slog.Logger
}

// New creates a Rewriter. A nil logger discards output.
func New(logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rewriter{logger: logger}
}

// Result is the outcome of RewriteSQL.
type Result struct {
	SQL     string
	Changed bool
	Type    sqlast.StmtType
	Tables  []string
}

// Rewrite mutates stmt in place for tc and returns it. The caller owns
// stmt exclusively for the duration of the call.
func (rw *Rewriter) Rewrite(stmt sqlast.Stmt, tc *tenant.Context) (sqlast.Stmt, error) {
	if err := checkContext(tc); err != nil {
		return nil, err
	}
	if tc.Ignore {
		return stmt, nil
	}
	if err := newStatementRewriter(tc).rewrite(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// RewriteSQL parses a single statement, rewrites it and formats it back.
// When nothing changes the input text is returned as is.
func (rw *Rewriter) RewriteSQL(sql string, tc *tenant.Context) (*Result, error) {
	if err := checkContext(tc); err != nil {
		return nil, err
	}

	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SQL:    sql,
		Type:   sqlast.Classify(stmt),
		Tables: sqlast.CollectTableNames(stmt),
	}

	before := sqlast.Format(stmt)
	if _, err := rw.Rewrite(stmt, tc); err != nil {
		rw.logger.Warn("tenant rewrite failed", "tenant_id", tc.TenantID, "sql", sql, "error", err)
		return nil, err
	}
	if after := sqlast.Format(stmt); after != before {
		res.SQL = after
		res.Changed = true
	}

	rw.logger.Debug("tenant rewrite",
		"tenant_id", tc.TenantID,
		"administrator", tc.Administrator,
		"ignore", tc.Ignore,
		"type", res.Type.String(),
		"changed", res.Changed,
		"original", sql,
		"rewritten", res.SQL,
	)
	return res, nil
}

// checkContext rejects calls that would otherwise filter on an empty
// tenant id.
func checkContext(tc *tenant.Context) error {
	if tc == nil {
		return ErrNoTenant
	}
	if tc.TenantID == "" && !tc.Administrator && !tc.Ignore {
		return ErrNoTenant
	}
	return nil
}
