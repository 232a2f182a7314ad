// Package sqlparse turns SQL text into sqlast trees.
//
// Tokenizing and grammar are delegated to the PostgreSQL parser
// (pg_query_go); this package only converts its parse tree into the
// smaller sqlast model the tenant rewriter works on. Constructs outside
// that model are rejected with an *UnsupportedError rather than being
// dropped, so a statement is never silently narrowed.
package sqlparse

import (
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"tenantsql/internal/sqlast"
)

// ErrMultipleStatements is returned by Parse when the input holds more
// than one statement (e.g. "SELECT 1; DROP TABLE foo").
var ErrMultipleStatements = errors.New("expected exactly one SQL statement")

// ErrUnsupported is wrapped by every *UnsupportedError.
var ErrUnsupported = errors.New("unsupported SQL construct")

// UnsupportedError reports a parse-tree node that has no sqlast equivalent.
type UnsupportedError struct {
	Node string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported SQL construct: %s", e.Node)
}

// Unwrap lets errors.Is match ErrUnsupported.
func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func unsupported(format string, args ...any) error {
	return &UnsupportedError{Node: fmt.Sprintf(format, args...)}
}

// Parse parses a single SQL statement.
func Parse(sql string) (sqlast.Stmt, error) {
	stmts, err := ParseAll(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrMultipleStatements, len(stmts))
	}
	return stmts[0], nil
}

// ParseAll parses a script of one or more statements.
func ParseAll(sql string) ([]sqlast.Stmt, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parse SQL: %w", err)
	}

	stmts := make([]sqlast.Stmt, 0, len(result.Stmts))
	for i, raw := range result.Stmts {
		stmt, err := convertStmt(raw.Stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// convertStmt dispatches on the top-level statement kind.
func convertStmt(node *pg_query.Node) (sqlast.Stmt, error) {
	if node == nil {
		return nil, unsupported("empty statement")
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return convertSelectStmt(n.SelectStmt)
	case *pg_query.Node_InsertStmt:
		return convertInsertStmt(n.InsertStmt)
	case *pg_query.Node_UpdateStmt:
		return convertUpdateStmt(n.UpdateStmt)
	case *pg_query.Node_DeleteStmt:
		return convertDeleteStmt(n.DeleteStmt)
	default:
		return nil, unsupported("statement %T", node.Node)
	}
}

// stringValue extracts the text of a String node.
func stringValue(node *pg_query.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	if s, ok := node.Node.(*pg_query.Node_String_); ok {
		return s.String_.Sval, true
	}
	return "", false
}

// lastName returns the final element of a qualified name list such as
// pg_catalog.int4 or schema.func.
func lastName(names []*pg_query.Node) string {
	for i := len(names) - 1; i >= 0; i-- {
		if s, ok := stringValue(names[i]); ok {
			return s
		}
	}
	return ""
}
