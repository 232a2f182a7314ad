package sqlrewrite

import (
	"fmt"
	"strings"

	"tenantsql/internal/sqlast"
	"tenantsql/internal/sqlparse"
)

// ExtractTableNames parses a SQL statement and returns the deduplicated list
// of base table names it references.
func ExtractTableNames(sql string) ([]string, error) {
	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		return nil, err
	}
	return sqlast.CollectTableNames(stmt), nil
}

// ClassifyStatement parses the SQL and returns the statement type.
// Multi-statement input is rejected to prevent piggy-backed SQL
// (e.g., "SELECT 1; DROP TABLE foo").
func ClassifyStatement(sql string) (sqlast.StmtType, error) {
	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		return sqlast.StmtTypeOther, err
	}
	return sqlast.Classify(stmt), nil
}

// ExtractTargetTable returns the table written by an INSERT, UPDATE or
// DELETE, or "" for SELECT.
func ExtractTargetTable(sql string) (string, error) {
	if strings.TrimSpace(sql) == "" {
		return "", nil
	}
	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		return "", fmt.Errorf("extract target table: %w", err)
	}
	return sqlast.TargetTable(stmt), nil
}
