package sqlast

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Format formats a statement AST back to a SQL string.
// The output is flat (no pretty-printing); identifiers are quoted only
// when they would not survive unquoted.
func Format(stmt Stmt) string {
	f := &formatter{}
	f.formatStmt(stmt)
	return strings.TrimSpace(f.buf.String())
}

// FormatExpr formats an expression AST back to a SQL string.
func FormatExpr(expr Expr) string {
	f := &formatter{}
	f.formatExpr(expr)
	return strings.TrimSpace(f.buf.String())
}

// formatter is a simple SQL string builder. No indentation or pretty-printing.
type formatter struct {
	buf strings.Builder
}

func (f *formatter) write(s string) {
	f.buf.WriteString(s)
}

func (f *formatter) space() {
	f.buf.WriteByte(' ')
}

// isKeyword reports whether s is a PostgreSQL keyword that cannot stand
// as a bare identifier everywhere. Unreserved keywords are safe unquoted.
func isKeyword(s string) bool {
	res, err := pg_query.Scan(s)
	if err != nil || len(res.GetTokens()) != 1 {
		return true
	}
	switch res.GetTokens()[0].GetKeywordKind() {
	case pg_query.KeywordKind_NO_KEYWORD, pg_query.KeywordKind_UNRESERVED_KEYWORD:
		return false
	default:
		return true
	}
}

// QuoteIdent quotes a SQL identifier if it contains characters outside
// [a-z0-9_], starts with a digit, or is a keyword. Internal double
// quotes are escaped by doubling.
func QuoteIdent(s string) string {
	if needsQuoting(s) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	if s[0] >= '0' && s[0] <= '9' {
		return true
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return true
		}
	}
	return isKeyword(s)
}

// writeIdent writes an identifier, quoting it when required.
func (f *formatter) writeIdent(s string) {
	f.write(QuoteIdent(s))
}

// commaSep writes items separated by ", ".
func (f *formatter) commaSep(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			f.write(", ")
		}
		fn(i)
	}
}
