package sqlrewrite

import (
	"tenantsql/internal/sqlast"
	"tenantsql/internal/tenant"
)

// ShouldBypass reports whether filtering of table is waived: the table is
// ignored, or the caller is an administrator and the table is not
// privileged.
func ShouldBypass(table string, tc *tenant.Context) bool {
	if tc.IgnoreTable(table) {
		return true
	}
	return tc.Administrator && !tc.Privileged(table)
}

// BuildTenantEquality builds tenant_column = 'tenant' for table. When
// filtering is bypassed both sides are '1', so the clause keeps its shape
// but matches every row.
func BuildTenantEquality(table *sqlast.Table, tc *tenant.Context) sqlast.Expr {
	return buildTenantEquality(table, tc, tc.QualifyUnaliased())
}

// buildTenantEquality qualifies the tenant column with the table alias.
// An unaliased table yields a bare column unless qualify is set, in which
// case the table name is used.
func buildTenantEquality(table *sqlast.Table, tc *tenant.Context, qualify bool) sqlast.Expr {
	if ShouldBypass(table.Name, tc) {
		return sqlast.Equals(sqlast.StringLit("1"), sqlast.StringLit("1"))
	}
	col := &sqlast.ColumnRef{Column: tc.TenantIDColumn()}
	if table.Alias != "" || qualify {
		col.Table = table.Qualifier()
	}
	return sqlast.Equals(col, tc.TenantIDLiteral())
}

// CombineWithExisting ANDs pred onto existing. A top-level OR is wrapped
// in parentheses first so that A OR B becomes (A OR B) AND pred.
func CombineWithExisting(existing, pred sqlast.Expr) sqlast.Expr {
	if existing == nil {
		return pred
	}
	if sqlast.IsOr(existing) {
		existing = &sqlast.ParenExpr{Expr: existing}
	}
	return sqlast.And(existing, pred)
}
