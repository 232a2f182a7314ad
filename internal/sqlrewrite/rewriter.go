package sqlrewrite

import (
	"strings"

	"tenantsql/internal/sqlast"
	"tenantsql/internal/tenant"
)

// statementRewriter mutates one statement tree in place. It is not safe
// for concurrent use; a new one is made per call.
type statementRewriter struct {
	tc *tenant.Context
	// scopes holds the CTE names visible at each WITH nesting level.
	scopes []map[string]bool
}

func newStatementRewriter(tc *tenant.Context) *statementRewriter {
	return &statementRewriter{tc: tc}
}

func (r *statementRewriter) rewrite(stmt sqlast.Stmt) error {
	switch s := stmt.(type) {
	case *sqlast.SelectStmt:
		r.selectStmt(s)
	case *sqlast.InsertStmt:
		return r.insert(s)
	case *sqlast.UpdateStmt:
		r.update(s)
	case *sqlast.DeleteStmt:
		r.delete(s)
	}
	return nil
}

// === SELECT ===

func (r *statementRewriter) selectStmt(sel *sqlast.SelectStmt) {
	if sel == nil {
		return
	}

	if len(sel.With) > 0 {
		scope := make(map[string]bool, len(sel.With))
		r.scopes = append(r.scopes, scope)
		defer func() { r.scopes = r.scopes[:len(r.scopes)-1] }()

		// Each CTE sees only the names declared before it.
		for _, cte := range sel.With {
			r.selectStmt(cte.Select)
			scope[strings.ToLower(cte.Name)] = true
		}
	}

	sqlast.PlainSelects(sel.Body, r.plainSelect)
}

func (r *statementRewriter) plainSelect(ps *sqlast.PlainSelect) {
	// Innermost filters first.
	sqlast.VisitSubqueries(ps.Where, r.selectStmt)

	// With more than one table in scope a bare tenant column is ambiguous.
	multi := len(ps.Joins) > 0

	switch from := ps.From.(type) {
	case *sqlast.Table:
		if r.filtered(from) {
			ps.Where = CombineWithExisting(ps.Where, r.predicate(from, multi))
		}
	case *sqlast.SubqueryTable:
		r.selectStmt(from.Select)
	}

	r.items(ps.Items)
	sqlast.VisitSubqueries(ps.Having, r.selectStmt)
	for _, e := range ps.GroupBy {
		sqlast.VisitSubqueries(e, r.selectStmt)
	}
	for _, o := range ps.OrderBy {
		sqlast.VisitSubqueries(o.Expr, r.selectStmt)
	}
	sqlast.VisitSubqueries(ps.Limit, r.selectStmt)
	sqlast.VisitSubqueries(ps.Offset, r.selectStmt)

	for _, join := range ps.Joins {
		r.join(ps, join)
	}
}

// items filters sub-selects in a projection or RETURNING list.
func (r *statementRewriter) items(items []sqlast.SelectItem) {
	for _, item := range items {
		sqlast.VisitSubqueries(item.Expr, r.selectStmt)
	}
}

func (r *statementRewriter) predicate(t *sqlast.Table, multi bool) sqlast.Expr {
	return buildTenantEquality(t, r.tc, multi || r.tc.QualifyUnaliased())
}

// join filters the right side of a join. The predicate goes into ON so
// outer joins keep their semantics; joins without an ON clause (comma,
// CROSS, USING) are filtered in WHERE instead.
func (r *statementRewriter) join(ps *sqlast.PlainSelect, join *sqlast.Join) {
	sqlast.VisitSubqueries(join.On, r.selectStmt)

	switch right := join.Right.(type) {
	case *sqlast.Table:
		if !r.filtered(right) {
			return
		}
		pred := r.predicate(right, true)
		if join.On != nil {
			join.On = CombineWithExisting(join.On, pred)
			return
		}
		ps.Where = CombineWithExisting(ps.Where, pred)
	case *sqlast.SubqueryTable:
		r.selectStmt(right.Select)
	}
}

// filtered reports whether a FROM-position table gets a predicate.
// Ignored tables and references to an in-scope CTE are skipped.
func (r *statementRewriter) filtered(t *sqlast.Table) bool {
	if t == nil || r.tc.IgnoreTable(t.Name) {
		return false
	}
	return !r.isCTE(t)
}

func (r *statementRewriter) isCTE(t *sqlast.Table) bool {
	if t.Schema != "" {
		return false
	}
	name := strings.ToLower(t.Name)
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return false
}

// === INSERT ===

// insert filters every read the statement makes before deciding whether
// the tenant column is added, so an ignored target cannot copy rows of
// other tenants.
func (r *statementRewriter) insert(s *sqlast.InsertStmt) error {
	r.selectStmt(s.Query)
	for _, row := range s.Values {
		for _, v := range row {
			sqlast.VisitSubqueries(v, r.selectStmt)
		}
	}
	r.items(s.Returning)

	if s.Table == nil || r.tc.IgnoreTable(s.Table.Name) {
		return nil
	}
	// Positional inserts have no column list to extend.
	if len(s.Columns) == 0 {
		return nil
	}
	if r.tc.EnhanceInsert() && s.HasColumn(r.tc.TenantIDColumn()) {
		return nil
	}
	return r.appendTenantValue(s)
}

// appendTenantValue adds the tenant column and one fresh literal per row.
// An INSERT ... SELECT gets the literal appended to every top-level
// projection.
func (r *statementRewriter) appendTenantValue(s *sqlast.InsertStmt) error {
	switch {
	case s.Query != nil:
		sqlast.PlainSelects(s.Query.Body, func(ps *sqlast.PlainSelect) {
			ps.Items = append(ps.Items, sqlast.SelectItem{Expr: r.tc.TenantIDLiteral()})
		})
	case len(s.Values) > 0:
		for i := range s.Values {
			s.Values[i] = append(s.Values[i], r.tc.TenantIDLiteral())
		}
	default:
		return &AmbiguousInsertError{Table: s.Table.Name}
	}
	s.Columns = append(s.Columns, r.tc.TenantIDColumn())
	return nil
}

// === UPDATE / DELETE ===

// update and delete skip bypassed targets outright rather than adding a
// tautology.
func (r *statementRewriter) update(s *sqlast.UpdateStmt) {
	if s.Table == nil || ShouldBypass(s.Table.Name, r.tc) {
		return
	}
	for _, set := range s.Sets {
		sqlast.VisitSubqueries(set.Value, r.selectStmt)
	}
	r.items(s.Returning)
	s.Where = r.dmlWhere(s.Table, s.From, s.Where)
}

func (r *statementRewriter) delete(s *sqlast.DeleteStmt) {
	if s.Table == nil || ShouldBypass(s.Table.Name, r.tc) {
		return
	}
	r.items(s.Returning)
	s.Where = r.dmlWhere(s.Table, s.Using, s.Where)
}

// dmlWhere filters the WHERE clause of an UPDATE or DELETE: nested
// selects first, then the target table, then any FROM/USING tables.
func (r *statementRewriter) dmlWhere(target *sqlast.Table, extra []sqlast.TableRef, where sqlast.Expr) sqlast.Expr {
	sqlast.VisitSubqueries(where, r.selectStmt)

	multi := len(extra) > 0
	where = CombineWithExisting(where, r.predicate(target, multi))
	for _, ref := range extra {
		switch t := ref.(type) {
		case *sqlast.Table:
			if r.filtered(t) {
				where = CombineWithExisting(where, r.predicate(t, true))
			}
		case *sqlast.SubqueryTable:
			r.selectStmt(t.Select)
		}
	}
	return where
}
