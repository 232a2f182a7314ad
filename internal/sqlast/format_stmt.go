package sqlast

// formatStmt dispatches statement formatting by type.
func (f *formatter) formatStmt(stmt Stmt) {
	if stmt == nil {
		return
	}

	switch s := stmt.(type) {
	case *SelectStmt:
		f.formatSelectStmt(s)
	case *InsertStmt:
		f.formatInsertStmt(s)
	case *UpdateStmt:
		f.formatUpdateStmt(s)
	case *DeleteStmt:
		f.formatDeleteStmt(s)
	}
}

// === SELECT ===

func (f *formatter) formatSelectStmt(stmt *SelectStmt) {
	if stmt == nil {
		return
	}
	if len(stmt.With) > 0 {
		f.write("WITH ")
		f.commaSep(len(stmt.With), func(i int) {
			cte := stmt.With[i]
			f.writeIdent(cte.Name)
			f.write(" AS (")
			f.formatSelectStmt(cte.Select)
			f.write(")")
		})
		f.space()
	}
	f.formatSelectBody(stmt.Body)
}

func (f *formatter) formatSelectBody(body SelectBody) {
	switch b := body.(type) {
	case *PlainSelect:
		f.formatPlainSelect(b)
	case *SetOperation:
		f.formatSetOperand(b.Left, needsGrouping(b, b.Left, false))
		f.space()
		f.write(string(b.Op))
		if b.All {
			f.write(" ALL")
		}
		f.space()
		f.formatSetOperand(b.Right, needsGrouping(b, b.Right, true))
	}
}

func (f *formatter) formatSetOperand(body SelectBody, group bool) {
	if !group {
		f.formatSelectBody(body)
		return
	}
	f.write("(")
	f.formatSelectBody(body)
	f.write(")")
}

// needsGrouping reports whether an operand of op must be parenthesized to
// keep the tree shape. Set operations are left-associative and INTERSECT
// binds tighter than UNION and EXCEPT. A branch with its own ORDER BY or
// LIMIT is always grouped so the clause does not apply to the whole.
func needsGrouping(op *SetOperation, operand SelectBody, right bool) bool {
	switch x := operand.(type) {
	case *PlainSelect:
		return x != nil && (len(x.OrderBy) > 0 || x.Limit != nil || x.Offset != nil)
	case *SetOperation:
		if right {
			return true
		}
		return op.Op == SetOpIntersect && x.Op != SetOpIntersect
	}
	return false
}

func (f *formatter) formatPlainSelect(ps *PlainSelect) {
	if ps == nil {
		return
	}

	f.write("SELECT ")
	if ps.Distinct {
		f.write("DISTINCT ")
	}

	f.commaSep(len(ps.Items), func(i int) {
		f.formatSelectItem(ps.Items[i])
	})

	if ps.From != nil {
		f.write(" FROM ")
		f.formatTableRef(ps.From)
		for _, join := range ps.Joins {
			f.formatJoin(join)
		}
	}

	if ps.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(ps.Where)
	}

	if len(ps.GroupBy) > 0 {
		f.write(" GROUP BY ")
		f.commaSep(len(ps.GroupBy), func(i int) {
			f.formatExpr(ps.GroupBy[i])
		})
	}

	if ps.Having != nil {
		f.write(" HAVING ")
		f.formatExpr(ps.Having)
	}

	if len(ps.OrderBy) > 0 {
		f.write(" ORDER BY ")
		f.commaSep(len(ps.OrderBy), func(i int) {
			f.formatOrderByItem(ps.OrderBy[i])
		})
	}

	if ps.Limit != nil {
		f.write(" LIMIT ")
		f.formatExpr(ps.Limit)
	}
	if ps.Offset != nil {
		f.write(" OFFSET ")
		f.formatExpr(ps.Offset)
	}
}

func (f *formatter) formatSelectItem(item SelectItem) {
	if item.Star {
		f.write("*")
		return
	}
	if item.TableStar != "" {
		f.writeIdent(item.TableStar)
		f.write(".*")
		return
	}
	f.formatExpr(item.Expr)
	if item.Alias != "" {
		f.write(" AS ")
		f.writeIdent(item.Alias)
	}
}

func (f *formatter) formatTableRef(ref TableRef) {
	switch t := ref.(type) {
	case *Table:
		f.formatTable(t)
	case *SubqueryTable:
		if t.Lateral {
			f.write("LATERAL ")
		}
		f.write("(")
		f.formatSelectStmt(t.Select)
		f.write(")")
		if t.Alias != "" {
			f.write(" ")
			f.writeIdent(t.Alias)
		}
	}
}

func (f *formatter) formatTable(t *Table) {
	if t == nil {
		return
	}
	if t.Schema != "" {
		f.writeIdent(t.Schema)
		f.write(".")
	}
	f.writeIdent(t.Name)
	if t.Alias != "" {
		f.write(" ")
		f.writeIdent(t.Alias)
	}
}

func (f *formatter) formatJoin(join *Join) {
	if join == nil {
		return
	}

	if join.Type == JoinComma {
		f.write(", ")
		f.formatTableRef(join.Right)
		return
	}

	f.space()
	switch join.Type {
	case JoinInner:
		f.write("JOIN ")
	default:
		f.write(string(join.Type))
		f.write(" JOIN ")
	}

	f.formatTableRef(join.Right)

	if join.On != nil {
		f.write(" ON ")
		f.formatExpr(join.On)
	}

	if len(join.Using) > 0 {
		f.write(" USING (")
		f.commaSep(len(join.Using), func(i int) {
			f.writeIdent(join.Using[i])
		})
		f.write(")")
	}
}

// === INSERT ===

func (f *formatter) formatInsertStmt(stmt *InsertStmt) {
	f.write("INSERT INTO ")
	f.formatTable(stmt.Table)

	if len(stmt.Columns) > 0 {
		f.write(" (")
		f.commaSep(len(stmt.Columns), func(i int) {
			f.writeIdent(stmt.Columns[i])
		})
		f.write(")")
	}

	if stmt.Query != nil {
		f.space()
		f.formatSelectStmt(stmt.Query)
	} else if len(stmt.Values) > 0 {
		f.write(" VALUES ")
		f.commaSep(len(stmt.Values), func(i int) {
			row := stmt.Values[i]
			f.write("(")
			f.commaSep(len(row), func(j int) {
				f.formatExpr(row[j])
			})
			f.write(")")
		})
	} else {
		f.write(" DEFAULT VALUES")
	}

	f.formatReturning(stmt.Returning)
}

// === UPDATE ===

func (f *formatter) formatUpdateStmt(stmt *UpdateStmt) {
	f.write("UPDATE ")
	f.formatTable(stmt.Table)
	f.write(" SET ")
	f.commaSep(len(stmt.Sets), func(i int) {
		f.writeIdent(stmt.Sets[i].Column)
		f.write(" = ")
		f.formatExpr(stmt.Sets[i].Value)
	})

	if len(stmt.From) > 0 {
		f.write(" FROM ")
		f.commaSep(len(stmt.From), func(i int) {
			f.formatTableRef(stmt.From[i])
		})
	}

	if stmt.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(stmt.Where)
	}

	f.formatReturning(stmt.Returning)
}

// === DELETE ===

func (f *formatter) formatDeleteStmt(stmt *DeleteStmt) {
	f.write("DELETE FROM ")
	f.formatTable(stmt.Table)

	if len(stmt.Using) > 0 {
		f.write(" USING ")
		f.commaSep(len(stmt.Using), func(i int) {
			f.formatTableRef(stmt.Using[i])
		})
	}

	if stmt.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(stmt.Where)
	}

	f.formatReturning(stmt.Returning)
}

func (f *formatter) formatReturning(items []SelectItem) {
	if len(items) == 0 {
		return
	}
	f.write(" RETURNING ")
	f.commaSep(len(items), func(i int) {
		f.formatSelectItem(items[i])
	})
}
