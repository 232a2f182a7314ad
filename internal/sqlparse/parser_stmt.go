package sqlparse

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"tenantsql/internal/sqlast"
)

// === SELECT ===

func convertSelectStmt(sel *pg_query.SelectStmt) (*sqlast.SelectStmt, error) {
	if sel == nil {
		return nil, unsupported("empty SELECT")
	}
	if len(sel.ValuesLists) > 0 {
		return nil, unsupported("VALUES outside INSERT")
	}

	stmt := &sqlast.SelectStmt{}
	if sel.WithClause != nil {
		ctes, err := convertWithClause(sel.WithClause)
		if err != nil {
			return nil, err
		}
		stmt.With = ctes
	}

	body, err := convertSelectBody(sel)
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func convertWithClause(with *pg_query.WithClause) ([]*sqlast.CTE, error) {
	if with.Recursive {
		return nil, unsupported("WITH RECURSIVE")
	}
	ctes := make([]*sqlast.CTE, 0, len(with.Ctes))
	for _, node := range with.Ctes {
		cte := node.GetCommonTableExpr()
		if cte == nil {
			return nil, unsupported("CTE %T", node.Node)
		}
		inner := cte.Ctequery.GetSelectStmt()
		if inner == nil {
			return nil, unsupported("data-modifying CTE %q", cte.Ctename)
		}
		sel, err := convertSelectStmt(inner)
		if err != nil {
			return nil, err
		}
		ctes = append(ctes, &sqlast.CTE{Name: cte.Ctename, Select: sel})
	}
	return ctes, nil
}

// convertSelectBody converts a SELECT without its WITH clause. Set
// operations nest through Larg/Rarg.
func convertSelectBody(sel *pg_query.SelectStmt) (sqlast.SelectBody, error) {
	switch sel.Op {
	case pg_query.SetOperation_SETOP_UNION, pg_query.SetOperation_SETOP_INTERSECT, pg_query.SetOperation_SETOP_EXCEPT:
		if len(sel.SortClause) > 0 || sel.LimitCount != nil || sel.LimitOffset != nil {
			return nil, unsupported("ORDER BY/LIMIT on a set operation")
		}
		if sel.Larg.GetWithClause() != nil || sel.Rarg.GetWithClause() != nil {
			return nil, unsupported("WITH inside a set operation branch")
		}
		left, err := convertSelectBody(sel.Larg)
		if err != nil {
			return nil, err
		}
		right, err := convertSelectBody(sel.Rarg)
		if err != nil {
			return nil, err
		}
		op := sqlast.SetOpUnion
		switch sel.Op {
		case pg_query.SetOperation_SETOP_INTERSECT:
			op = sqlast.SetOpIntersect
		case pg_query.SetOperation_SETOP_EXCEPT:
			op = sqlast.SetOpExcept
		}
		return &sqlast.SetOperation{Op: op, All: sel.All, Left: left, Right: right}, nil
	}
	return convertPlainSelect(sel)
}

func convertPlainSelect(sel *pg_query.SelectStmt) (*sqlast.PlainSelect, error) {
	if sel.IntoClause != nil {
		return nil, unsupported("SELECT INTO")
	}
	if len(sel.LockingClause) > 0 {
		return nil, unsupported("FOR UPDATE/SHARE")
	}
	if len(sel.WindowClause) > 0 {
		return nil, unsupported("WINDOW clause")
	}

	ps := &sqlast.PlainSelect{}

	if len(sel.DistinctClause) > 0 {
		for _, d := range sel.DistinctClause {
			if d != nil && d.Node != nil {
				return nil, unsupported("DISTINCT ON")
			}
		}
		ps.Distinct = true
	}

	items, err := convertTargetList(sel.TargetList)
	if err != nil {
		return nil, err
	}
	ps.Items = items

	if err := convertFromClause(sel.FromClause, ps); err != nil {
		return nil, err
	}

	if ps.Where, err = convertExpr(sel.WhereClause); err != nil {
		return nil, err
	}
	if ps.GroupBy, err = convertExprList(sel.GroupClause); err != nil {
		return nil, err
	}
	if ps.Having, err = convertExpr(sel.HavingClause); err != nil {
		return nil, err
	}
	if ps.OrderBy, err = convertSortClause(sel.SortClause); err != nil {
		return nil, err
	}
	if ps.Limit, err = convertExpr(sel.LimitCount); err != nil {
		return nil, err
	}
	if ps.Offset, err = convertExpr(sel.LimitOffset); err != nil {
		return nil, err
	}
	return ps, nil
}

// convertTargetList converts SELECT-list / RETURNING ResTargets.
func convertTargetList(targets []*pg_query.Node) ([]sqlast.SelectItem, error) {
	items := make([]sqlast.SelectItem, 0, len(targets))
	for _, node := range targets {
		rt := node.GetResTarget()
		if rt == nil {
			return nil, unsupported("select item %T", node.Node)
		}
		if len(rt.Indirection) > 0 {
			return nil, unsupported("indirection in select item")
		}

		if cr := rt.Val.GetColumnRef(); cr != nil && isStarRef(cr) {
			item := sqlast.SelectItem{Star: true}
			if len(cr.Fields) > 1 {
				table, _ := stringValue(cr.Fields[len(cr.Fields)-2])
				item = sqlast.SelectItem{TableStar: table}
			}
			items = append(items, item)
			continue
		}

		expr, err := convertExpr(rt.Val)
		if err != nil {
			return nil, err
		}
		items = append(items, sqlast.SelectItem{Expr: expr, Alias: rt.Name})
	}
	return items, nil
}

func isStarRef(cr *pg_query.ColumnRef) bool {
	if len(cr.Fields) == 0 {
		return false
	}
	return cr.Fields[len(cr.Fields)-1].GetAStar() != nil
}

func convertSortClause(sorts []*pg_query.Node) ([]sqlast.OrderByItem, error) {
	if len(sorts) == 0 {
		return nil, nil
	}
	items := make([]sqlast.OrderByItem, 0, len(sorts))
	for _, node := range sorts {
		sb := node.GetSortBy()
		if sb == nil {
			return nil, unsupported("ORDER BY item %T", node.Node)
		}
		if sb.SortbyNulls != pg_query.SortByNulls_SORTBY_NULLS_DEFAULT && sb.SortbyNulls != pg_query.SortByNulls_SORT_BY_NULLS_UNDEFINED {
			return nil, unsupported("NULLS FIRST/LAST")
		}
		expr, err := convertExpr(sb.Node)
		if err != nil {
			return nil, err
		}
		items = append(items, sqlast.OrderByItem{
			Expr: expr,
			Desc: sb.SortbyDir == pg_query.SortByDir_SORTBY_DESC,
		})
	}
	return items, nil
}

// === INSERT ===

func convertInsertStmt(ins *pg_query.InsertStmt) (*sqlast.InsertStmt, error) {
	if ins.WithClause != nil {
		return nil, unsupported("WITH on INSERT")
	}
	if ins.OnConflictClause != nil {
		return nil, unsupported("ON CONFLICT")
	}

	stmt := &sqlast.InsertStmt{Table: convertRangeVar(ins.Relation)}

	for _, node := range ins.Cols {
		rt := node.GetResTarget()
		if rt == nil || len(rt.Indirection) > 0 {
			return nil, unsupported("insert column %T", node.Node)
		}
		stmt.Columns = append(stmt.Columns, rt.Name)
	}

	// A nil SelectStmt is INSERT ... DEFAULT VALUES.
	if src := ins.SelectStmt.GetSelectStmt(); src != nil {
		if len(src.ValuesLists) > 0 {
			rows, err := convertValuesLists(src.ValuesLists)
			if err != nil {
				return nil, err
			}
			stmt.Values = rows
		} else {
			query, err := convertSelectStmt(src)
			if err != nil {
				return nil, err
			}
			stmt.Query = query
		}
	}

	returning, err := convertTargetList(ins.ReturningList)
	if err != nil {
		return nil, err
	}
	if len(returning) > 0 {
		stmt.Returning = returning
	}
	return stmt, nil
}

func convertValuesLists(lists []*pg_query.Node) ([][]sqlast.Expr, error) {
	rows := make([][]sqlast.Expr, 0, len(lists))
	for _, node := range lists {
		list := node.GetList()
		if list == nil {
			return nil, unsupported("VALUES row %T", node.Node)
		}
		row, err := convertExprList(list.Items)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// === UPDATE ===

func convertUpdateStmt(upd *pg_query.UpdateStmt) (*sqlast.UpdateStmt, error) {
	if upd.WithClause != nil {
		return nil, unsupported("WITH on UPDATE")
	}

	stmt := &sqlast.UpdateStmt{Table: convertRangeVar(upd.Relation)}

	for _, node := range upd.TargetList {
		rt := node.GetResTarget()
		if rt == nil || len(rt.Indirection) > 0 {
			return nil, unsupported("SET target %T", node.Node)
		}
		if rt.Val.GetMultiAssignRef() != nil {
			return nil, unsupported("multi-column SET")
		}
		val, err := convertExpr(rt.Val)
		if err != nil {
			return nil, err
		}
		stmt.Sets = append(stmt.Sets, sqlast.SetClause{Column: rt.Name, Value: val})
	}

	from, err := convertTableRefList(upd.FromClause)
	if err != nil {
		return nil, err
	}
	stmt.From = from

	if stmt.Where, err = convertExpr(upd.WhereClause); err != nil {
		return nil, err
	}

	returning, err := convertTargetList(upd.ReturningList)
	if err != nil {
		return nil, err
	}
	if len(returning) > 0 {
		stmt.Returning = returning
	}
	return stmt, nil
}

// === DELETE ===

func convertDeleteStmt(del *pg_query.DeleteStmt) (*sqlast.DeleteStmt, error) {
	if del.WithClause != nil {
		return nil, unsupported("WITH on DELETE")
	}

	stmt := &sqlast.DeleteStmt{Table: convertRangeVar(del.Relation)}

	using, err := convertTableRefList(del.UsingClause)
	if err != nil {
		return nil, err
	}
	stmt.Using = using

	if stmt.Where, err = convertExpr(del.WhereClause); err != nil {
		return nil, err
	}

	returning, err := convertTargetList(del.ReturningList)
	if err != nil {
		return nil, err
	}
	if len(returning) > 0 {
		stmt.Returning = returning
	}
	return stmt, nil
}
