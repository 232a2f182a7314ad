package sqlparse

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"tenantsql/internal/sqlast"
)

// convertFromClause flattens the FROM list into the leading FROM item
// plus an ordered join list. Left-deep JoinExpr trees become successive
// joins; additional comma-separated items become JoinComma joins.
func convertFromClause(from []*pg_query.Node, ps *sqlast.PlainSelect) error {
	for i, node := range from {
		if i == 0 {
			if err := flattenJoins(node, ps); err != nil {
				return err
			}
			continue
		}
		if je := node.GetJoinExpr(); je != nil {
			return unsupported("join tree after a comma")
		}
		ref, err := convertTableRef(node)
		if err != nil {
			return err
		}
		ps.Joins = append(ps.Joins, &sqlast.Join{Type: sqlast.JoinComma, Right: ref})
	}
	return nil
}

func flattenJoins(node *pg_query.Node, ps *sqlast.PlainSelect) error {
	je := node.GetJoinExpr()
	if je == nil {
		ref, err := convertTableRef(node)
		if err != nil {
			return err
		}
		ps.From = ref
		return nil
	}

	if je.IsNatural {
		return unsupported("NATURAL JOIN")
	}
	if je.Alias != nil {
		return unsupported("aliased join")
	}
	if err := flattenJoins(je.Larg, ps); err != nil {
		return err
	}
	if je.Rarg.GetJoinExpr() != nil {
		return unsupported("right-nested join")
	}

	right, err := convertTableRef(je.Rarg)
	if err != nil {
		return err
	}
	join := &sqlast.Join{Right: right}

	switch je.Jointype {
	case pg_query.JoinType_JOIN_INNER:
		join.Type = sqlast.JoinInner
		if je.Quals == nil && len(je.UsingClause) == 0 {
			join.Type = sqlast.JoinCross
		}
	case pg_query.JoinType_JOIN_LEFT:
		join.Type = sqlast.JoinLeft
	case pg_query.JoinType_JOIN_RIGHT:
		join.Type = sqlast.JoinRight
	case pg_query.JoinType_JOIN_FULL:
		join.Type = sqlast.JoinFull
	default:
		return unsupported("join type %s", je.Jointype)
	}

	if join.On, err = convertExpr(je.Quals); err != nil {
		return err
	}
	for _, u := range je.UsingClause {
		name, ok := stringValue(u)
		if !ok {
			return unsupported("USING item %T", u.Node)
		}
		join.Using = append(join.Using, name)
	}

	ps.Joins = append(ps.Joins, join)
	return nil
}

// convertTableRefList converts UPDATE ... FROM / DELETE ... USING lists,
// which may not contain explicit joins.
func convertTableRefList(nodes []*pg_query.Node) ([]sqlast.TableRef, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	refs := make([]sqlast.TableRef, 0, len(nodes))
	for _, node := range nodes {
		ref, err := convertTableRef(node)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func convertTableRef(node *pg_query.Node) (sqlast.TableRef, error) {
	if node == nil {
		return nil, unsupported("empty FROM item")
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		return convertRangeVar(n.RangeVar), nil
	case *pg_query.Node_RangeSubselect:
		inner := n.RangeSubselect.Subquery.GetSelectStmt()
		if inner == nil {
			return nil, unsupported("derived table %T", n.RangeSubselect.Subquery)
		}
		sel, err := convertSelectStmt(inner)
		if err != nil {
			return nil, err
		}
		ref := &sqlast.SubqueryTable{Select: sel, Lateral: n.RangeSubselect.Lateral}
		if n.RangeSubselect.Alias != nil {
			ref.Alias = n.RangeSubselect.Alias.Aliasname
		}
		return ref, nil
	default:
		return nil, unsupported("FROM item %T", node.Node)
	}
}

func convertRangeVar(rv *pg_query.RangeVar) *sqlast.Table {
	if rv == nil {
		return nil
	}
	t := &sqlast.Table{Schema: rv.Schemaname, Name: rv.Relname}
	if rv.Alias != nil {
		t.Alias = rv.Alias.Aliasname
	}
	return t
}
