package sqlparse

import (
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"tenantsql/internal/sqlast"
)

// convertExpr converts an expression node. A nil node converts to a nil
// expression so optional clauses can be passed straight through.
func convertExpr(node *pg_query.Node) (sqlast.Expr, error) {
	if node == nil || node.Node == nil {
		return nil, nil
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_ColumnRef:
		return convertColumnRef(n.ColumnRef)
	case *pg_query.Node_AConst:
		return convertConst(n.AConst), nil
	case *pg_query.Node_ParamRef:
		return &sqlast.ParamExpr{Index: int(n.ParamRef.Number)}, nil
	case *pg_query.Node_AExpr:
		return convertAExpr(n.AExpr)
	case *pg_query.Node_BoolExpr:
		return convertBoolExpr(n.BoolExpr)
	case *pg_query.Node_NullTest:
		arg, err := convertOperand(n.NullTest.Arg)
		if err != nil {
			return nil, err
		}
		return &sqlast.IsNullExpr{
			Expr: arg,
			Not:  n.NullTest.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL,
		}, nil
	case *pg_query.Node_SubLink:
		return convertSubLink(n.SubLink)
	case *pg_query.Node_FuncCall:
		return convertFuncCall(n.FuncCall)
	case *pg_query.Node_CoalesceExpr:
		args, err := convertExprList(n.CoalesceExpr.Args)
		if err != nil {
			return nil, err
		}
		return &sqlast.FuncCall{Name: "COALESCE", Args: args}, nil
	case *pg_query.Node_TypeCast:
		arg, err := convertExpr(n.TypeCast.Arg)
		if err != nil {
			return nil, err
		}
		tn, err := typeName(n.TypeCast.TypeName)
		if err != nil {
			return nil, err
		}
		return &sqlast.CastExpr{Expr: arg, TypeName: tn}, nil
	case *pg_query.Node_CaseExpr:
		return convertCaseExpr(n.CaseExpr)
	default:
		return nil, unsupported("expression %T", node.Node)
	}
}

func convertExprList(nodes []*pg_query.Node) ([]sqlast.Expr, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	exprs := make([]sqlast.Expr, 0, len(nodes))
	for _, node := range nodes {
		e, err := convertExpr(node)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// convertOperand converts an operand of an operator and parenthesizes it
// when it is itself a binary expression. The PostgreSQL tree has no
// parenthesis nodes; grouping lives only in the tree shape.
func convertOperand(node *pg_query.Node) (sqlast.Expr, error) {
	e, err := convertExpr(node)
	if err != nil {
		return nil, err
	}
	if _, ok := e.(*sqlast.BinaryExpr); ok {
		return &sqlast.ParenExpr{Expr: e}, nil
	}
	return e, nil
}

func convertColumnRef(cr *pg_query.ColumnRef) (sqlast.Expr, error) {
	parts := make([]string, 0, len(cr.Fields))
	for _, f := range cr.Fields {
		s, ok := stringValue(f)
		if !ok {
			return nil, unsupported("column reference %T", f.Node)
		}
		parts = append(parts, s)
	}

	switch len(parts) {
	case 1:
		return &sqlast.ColumnRef{Column: parts[0]}, nil
	case 2:
		return &sqlast.ColumnRef{Table: parts[0], Column: parts[1]}, nil
	default:
		// schema.table.column keeps the table qualifier only.
		return &sqlast.ColumnRef{Table: parts[len(parts)-2], Column: parts[len(parts)-1]}, nil
	}
}

func convertConst(c *pg_query.A_Const) *sqlast.Literal {
	if c.Isnull {
		return &sqlast.Literal{Kind: sqlast.LiteralNull}
	}

	switch v := c.Val.(type) {
	case *pg_query.A_Const_Ival:
		return sqlast.NumberLit(strconv.FormatInt(int64(v.Ival.Ival), 10))
	case *pg_query.A_Const_Fval:
		return sqlast.NumberLit(v.Fval.Fval)
	case *pg_query.A_Const_Boolval:
		return &sqlast.Literal{Kind: sqlast.LiteralBool, Value: strconv.FormatBool(v.Boolval.Boolval)}
	case *pg_query.A_Const_Sval:
		return sqlast.StringLit(v.Sval.Sval)
	case *pg_query.A_Const_Bsval:
		return &sqlast.Literal{Kind: sqlast.LiteralBitString, Value: v.Bsval.Bsval}
	default:
		return &sqlast.Literal{Kind: sqlast.LiteralNull}
	}
}

func convertAExpr(ae *pg_query.A_Expr) (sqlast.Expr, error) {
	opName := lastName(ae.Name)

	switch ae.Kind {
	case pg_query.A_Expr_Kind_AEXPR_OP:
		if ae.Lexpr == nil {
			if opName != "-" {
				return nil, unsupported("prefix operator %q", opName)
			}
			operand, err := convertOperand(ae.Rexpr)
			if err != nil {
				return nil, err
			}
			return &sqlast.UnaryExpr{Op: sqlast.UnaryMinus, Expr: operand}, nil
		}
		op, ok := sqlast.LookupBinaryOp(opName)
		if !ok || op == sqlast.OpAnd || op == sqlast.OpOr {
			return nil, unsupported("operator %q", opName)
		}
		left, err := convertOperand(ae.Lexpr)
		if err != nil {
			return nil, err
		}
		right, err := convertOperand(ae.Rexpr)
		if err != nil {
			return nil, err
		}
		return &sqlast.BinaryExpr{Left: left, Op: op, Right: right}, nil

	case pg_query.A_Expr_Kind_AEXPR_IN:
		left, err := convertOperand(ae.Lexpr)
		if err != nil {
			return nil, err
		}
		list := ae.Rexpr.GetList()
		if list == nil {
			return nil, unsupported("IN operand %T", ae.Rexpr)
		}
		values, err := convertExprList(list.Items)
		if err != nil {
			return nil, err
		}
		return &sqlast.InExpr{Expr: left, Not: opName == "<>", Values: values}, nil

	case pg_query.A_Expr_Kind_AEXPR_LIKE, pg_query.A_Expr_Kind_AEXPR_ILIKE:
		left, err := convertOperand(ae.Lexpr)
		if err != nil {
			return nil, err
		}
		pattern, err := convertOperand(ae.Rexpr)
		if err != nil {
			return nil, err
		}
		return &sqlast.LikeExpr{
			Expr:    left,
			Not:     strings.HasPrefix(opName, "!"),
			ILike:   ae.Kind == pg_query.A_Expr_Kind_AEXPR_ILIKE,
			Pattern: pattern,
		}, nil

	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		left, err := convertOperand(ae.Lexpr)
		if err != nil {
			return nil, err
		}
		list := ae.Rexpr.GetList()
		if list == nil || len(list.Items) != 2 {
			return nil, unsupported("BETWEEN bounds")
		}
		low, err := convertOperand(list.Items[0])
		if err != nil {
			return nil, err
		}
		high, err := convertOperand(list.Items[1])
		if err != nil {
			return nil, err
		}
		return &sqlast.BetweenExpr{
			Expr: left,
			Not:  ae.Kind == pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN,
			Low:  low,
			High: high,
		}, nil

	default:
		return nil, unsupported("operator kind %s", ae.Kind)
	}
}

// convertBoolExpr folds n-ary AND/OR left-associatively. An OR operand of
// an AND is parenthesized so the formatted SQL keeps its meaning.
func convertBoolExpr(be *pg_query.BoolExpr) (sqlast.Expr, error) {
	if be.Boolop == pg_query.BoolExprType_NOT_EXPR {
		if len(be.Args) != 1 {
			return nil, unsupported("NOT with %d operands", len(be.Args))
		}
		arg, err := convertExpr(be.Args[0])
		if err != nil {
			return nil, err
		}
		// NOT EXISTS / NOT IN (SELECT ...) fold into the node itself.
		switch x := arg.(type) {
		case *sqlast.ExistsExpr:
			x.Not = !x.Not
			return x, nil
		case *sqlast.InExpr:
			x.Not = !x.Not
			return x, nil
		case *sqlast.BinaryExpr:
			arg = &sqlast.ParenExpr{Expr: x}
		}
		return &sqlast.UnaryExpr{Op: sqlast.UnaryNot, Expr: arg}, nil
	}

	var op sqlast.BinaryOp
	switch be.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		op = sqlast.OpAnd
	case pg_query.BoolExprType_OR_EXPR:
		op = sqlast.OpOr
	default:
		return nil, unsupported("boolean operator %s", be.Boolop)
	}

	var result sqlast.Expr
	for _, node := range be.Args {
		arg, err := convertExpr(node)
		if err != nil {
			return nil, err
		}
		if op == sqlast.OpAnd && sqlast.IsOr(arg) {
			arg = &sqlast.ParenExpr{Expr: arg}
		}
		if result == nil {
			result = arg
			continue
		}
		result = &sqlast.BinaryExpr{Left: result, Op: op, Right: arg}
	}
	if result == nil {
		return nil, unsupported("empty boolean expression")
	}
	return result, nil
}

func convertSubLink(sl *pg_query.SubLink) (sqlast.Expr, error) {
	inner := sl.Subselect.GetSelectStmt()
	if inner == nil {
		return nil, unsupported("sublink body %T", sl.Subselect)
	}
	sel, err := convertSelectStmt(inner)
	if err != nil {
		return nil, err
	}

	switch sl.SubLinkType {
	case pg_query.SubLinkType_EXISTS_SUBLINK:
		return &sqlast.ExistsExpr{Select: sel}, nil
	case pg_query.SubLinkType_EXPR_SUBLINK:
		return &sqlast.SubqueryExpr{Select: sel}, nil
	case pg_query.SubLinkType_ANY_SUBLINK:
		// x IN (SELECT ...) is ANY with the implicit = operator.
		if len(sl.OperName) > 0 && lastName(sl.OperName) != "=" {
			return nil, unsupported("%s ANY (subquery)", lastName(sl.OperName))
		}
		left, err := convertOperand(sl.Testexpr)
		if err != nil {
			return nil, err
		}
		return &sqlast.InExpr{Expr: left, Query: sel}, nil
	default:
		return nil, unsupported("subquery kind %s", sl.SubLinkType)
	}
}

func convertFuncCall(fc *pg_query.FuncCall) (sqlast.Expr, error) {
	if fc.Over != nil {
		return nil, unsupported("window function")
	}
	if fc.AggFilter != nil || len(fc.AggOrder) > 0 {
		return nil, unsupported("aggregate FILTER/ORDER BY")
	}

	args, err := convertExprList(fc.Args)
	if err != nil {
		return nil, err
	}
	return &sqlast.FuncCall{
		Name:     lastName(fc.Funcname),
		Args:     args,
		Star:     fc.AggStar,
		Distinct: fc.AggDistinct,
	}, nil
}

func convertCaseExpr(ce *pg_query.CaseExpr) (sqlast.Expr, error) {
	operand, err := convertExpr(ce.Arg)
	if err != nil {
		return nil, err
	}
	out := &sqlast.CaseExpr{Operand: operand}
	for _, node := range ce.Args {
		w := node.GetCaseWhen()
		if w == nil {
			return nil, unsupported("CASE arm %T", node.Node)
		}
		cond, err := convertExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		result, err := convertExpr(w.Result)
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, sqlast.WhenClause{Condition: cond, Result: result})
	}
	if out.Else, err = convertExpr(ce.Defresult); err != nil {
		return nil, err
	}
	return out, nil
}

// typeName renders a cast target with its modifiers and array bounds.
// Built-in types drop the pg_catalog prefix; other schemas are kept.
func typeName(tn *pg_query.TypeName) (string, error) {
	if tn == nil {
		return "", unsupported("cast without a type")
	}
	if tn.Setof || tn.PctType {
		return "", unsupported("type %q", lastName(tn.Names))
	}

	parts := make([]string, 0, len(tn.Names))
	for _, n := range tn.Names {
		s, ok := stringValue(n)
		if !ok {
			return "", unsupported("type name %T", n.Node)
		}
		parts = append(parts, s)
	}
	var b strings.Builder
	switch {
	case len(parts) == 2 && parts[0] == "pg_catalog":
		// Built-in names are written as the grammar spells them. The
		// internal "char" type needs its quotes to stay distinct from bpchar.
		if parts[1] == "char" {
			b.WriteString(`"char"`)
		} else {
			b.WriteString(parts[1])
		}
		if parts[1] == "interval" && len(tn.Typmods) > 0 {
			return "", unsupported("interval field qualifiers")
		}
	default:
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(sqlast.QuoteIdent(p))
		}
	}

	if len(tn.Typmods) > 0 {
		mods, err := convertExprList(tn.Typmods)
		if err != nil {
			return "", err
		}
		b.WriteByte('(')
		for i, m := range mods {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sqlast.FormatExpr(m))
		}
		b.WriteByte(')')
	}

	for _, bound := range tn.ArrayBounds {
		n := bound.GetInteger()
		if n == nil || n.Ival < 0 {
			b.WriteString("[]")
			continue
		}
		b.WriteString("[" + strconv.Itoa(int(n.Ival)) + "]")
	}
	return b.String(), nil
}
