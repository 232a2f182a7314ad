package sqlast

import (
	"strconv"
	"strings"
)

// formatExpr dispatches expression formatting by type.
func (f *formatter) formatExpr(e Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *Literal:
		f.formatLiteral(expr)
	case *ColumnRef:
		f.formatColumnRef(expr)
	case *ParamExpr:
		f.write("$")
		f.write(strconv.Itoa(expr.Index))
	case *BinaryExpr:
		f.formatBinaryExpr(expr)
	case *UnaryExpr:
		f.formatUnaryExpr(expr)
	case *ParenExpr:
		f.write("(")
		f.formatExpr(expr.Expr)
		f.write(")")
	case *SubqueryExpr:
		f.write("(")
		f.formatSelectStmt(expr.Select)
		f.write(")")
	case *ExistsExpr:
		if expr.Not {
			f.write("NOT ")
		}
		f.write("EXISTS (")
		f.formatSelectStmt(expr.Select)
		f.write(")")
	case *InExpr:
		f.formatInExpr(expr)
	case *FuncCall:
		f.formatFuncCall(expr)
	case *IsNullExpr:
		f.formatExpr(expr.Expr)
		if expr.Not {
			f.write(" IS NOT NULL")
		} else {
			f.write(" IS NULL")
		}
	case *BetweenExpr:
		f.formatBetweenExpr(expr)
	case *LikeExpr:
		f.formatLikeExpr(expr)
	case *CaseExpr:
		f.formatCaseExpr(expr)
	case *CastExpr:
		f.write("CAST(")
		f.formatExpr(expr.Expr)
		f.write(" AS ")
		f.write(expr.TypeName)
		f.write(")")
	}
}

func (f *formatter) formatLiteral(lit *Literal) {
	switch lit.Kind {
	case LiteralString:
		f.write("'")
		f.write(strings.ReplaceAll(lit.Value, "'", "''"))
		f.write("'")
	case LiteralBool:
		f.write(strings.ToUpper(lit.Value))
	case LiteralNull:
		f.write("NULL")
	case LiteralBitString:
		if lit.Value == "" {
			f.write("B''")
			return
		}
		f.write(strings.ToUpper(lit.Value[:1]))
		f.write("'")
		f.write(lit.Value[1:])
		f.write("'")
	default:
		f.write(lit.Value)
	}
}

func (f *formatter) formatColumnRef(col *ColumnRef) {
	if col.Table != "" {
		f.writeIdent(col.Table)
		f.write(".")
	}
	f.writeIdent(col.Column)
}

func (f *formatter) formatBinaryExpr(expr *BinaryExpr) {
	f.formatExpr(expr.Left)
	f.space()
	f.write(expr.Op.String())
	f.space()
	f.formatExpr(expr.Right)
}

func (f *formatter) formatUnaryExpr(expr *UnaryExpr) {
	switch expr.Op {
	case UnaryNot:
		f.write("NOT ")
	case UnaryMinus:
		f.write("-")
		// Two adjacent minus signs start a line comment.
		if startsWithMinus(expr.Expr) {
			f.write("(")
			f.formatExpr(expr.Expr)
			f.write(")")
			return
		}
	}
	f.formatExpr(expr.Expr)
}

func startsWithMinus(e Expr) bool {
	switch x := e.(type) {
	case *UnaryExpr:
		return x.Op == UnaryMinus
	case *Literal:
		return x.Kind == LiteralNumber && strings.HasPrefix(x.Value, "-")
	}
	return false
}

func (f *formatter) formatInExpr(in *InExpr) {
	f.formatExpr(in.Expr)
	if in.Not {
		f.write(" NOT")
	}
	f.write(" IN (")
	if in.Query != nil {
		f.formatSelectStmt(in.Query)
	} else {
		f.commaSep(len(in.Values), func(i int) {
			f.formatExpr(in.Values[i])
		})
	}
	f.write(")")
}

func (f *formatter) formatFuncCall(fn *FuncCall) {
	f.write(fn.Name)
	f.write("(")
	if fn.Star {
		f.write("*")
	} else {
		if fn.Distinct {
			f.write("DISTINCT ")
		}
		f.commaSep(len(fn.Args), func(i int) {
			f.formatExpr(fn.Args[i])
		})
	}
	f.write(")")
}

func (f *formatter) formatBetweenExpr(b *BetweenExpr) {
	f.formatExpr(b.Expr)
	if b.Not {
		f.write(" NOT")
	}
	f.write(" BETWEEN ")
	f.formatExpr(b.Low)
	f.write(" AND ")
	f.formatExpr(b.High)
}

func (f *formatter) formatLikeExpr(like *LikeExpr) {
	f.formatExpr(like.Expr)
	if like.Not {
		f.write(" NOT")
	}
	if like.ILike {
		f.write(" ILIKE ")
	} else {
		f.write(" LIKE ")
	}
	f.formatExpr(like.Pattern)
}

func (f *formatter) formatCaseExpr(c *CaseExpr) {
	f.write("CASE")
	if c.Operand != nil {
		f.space()
		f.formatExpr(c.Operand)
	}
	for _, w := range c.Whens {
		f.write(" WHEN ")
		f.formatExpr(w.Condition)
		f.write(" THEN ")
		f.formatExpr(w.Result)
	}
	if c.Else != nil {
		f.write(" ELSE ")
		f.formatExpr(c.Else)
	}
	f.write(" END")
}

func (f *formatter) formatOrderByItem(item OrderByItem) {
	f.formatExpr(item.Expr)
	if item.Desc {
		f.write(" DESC")
	}
}
