package sqlast

// === Expression Nodes ===

// ColumnRef represents a column reference, optionally qualified with a
// table name or alias.
type ColumnRef struct {
	Table  string
	Column string
}

func (*ColumnRef) node()     {}
func (*ColumnRef) exprNode() {}

// Literal represents a literal value.
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (*Literal) node()     {}
func (*Literal) exprNode() {}

// LiteralKind is the type of a literal.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
	// LiteralBitString holds the prefix letter and digits, e.g. "b101".
	LiteralBitString
)

// StringLit builds a string literal.
func StringLit(v string) *Literal {
	return &Literal{Kind: LiteralString, Value: v}
}

// NumberLit builds a numeric literal from its SQL text.
func NumberLit(v string) *Literal {
	return &Literal{Kind: LiteralNumber, Value: v}
}

// ParamExpr is a positional bind parameter ($1, $2, ...).
type ParamExpr struct {
	Index int
}

func (*ParamExpr) node()     {}
func (*ParamExpr) exprNode() {}

// BinaryExpr represents left op right.
type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// BinaryOp is a binary operator.
type BinaryOp int

// Binary operators.
const (
	OpEq BinaryOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
)

var binaryOpNames = map[BinaryOp]string{
	OpEq:     "=",
	OpNe:     "<>",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpAnd:    "AND",
	OpOr:     "OR",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpConcat: "||",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return "?"
}

// LookupBinaryOp maps SQL operator text to a BinaryOp.
func LookupBinaryOp(s string) (BinaryOp, bool) {
	if s == "!=" {
		return OpNe, true
	}
	for op, name := range binaryOpNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// Equals builds left = right.
func Equals(left, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: OpEq, Right: right}
}

// And builds left AND right.
func And(left, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: OpAnd, Right: right}
}

// Or builds left OR right.
func Or(left, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: OpOr, Right: right}
}

// IsOr reports whether e is an OR expression at its top level.
func IsOr(e Expr) bool {
	b, ok := e.(*BinaryExpr)
	return ok && b.Op == OpOr
}

// UnaryExpr represents NOT x or -x.
type UnaryExpr struct {
	Op   UnaryOp
	Expr Expr
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// UnaryOp is a prefix operator.
type UnaryOp int

// Unary operators.
const (
	UnaryNot UnaryOp = iota
	UnaryMinus
)

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) node()     {}
func (*ParenExpr) exprNode() {}

// SubqueryExpr represents a scalar subquery used as an expression.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) node()     {}
func (*SubqueryExpr) exprNode() {}

// ExistsExpr represents [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) node()     {}
func (*ExistsExpr) exprNode() {}

// InExpr represents expr [NOT] IN (values) or expr [NOT] IN (subquery).
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

func (*InExpr) node()     {}
func (*InExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string
	Args     []Expr
	Star     bool // COUNT(*)
	Distinct bool
}

func (*FuncCall) node()     {}
func (*FuncCall) exprNode() {}

// IsNullExpr represents IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) node()     {}
func (*IsNullExpr) exprNode() {}

// BetweenExpr represents expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) node()     {}
func (*BetweenExpr) exprNode() {}

// LikeExpr represents expr [NOT] LIKE/ILIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	ILike   bool
	Pattern Expr
}

func (*LikeExpr) node()     {}
func (*LikeExpr) exprNode() {}

// CaseExpr represents a CASE expression. Operand is nil for a searched CASE.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) node()     {}
func (*CaseExpr) exprNode() {}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type).
type CastExpr struct {
	Expr     Expr
	TypeName string
}

func (*CastExpr) node()     {}
func (*CastExpr) exprNode() {}
