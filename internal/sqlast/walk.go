package sqlast

// === Statement Classification ===

// StmtType represents the kind of SQL statement.
type StmtType int

// StmtTypeSelect and friends classify statement types.
const (
	StmtTypeSelect StmtType = iota
	StmtTypeInsert
	StmtTypeUpdate
	StmtTypeDelete
	StmtTypeOther
)

func (t StmtType) String() string {
	switch t {
	case StmtTypeSelect:
		return "SELECT"
	case StmtTypeInsert:
		return "INSERT"
	case StmtTypeUpdate:
		return "UPDATE"
	case StmtTypeDelete:
		return "DELETE"
	default:
		return "OTHER"
	}
}

// Classify returns the statement type for a parsed statement.
func Classify(stmt Stmt) StmtType {
	switch stmt.(type) {
	case *SelectStmt:
		return StmtTypeSelect
	case *InsertStmt:
		return StmtTypeInsert
	case *UpdateStmt:
		return StmtTypeUpdate
	case *DeleteStmt:
		return StmtTypeDelete
	default:
		return StmtTypeOther
	}
}

// TargetTable returns the table written by an INSERT, UPDATE or DELETE,
// or "" for anything else.
func TargetTable(stmt Stmt) string {
	switch s := stmt.(type) {
	case *InsertStmt:
		if s.Table != nil {
			return s.Table.Name
		}
	case *UpdateStmt:
		if s.Table != nil {
			return s.Table.Name
		}
	case *DeleteStmt:
		if s.Table != nil {
			return s.Table.Name
		}
	}
	return ""
}

// === Sub-select discovery ===

// VisitSubqueries calls fn for every SELECT nested directly inside e:
// scalar subqueries, EXISTS, IN (SELECT ...). It does not descend into the
// selects it reports; the caller decides whether to recurse.
func VisitSubqueries(e Expr, fn func(*SelectStmt)) {
	if e == nil {
		return
	}

	switch x := e.(type) {
	case *SubqueryExpr:
		if x.Select != nil {
			fn(x.Select)
		}
	case *ExistsExpr:
		if x.Select != nil {
			fn(x.Select)
		}
	case *InExpr:
		VisitSubqueries(x.Expr, fn)
		if x.Query != nil {
			fn(x.Query)
		}
		for _, v := range x.Values {
			VisitSubqueries(v, fn)
		}
	case *BinaryExpr:
		VisitSubqueries(x.Left, fn)
		VisitSubqueries(x.Right, fn)
	case *UnaryExpr:
		VisitSubqueries(x.Expr, fn)
	case *ParenExpr:
		VisitSubqueries(x.Expr, fn)
	case *FuncCall:
		for _, arg := range x.Args {
			VisitSubqueries(arg, fn)
		}
	case *IsNullExpr:
		VisitSubqueries(x.Expr, fn)
	case *BetweenExpr:
		VisitSubqueries(x.Expr, fn)
		VisitSubqueries(x.Low, fn)
		VisitSubqueries(x.High, fn)
	case *LikeExpr:
		VisitSubqueries(x.Expr, fn)
		VisitSubqueries(x.Pattern, fn)
	case *CaseExpr:
		VisitSubqueries(x.Operand, fn)
		for _, w := range x.Whens {
			VisitSubqueries(w.Condition, fn)
			VisitSubqueries(w.Result, fn)
		}
		VisitSubqueries(x.Else, fn)
	case *CastExpr:
		VisitSubqueries(x.Expr, fn)
	case *ColumnRef, *Literal, *ParamExpr:
		// leaves
	}
}

// PlainSelects calls fn for every PlainSelect making up body, walking
// both sides of set operations.
func PlainSelects(body SelectBody, fn func(*PlainSelect)) {
	switch b := body.(type) {
	case *PlainSelect:
		if b != nil {
			fn(b)
		}
	case *SetOperation:
		PlainSelects(b.Left, fn)
		PlainSelects(b.Right, fn)
	}
}

// === Table Name Collection ===

// CollectTableNames returns a deduplicated list of base table names
// referenced anywhere in the statement, in order of first appearance.
func CollectTableNames(stmt Stmt) []string {
	c := &tableCollector{seen: make(map[string]bool)}

	switch s := stmt.(type) {
	case *SelectStmt:
		c.selectStmt(s)
	case *InsertStmt:
		c.table(s.Table)
		for _, row := range s.Values {
			for _, v := range row {
				c.expr(v)
			}
		}
		c.selectStmt(s.Query)
		c.items(s.Returning)
	case *UpdateStmt:
		c.table(s.Table)
		for _, ref := range s.From {
			c.tableRef(ref)
		}
		for _, set := range s.Sets {
			c.expr(set.Value)
		}
		c.expr(s.Where)
		c.items(s.Returning)
	case *DeleteStmt:
		c.table(s.Table)
		for _, ref := range s.Using {
			c.tableRef(ref)
		}
		c.expr(s.Where)
		c.items(s.Returning)
	}

	return c.tables
}

type tableCollector struct {
	seen   map[string]bool
	tables []string
}

func (c *tableCollector) selectStmt(sel *SelectStmt) {
	if sel == nil {
		return
	}
	for _, cte := range sel.With {
		c.selectStmt(cte.Select)
	}
	PlainSelects(sel.Body, func(ps *PlainSelect) {
		c.tableRef(ps.From)
		for _, join := range ps.Joins {
			c.tableRef(join.Right)
			c.expr(join.On)
		}
		c.items(ps.Items)
		c.expr(ps.Where)
		for _, e := range ps.GroupBy {
			c.expr(e)
		}
		c.expr(ps.Having)
		for _, o := range ps.OrderBy {
			c.expr(o.Expr)
		}
		c.expr(ps.Limit)
		c.expr(ps.Offset)
	})
}

func (c *tableCollector) items(items []SelectItem) {
	for _, item := range items {
		c.expr(item.Expr)
	}
}

func (c *tableCollector) tableRef(ref TableRef) {
	switch t := ref.(type) {
	case *Table:
		c.table(t)
	case *SubqueryTable:
		c.selectStmt(t.Select)
	}
}

func (c *tableCollector) table(t *Table) {
	if t == nil || t.Name == "" || c.seen[t.Name] {
		return
	}
	c.seen[t.Name] = true
	c.tables = append(c.tables, t.Name)
}

func (c *tableCollector) expr(e Expr) {
	VisitSubqueries(e, c.selectStmt)
}
