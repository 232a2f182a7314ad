package sqlast

import "strings"

// === Statement Nodes ===

// SelectStmt represents a complete SELECT statement with optional CTEs.
type SelectStmt struct {
	With []*CTE
	Body SelectBody
}

func (*SelectStmt) node()     {}
func (*SelectStmt) stmtNode() {}

// CTE represents a Common Table Expression.
type CTE struct {
	Name   string
	Select *SelectStmt
}

// PlainSelect is a single SELECT ... FROM ... WHERE block.
type PlainSelect struct {
	Distinct bool
	Items    []SelectItem
	From     TableRef
	Joins    []*Join
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

func (*PlainSelect) node()       {}
func (*PlainSelect) selectBody() {}

// SetOperation combines two select bodies with UNION, INTERSECT or EXCEPT.
type SetOperation struct {
	Op    SetOpType
	All   bool
	Left  SelectBody
	Right SelectBody
}

func (*SetOperation) node()       {}
func (*SetOperation) selectBody() {}

// SetOpType is the kind of set operation.
type SetOpType string

// Set operation kinds.
const (
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr
	Alias     string
}

// Join represents one JOIN (or comma-separated FROM item) following the
// leading FROM item.
type Join struct {
	Type  JoinType
	Right TableRef
	On    Expr
	Using []string
}

// JoinType is the type of join.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// OrderByItem represents an item in an ORDER BY clause.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// === DML Statement Nodes ===

// InsertStmt represents an INSERT statement. At most one of Values and
// Query is set; a statement with a column list and neither is malformed.
type InsertStmt struct {
	Table     *Table
	Columns   []string
	Values    [][]Expr    // VALUES rows
	Query     *SelectStmt // INSERT ... SELECT
	Returning []SelectItem
}

func (*InsertStmt) node()     {}
func (*InsertStmt) stmtNode() {}

// HasColumn reports whether name is already in the insert column list,
// ignoring case.
func (s *InsertStmt) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// SetClause represents column = value in UPDATE.
type SetClause struct {
	Column string
	Value  Expr
}

// UpdateStmt represents an UPDATE statement.
type UpdateStmt struct {
	Table     *Table
	Sets      []SetClause
	From      []TableRef // UPDATE ... FROM
	Where     Expr
	Returning []SelectItem
}

func (*UpdateStmt) node()     {}
func (*UpdateStmt) stmtNode() {}

// DeleteStmt represents a DELETE statement.
type DeleteStmt struct {
	Table     *Table
	Using     []TableRef
	Where     Expr
	Returning []SelectItem
}

func (*DeleteStmt) node()     {}
func (*DeleteStmt) stmtNode() {}
