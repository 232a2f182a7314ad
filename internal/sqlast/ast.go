// Package sqlast is the statement and expression tree that the tenant
// rewriter mutates. Trees are produced by a parser collaborator
// (see internal/sqlparse), rewritten in place, and turned back into SQL
// text with Format.
//
// Every variant set is closed: the marker methods are unexported, so a
// type switch over Expr, Stmt, TableRef or SelectBody inside this module
// sees every possible case.
package sqlast

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// TableRef is a marker interface for FROM-item nodes.
type TableRef interface {
	Node
	tableRefNode()
}

// SelectBody is either a *PlainSelect or a *SetOperation.
type SelectBody interface {
	Node
	selectBody()
}
