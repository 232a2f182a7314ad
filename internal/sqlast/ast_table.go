package sqlast

// === Table Reference Nodes ===

// Table is a base table reference (optionally schema-qualified).
type Table struct {
	Schema string
	Name   string
	Alias  string
}

func (*Table) node()         {}
func (*Table) tableRefNode() {}

// Qualifier returns the name that columns of this table should be
// qualified with: the alias when present, otherwise the table name.
func (t *Table) Qualifier() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// SubqueryTable is a derived table: (SELECT ...) alias.
type SubqueryTable struct {
	Select  *SelectStmt
	Alias   string
	Lateral bool
}

func (*SubqueryTable) node()         {}
func (*SubqueryTable) tableRefNode() {}
