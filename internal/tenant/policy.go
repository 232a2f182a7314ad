// Package tenant holds the tenant isolation policy and the per-call tenant
// context the SQL rewriter consumes.
package tenant

import (
	"sort"
	"strings"
)

// Defaults applied by DefaultPolicy.
const (
	DefaultColumn        = "tenant_id"
	DefaultAdminTenantID = "000000"
)

// DefaultPrivilegedTables are filtered even for administrators.
var DefaultPrivilegedTables = []string{"blade_top_menu", "blade_dict_biz"}

// TableSet is a case-insensitive set of table names.
type TableSet map[string]struct{}

// NewTableSet builds a set from names, skipping blanks.
func NewTableSet(names ...string) TableSet {
	s := make(TableSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name into the set.
func (s TableSet) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s[strings.ToLower(name)] = struct{}{}
}

// Contains reports whether name is in the set. A nil set is empty.
func (s TableSet) Contains(name string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[strings.ToLower(name)]
	return ok
}

// Names returns the members in sorted order.
func (s TableSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Policy is the process-wide isolation configuration. It is built once at
// startup and must not be mutated afterwards.
type Policy struct {
	// Column is the tenant discriminator column.
	Column string
	// IgnoredTables are never filtered.
	IgnoredTables TableSet
	// PrivilegedTables stay filtered for administrators.
	PrivilegedTables TableSet
	// EnhanceInsert enables the guarded INSERT rewrite. When false the
	// legacy path appends the tenant column unconditionally.
	EnhanceInsert bool
	// AdminTenantID is used when a principal carries no tenant id.
	AdminTenantID string
	// QualifyUnaliased qualifies the tenant column with the table name
	// when the table has no alias.
	QualifyUnaliased bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Column:           DefaultColumn,
		IgnoredTables:    NewTableSet(),
		PrivilegedTables: NewTableSet(DefaultPrivilegedTables...),
		EnhanceInsert:    true,
		AdminTenantID:    DefaultAdminTenantID,
	}
}

// NewContext builds the per-call context for a principal.
func (p Policy) NewContext(tenantID string, admin bool) *Context {
	return &Context{
		TenantID:      tenantID,
		Administrator: admin,
		policy:        p,
	}
}

func (p Policy) column() string {
	if p.Column == "" {
		return DefaultColumn
	}
	return p.Column
}
