package tenant

import (
	"context"

	"tenantsql/internal/sqlast"
)

// Context is the tenant context of a single rewrite call. It is treated
// as immutable once built.
type Context struct {
	TenantID      string
	Administrator bool
	// Ignore disables rewriting for the whole call.
	Ignore bool

	policy Policy
}

// IgnoreTable reports whether table is exempt from filtering.
func (c *Context) IgnoreTable(table string) bool {
	return c.policy.IgnoredTables.Contains(table)
}

// Privileged reports whether table stays filtered for administrators.
func (c *Context) Privileged(table string) bool {
	return c.policy.PrivilegedTables.Contains(table)
}

// TenantIDColumn returns the discriminator column name.
func (c *Context) TenantIDColumn() string {
	return c.policy.column()
}

// TenantIDLiteral returns a fresh string literal holding the tenant id.
// Every call allocates so that no two tree positions share a node.
func (c *Context) TenantIDLiteral() *sqlast.Literal {
	return sqlast.StringLit(c.TenantID)
}

// EnhanceInsert reports whether the guarded INSERT rewrite is active.
func (c *Context) EnhanceInsert() bool {
	return c.policy.EnhanceInsert
}

// QualifyUnaliased reports whether an unaliased table's tenant column is
// qualified with the table name.
func (c *Context) QualifyUnaliased() bool {
	return c.policy.QualifyUnaliased
}

// Policy returns the policy the context was built from.
func (c *Context) Policy() Policy {
	return c.policy
}

type ctxKey int

const (
	tenantKey ctxKey = iota
	ignoreKey
)

// WithContext stores tc in ctx.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, tenantKey, tc)
}

// FromContext returns the tenant context stored in ctx. If ctx is inside a
// WithIgnore scope the returned copy has Ignore set.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(tenantKey).(*Context)
	if !ok || tc == nil {
		return nil, false
	}
	if IgnoreFromContext(ctx) && !tc.Ignore {
		cp := *tc
		cp.Ignore = true
		return &cp, true
	}
	return tc, true
}

// WithIgnore returns a context under which tenant rewriting is skipped.
// The scope ends with the derived context; the parent is unaffected.
func WithIgnore(ctx context.Context) context.Context {
	return context.WithValue(ctx, ignoreKey, true)
}

// IgnoreFromContext reports whether ctx is inside a WithIgnore scope.
func IgnoreFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(ignoreKey).(bool)
	return v
}
