package cli

import (
	"context"

	"github.com/spf13/pflag"

	"tenantsql/internal/tenant"
)

// tenantFlags selects the tenant context a command acts under.
type tenantFlags struct {
	tenantID string
	admin    bool
	ignore   bool
}

func (f *tenantFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.tenantID, "tenant", "t", "", "Tenant id to filter by")
	fs.BoolVar(&f.admin, "admin", false, "Act as an administrator (bypasses non-privileged tables)")
	fs.BoolVar(&f.ignore, "ignore", false, "Skip tenant filtering entirely")
}

// context resolves the flags under policy. An administrator without an
// explicit tenant uses the policy's admin tenant id.
func (f *tenantFlags) context(policy tenant.Policy) *tenant.Context {
	id := f.tenantID
	if id == "" && f.admin {
		id = policy.AdminTenantID
	}
	tc := policy.NewContext(id, f.admin)
	tc.Ignore = f.ignore
	return tc
}

// apply stores the resolved tenant context in ctx.
func (f *tenantFlags) apply(ctx context.Context, policy tenant.Policy) context.Context {
	ctx = tenant.WithContext(ctx, f.context(policy))
	if f.ignore {
		ctx = tenant.WithIgnore(ctx)
	}
	return ctx
}
