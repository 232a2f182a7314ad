package tenant

import (
	"fmt"
	"strings"
)

// Claim names carried by access tokens.
const (
	ClaimTenantID = "tenant_id"
	ClaimRoleName = "role_name"
	ClaimUserID   = "user_id"
	ClaimAccount  = "account"
)

// RoleAdministrator is the role that grants cross-tenant reads.
const RoleAdministrator = "administrator"

// Claims is the tenant-relevant subset of an authenticated principal.
type Claims struct {
	TenantID string
	UserID   string
	Account  string
	Roles    []string
}

// ClaimsFromMap extracts Claims from decoded token claims. role_name may be
// a comma-separated string or a list.
func ClaimsFromMap(m map[string]any) Claims {
	c := Claims{
		TenantID: claimString(m[ClaimTenantID]),
		UserID:   claimString(m[ClaimUserID]),
		Account:  claimString(m[ClaimAccount]),
	}

	switch v := m[ClaimRoleName].(type) {
	case string:
		c.Roles = splitRoles(v)
	case []any:
		for _, r := range v {
			c.Roles = append(c.Roles, splitRoles(claimString(r))...)
		}
	case []string:
		for _, r := range v {
			c.Roles = append(c.Roles, splitRoles(r)...)
		}
	}
	return c
}

// IsAdministrator reports whether the administrator role is present.
func (c Claims) IsAdministrator() bool {
	for _, r := range c.Roles {
		if strings.EqualFold(r, RoleAdministrator) {
			return true
		}
	}
	return false
}

// FromClaims resolves the tenant context of an authenticated principal.
// A principal without a tenant id is placed in the admin tenant.
func (p Policy) FromClaims(c Claims) *Context {
	tenantID := c.TenantID
	if tenantID == "" {
		tenantID = p.AdminTenantID
	}
	return p.NewContext(tenantID, c.IsAdministrator())
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// claimString renders a scalar claim. JSON numbers decode as float64, so
// integral values are printed without a fraction.
func claimString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
