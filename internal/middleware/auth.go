package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"tenantsql/internal/tenant"
)

type principalKey struct{}

// WithPrincipal stores the principal name in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the principal name from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// Authenticate validates the Bearer token on each request and stores the
// caller's tenant context, resolved from the token claims under policy.
// Requests without a valid token get 401.
func Authenticate(v JWTValidator, policy tenant.Policy, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || tokenStr == "" {
				writeUnauthorized(w, "unauthorized: provide a valid JWT Bearer token")
				return
			}

			claims, err := v.Validate(r.Context(), tokenStr)
			if err != nil {
				logger.Debug("token rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
				writeUnauthorized(w, "unauthorized: invalid token")
				return
			}

			tc := policy.FromClaims(tenant.ClaimsFromMap(claims.Raw))
			ctx := tenant.WithContext(r.Context(), tc)
			if claims.Subject != "" {
				ctx = WithPrincipal(ctx, claims.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    401,
		"message": msg,
	})
}
