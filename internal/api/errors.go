package api

import (
	"errors"
	"net/http"

	"tenantsql/internal/sqlrewrite"
)

// httpStatusFromRewriteError maps rewrite errors to HTTP status codes.
// Anything not recognised came from parsing the request SQL.
func httpStatusFromRewriteError(err error) int {
	var ambiguous *sqlrewrite.AmbiguousInsertError

	switch {
	case errors.Is(err, sqlrewrite.ErrNoTenant):
		return http.StatusUnauthorized
	case errors.As(err, &ambiguous):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
