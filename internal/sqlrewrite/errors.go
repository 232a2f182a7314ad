package sqlrewrite

import (
	"errors"
	"fmt"
)

// ErrNoTenant is returned when a statement must be filtered but no usable
// tenant context is available.
var ErrNoTenant = errors.New("no tenant context")

// AmbiguousInsertError reports an INSERT with a column list but neither a
// VALUES list nor a SELECT source, so the tenant value has nowhere to go.
type AmbiguousInsertError struct {
	Table string
}

func (e *AmbiguousInsertError) Error() string {
	return fmt.Sprintf("ambiguous INSERT into %q: column list without VALUES or SELECT source", e.Table)
}
