package agent

import (
	"errors"
	"fmt"
)

// ErrUnknownAgent indicates an agent code with no catalog definition. This
// is a configuration-time error: callers must not fall back to permissive
// defaults for agents the catalog does not know.
var ErrUnknownAgent = errors.New("unknown agent code")

// CatalogValidationError aggregates every problem in an agent catalog
// document so the whole document can be fixed in one pass.
type CatalogValidationError struct {
	Errors []string
}

// Error returns the error message.
func (e *CatalogValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("agent catalog: validation error: %s", e.Errors[0])
	}
	return fmt.Sprintf("agent catalog: %d validation errors: %v", len(e.Errors), e.Errors)
}
