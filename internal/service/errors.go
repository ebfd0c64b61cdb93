package service

import "fmt"

// ValidationError reports malformed or missing required input on create/edit.
// Nothing is persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
