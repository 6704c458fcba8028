package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrConflict = errors.New("product conflict")
)

// ConflictError reports a code or name already held by another product.
type ConflictError struct {
	Field Field
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product %s %q is already taken", e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Message is the user-facing wording.
func (e *ConflictError) Message() string {
	return fmt.Sprintf("Product %s %q is already taken.", e.Field, e.Value)
}
