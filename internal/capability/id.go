package capability

import (
	"fmt"
	"strings"
)

// ID is a stable, explicit capability identifier.
//
// Two IDs are equal iff they denote the same capability contract; plain
// string comparison is the equality. IDs are declared alongside the
// contract they name, never derived from an implementation
// value, so swapping implementations can never change the key.
//
// The conventional form is "domain.name", e.g. "feature.haptics".
type ID string

// NewID builds an identifier in the conventional "domain.name" form.
func NewID(domain, name string) ID {
	return ID(domain + "." + name)
}

// String returns the identifier as a string.
func (id ID) String() string {
	return string(id)
}

// Validate checks that the identifier is usable as a registry key.
// Empty identifiers and identifiers containing whitespace are rejected.
func (id ID) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(string(id), " \t\n") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidID, string(id))
	}
	return nil
}
