package manifest

import (
	"fmt"
)

// MalformedInputError is returned when one of the three inputs is not valid
// JSON or is not an object at the top level.
type MalformedInputError struct {
	// Input is one of InputBase, InputOurs or InputTheirs.
	Input string
	Err   error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s manifest: %s", e.Input, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// UnsupportedFieldShapeError is returned when a dependency field exists but is
// not an object mapping names to version strings.
type UnsupportedFieldShapeError struct {
	Input  string
	Field  string
	Reason string
}

func (e *UnsupportedFieldShapeError) Error() string {
	return fmt.Sprintf("unsupported shape for %q in %s manifest: %s", e.Field, e.Input, e.Reason)
}
