package sigil

import "errors"

// Sentinel errors for common auditor error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoBaseline indicates a stored baseline scan result was expected
	// but could not be read.
	ErrNoBaseline = errors.New("baseline result not found")
)
