package query

import "fmt"

// ErrorKind classifies a query error. Every kind is a user-input failure;
// the engine never surfaces internal faults through Error.
type ErrorKind int

const (
	// ErrMalformedQuery indicates a filter value that failed coercion.
	ErrMalformedQuery ErrorKind = iota
	// ErrMultipleOperators indicates more than one operator for a field.
	ErrMultipleOperators
	// ErrUnknownFilter indicates an operator name missing from the registry.
	ErrUnknownFilter
	// ErrMissingAlias indicates an aggregate entry without an alias.
	ErrMissingAlias
	// ErrInvalidElement indicates a field path that does not resolve.
	ErrInvalidElement
	// ErrUnknownSource indicates a cross-reference to an unregistered dataset.
	ErrUnknownSource
	// ErrInvalidProjection indicates a field-projection expression error.
	ErrInvalidProjection
)

// Error is a query failure attributable to the supplied parameters.
// Boundaries should render it as a bad request.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
