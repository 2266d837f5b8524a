package features

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaLoad      = errors.New("schema load failed")
	ErrMalformedInput  = errors.New("malformed input")
	ErrTransformation  = errors.New("transformation failed")
	ErrUnknownCategory = errors.New("unknown category")
)

// SchemaLoadError means the reference dataset could not produce a column list.
// The service cannot serve predictions without one.
type SchemaLoadError struct {
	Path string
	Err  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load expected columns from %q: %v", e.Path, e.Err)
}

func (e *SchemaLoadError) Unwrap() []error { return []error{ErrSchemaLoad, e.Err} }

// MalformedInputError is a client-side failure: the record does not match
// either accepted shape, or one of its values is unusable.
type MalformedInputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Field == "" {
		return "malformed input: " + e.Reason
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

func (e *MalformedInputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedInput, e.Err}
	}
	return []error{ErrMalformedInput}
}

// TransformationError reports a produced row that does not line up with the
// schema. It points at a bug or data drift, never at bad client input.
type TransformationError struct {
	InputShape string
	Expected   int
	Produced   int
	Reason     string
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transform %s record: %s (expected %d columns, produced %d)",
		e.InputShape, e.Reason, e.Expected, e.Produced)
}

func (e *TransformationError) Unwrap() error { return ErrTransformation }

func malformed(field, format string, args ...any) *MalformedInputError {
	return &MalformedInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
