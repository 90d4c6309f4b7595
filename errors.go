package serde

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnexpectedEnd is returned when the input is exhausted in the
// middle of a value. Codecs wrap it with position information.
var ErrUnexpectedEnd = errors.New("unexpected end of input")

// IsUnexpectedEnd reports whether err is ErrUnexpectedEnd, unwrapping
// any pkg/errors context around it.
func IsUnexpectedEnd(err error) bool {
	return errors.Cause(err) == ErrUnexpectedEnd
}

// SyntaxError is a malformed token or delimiter at a position.
type SyntaxError struct {
	Expected string
	Found    string
	Line     int
	Column   int
}

func (e *SyntaxError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("syntax error at %d:%d: expected %s", e.Line, e.Column, e.Expected)
	}
	return fmt.Sprintf("syntax error at %d:%d: expected %s, found %s", e.Line, e.Column, e.Expected, e.Found)
}

// TypeError is a value of the wrong kind for the requested read, or
// one that does not fit the requested width.
type TypeError struct {
	Expected string
	Found    string
}

func (e *TypeError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("expected %s", e.Expected)
	}
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
}

// NewTypeError builds a TypeError for a requested kind against what
// the wire actually holds.
func NewTypeError(expected, found string) error {
	return &TypeError{Expected: expected, Found: found}
}

// FieldErrorKind classifies schema violations on record fields.
type FieldErrorKind uint8

const (
	MissingField FieldErrorKind = iota
	DuplicateField
	UnknownField
)

func (k FieldErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case DuplicateField:
		return "duplicate field"
	case UnknownField:
		return "unknown field"
	default:
		return "field error"
	}
}

// FieldError is a schema violation while reading a record type.
type FieldError struct {
	Kind  FieldErrorKind
	Type  string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q on type %s", e.Kind, e.Field, e.Type)
}
