package typetag

import "fmt"

// UnknownTagError is returned when the wire carries a tag no decoder
// was registered for.
type UnknownTagError struct {
	Base string
	Tag  string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("typetag: unknown tag %q for base %q", e.Tag, e.Base)
}

// MissingTagError is returned when the expected tag key never shows
// up in the input.
type MissingTagError struct {
	Base string
	Key  string
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("typetag: missing tag key %q for base %q", e.Key, e.Base)
}

// ShapeError is returned when the input does not have the layout the
// strategy expects.
type ShapeError struct {
	Base     string
	Expected string
	Found    string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("typetag: malformed %s value: expected %s, found %s", e.Base, e.Expected, e.Found)
}
