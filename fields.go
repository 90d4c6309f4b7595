package serde

import (
	"github.com/hashicorp/go-multierror"
)

// FieldSpec describes one field of a record type as seen on the wire.
type FieldSpec struct {
	Name     string
	Optional bool
}

// UnknownPolicy controls what a record's field-reading loop does with
// keys it does not recognize.
type UnknownPolicy uint8

const (
	// IgnoreUnknown skips unrecognized keys.
	IgnoreUnknown UnknownPolicy = iota
	// RejectUnknown fails on the first unrecognized key.
	RejectUnknown
)

// FieldTracker enforces the field discipline of a record type while
// its read loop drains a MapAccess: every non-optional field exactly
// once, duplicates rejected, unknowns handled per policy.
//
//	tracker := serde.NewFieldTracker("User", fields, serde.IgnoreUnknown)
//	var key serde.AnyValue
//	for {
//		ok, err := ma.Key(&key)
//		if err != nil || !ok { ... }
//		known, err := tracker.Mark(key)
//		if err != nil { return err }
//		if !known {
//			if err := ma.IgnoreValue(); err != nil { return err }
//			continue
//		}
//		// decode via ma.Value()
//	}
//	return tracker.Finish()
type FieldTracker struct {
	typeName string
	fields   []FieldSpec
	seen     []bool
	policy   UnknownPolicy
}

// NewFieldTracker returns a tracker for the given record type.
func NewFieldTracker(typeName string, fields []FieldSpec, policy UnknownPolicy) *FieldTracker {
	return &FieldTracker{
		typeName: typeName,
		fields:   fields,
		seen:     make([]bool, len(fields)),
		policy:   policy,
	}
}

// Mark records that key was read. It reports whether the key names a
// known field, and fails on duplicates or, under RejectUnknown, on
// unknown keys.
func (t *FieldTracker) Mark(key AnyValue) (known bool, err error) {
	name, ok := key.Str()
	if !ok {
		// struct fields may also arrive by integer index
		if idx, iok := key.Uint(); iok && idx < uint64(len(t.fields)) {
			name = t.fields[idx].Name
		} else {
			return false, NewTypeError("field name", key.String())
		}
	}
	for i, f := range t.fields {
		if f.Name != name {
			continue
		}
		if t.seen[i] {
			return false, &FieldError{Kind: DuplicateField, Type: t.typeName, Field: name}
		}
		t.seen[i] = true
		return true, nil
	}
	if t.policy == RejectUnknown {
		return false, &FieldError{Kind: UnknownField, Type: t.typeName, Field: name}
	}
	return false, nil
}

// Finish fails if any non-optional field was never seen. All missing
// fields are reported together.
func (t *FieldTracker) Finish() error {
	var merr *multierror.Error
	for i, f := range t.fields {
		if !t.seen[i] && !f.Optional {
			merr = multierror.Append(merr, &FieldError{
				Kind: MissingField, Type: t.typeName, Field: f.Name,
			})
		}
	}
	return merr.ErrorOrNil()
}
