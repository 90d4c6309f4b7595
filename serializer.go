package serde

// Serializer is the push side of the data model. A value-producing
// collaborator calls exactly one Write* or Start* method per value.
//
// Every Start* method returns a container handle whose element/field
// methods hand out fresh Serializers. Each handed-out Serializer must
// be driven to completion for exactly one value before the container's
// next method is called, and every Start* must be paired with exactly
// one End. Handles are forward-only; reusing a consumed one is a
// caller contract violation.
type Serializer interface {
	WriteNull() error
	WriteBool(v bool) error
	WriteSigned(v int64, width Width) error
	WriteUnsigned(v uint64, width Width) error
	WriteFloat(v float64, width Width) error

	// WriteReal writes an extended-precision floating point value.
	WriteReal(v float64) error

	WriteChar(v rune) error
	WriteString(v string) error

	// WriteRaw copies a pre-formatted blob verbatim into the output.
	// Formats without a raw notion return a TypeError.
	WriteRaw(v string) error

	// WriteEnum writes a discriminant. Text formats use the name,
	// binary formats may use the ordinal.
	WriteEnum(name string, ordinal uint32) error

	StartOptional() (OptionalSerializer, error)

	// StartSeq opens a sequence. length is the element count, or -1
	// when not known up front.
	StartSeq(length int) (SeqSerializer, error)

	// StartTuple opens a fixed-length heterogeneous sequence.
	StartTuple(length int) (SeqSerializer, error)

	// StartMap opens a map. length is the pair count, or -1 when not
	// known up front.
	StartMap(length int) (MapSerializer, error)

	// StartStruct opens a named-field record. name may be used by
	// self-describing formats and is ignored by JSON and YAML.
	StartStruct(name string) (StructSerializer, error)
}

// OptionalSerializer writes a present or absent value.
type OptionalSerializer interface {
	Some() (Serializer, error)
	None() error
	End() error
}

// SeqSerializer writes sequence or tuple elements in order.
type SeqSerializer interface {
	Element() (Serializer, error)
	End() error
}

// MapSerializer writes key/value pairs. Key and Value must strictly
// alternate, Key first.
type MapSerializer interface {
	Key() (Serializer, error)
	Value() (Serializer, error)
	End() error
}

// StructSerializer writes named fields in the order given.
type StructSerializer interface {
	Field(name string) (Serializer, error)
	End() error
}

// SerializeFunc produces exactly one value into s.
type SerializeFunc func(s Serializer) error

// Serializable is implemented by values that know how to write
// themselves. Record types typically implement it by opening a struct
// and writing each field.
type Serializable interface {
	Serialize(s Serializer) error
}
