package serde

// Deserializer is the pull side of the data model. A value-consuming
// collaborator calls exactly one Read* or Start* method per value.
//
// The container access handles mirror the Serializer side: each
// Deserializer obtained from them must be consumed for exactly one
// value before the parent advances, every Start* pairs with exactly
// one End, and cursors are forward-only.
//
// Any method may fail with a format parse error; the first failure
// aborts the current document, there is no resynchronization.
type Deserializer interface {
	ReadBool() (bool, error)
	ReadSigned(width Width) (int64, error)
	ReadUnsigned(width Width) (uint64, error)
	ReadFloat(width Width) (float64, error)
	ReadReal() (float64, error)
	ReadChar() (rune, error)
	ReadString() (string, error)

	// ReadEnum resolves a discriminant against members, accepting
	// either the member name or its ordinal on the wire. It returns
	// the ordinal.
	ReadEnum(members []string) (uint32, error)

	// ReadOptional reports whether a value is present. When it is,
	// the returned Deserializer must be consumed for it; when absent
	// the Deserializer is nil and the wire null is already consumed.
	ReadOptional() (Deserializer, bool, error)

	// ReadIgnore skips exactly one value of unknown shape.
	ReadIgnore() error

	// ReadAny reads one value of unknown shape.
	ReadAny() (AnyValue, error)

	StartSeq() (SeqAccess, error)
	StartTuple(length int) (SeqAccess, error)
	StartMap() (MapAccess, error)

	// StartStruct opens a record. An implementation may return an
	// already-exhausted MapAccess when the record was consumed out of
	// band (see the typetag package). fields is advisory.
	StartStruct(name string, fields []string) (MapAccess, error)
}

// SeqAccess iterates sequence or tuple elements.
type SeqAccess interface {
	// SizeHint returns the element count if the format knows it, -1
	// otherwise.
	SizeHint() int

	// Element returns the cursor for the next element, or ok=false
	// when the sequence is exhausted.
	Element() (d Deserializer, ok bool, err error)

	End() error
}

// MapAccess iterates map entries or struct fields. Key and
// Value/IgnoreValue must strictly alternate, Key first.
type MapAccess interface {
	// Key reads the next key into k, or returns ok=false when the
	// container is exhausted.
	Key(k *AnyValue) (ok bool, err error)

	// Value returns the cursor for the value of the last read key.
	Value() (Deserializer, error)

	// IgnoreValue skips the value of the last read key.
	IgnoreValue() error

	End() error
}

// DeserializeFunc consumes exactly one value from d.
type DeserializeFunc func(d Deserializer) error

// Deserializable is implemented by values that know how to read
// themselves.
type Deserializable interface {
	Deserialize(d Deserializer) error
}
