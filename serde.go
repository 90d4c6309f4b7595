// Package serde is a format-agnostic serialization framework.
//
// Values are converted to and from wire formats (JSON, YAML, msgpack)
// through a shared data model: a producing collaborator drives a
// Serializer by opening containers and writing scalars into the
// sub-serializers it hands out, and a consuming collaborator drives a
// Deserializer the same way in reverse. Neither side ever sees the
// concrete wire representation.
//
// The codec subpackages implement the two contracts for their format.
// The typetag subpackage layers polymorphic (interface-valued)
// encoding on top of them.
package serde // import "github.com/Bithero-Agency/serde-go"

// Kind enumerates the value kinds of the data model. Every codec must
// support all of them (Raw only on the write side).
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindSigned
	KindUnsigned
	KindFloat
	KindReal
	KindChar
	KindString
	KindRaw
	KindOptional
	KindSeq
	KindTuple
	KindMap
	KindStruct
	KindEnum
)

// String returns the kind name as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindSigned:
		return "signed"
	case KindUnsigned:
		return "unsigned"
	case KindFloat:
		return "float"
	case KindReal:
		return "real"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindRaw:
		return "raw"
	case KindOptional:
		return "optional"
	case KindSeq:
		return "seq"
	case KindTuple:
		return "tuple"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Width is the byte width of an integer or floating point scalar.
// Integers use 1, 2, 4 or 8; floats use 4 or 8.
type Width uint8

const (
	Width1 Width = 1
	Width2 Width = 2
	Width4 Width = 4
	Width8 Width = 8
)

// Bits returns the width in bits, as wanted by strconv.
func (w Width) Bits() int { return int(w) * 8 }
