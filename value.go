package serde

import (
	"fmt"
	"strconv"
	"strings"
)

// AnyValue is a closed dynamic value: any scalar or string kind of the
// data model plus, recursively, sequences and ordered maps of itself.
// It backs ReadAny, ReadIgnore and the out-of-order buffering done by
// the typetag package. The zero value is null.
type AnyValue struct {
	kind  Kind
	width Width
	b     bool
	i     int64
	u     uint64
	f     float64
	c     rune
	s     string
	seq   []AnyValue
	m     *AnyMap
}

// Null returns the null value.
func Null() AnyValue { return AnyValue{kind: KindNull} }

// Bool returns a boolean value.
func Bool(v bool) AnyValue { return AnyValue{kind: KindBool, b: v} }

// Signed returns a signed integer value of the given width.
func Signed(v int64, width Width) AnyValue {
	return AnyValue{kind: KindSigned, i: v, width: width}
}

// Unsigned returns an unsigned integer value of the given width.
func Unsigned(v uint64, width Width) AnyValue {
	return AnyValue{kind: KindUnsigned, u: v, width: width}
}

// Float returns a floating point value of the given width.
func Float(v float64, width Width) AnyValue {
	return AnyValue{kind: KindFloat, f: v, width: width}
}

// Real returns an extended-precision floating point value.
func Real(v float64) AnyValue { return AnyValue{kind: KindReal, f: v} }

// Char returns a character value.
func Char(v rune) AnyValue { return AnyValue{kind: KindChar, c: v} }

// Str returns a string value.
func Str(v string) AnyValue { return AnyValue{kind: KindString, s: v} }

// Seq returns a sequence value.
func Seq(items ...AnyValue) AnyValue { return AnyValue{kind: KindSeq, seq: items} }

// Map returns a map value backed by m. A nil m is an empty map.
func Map(m *AnyMap) AnyValue {
	if m == nil {
		m = new(AnyMap)
	}
	return AnyValue{kind: KindMap, m: m}
}

// Kind returns the value's kind.
func (v AnyValue) Kind() Kind { return v.kind }

// Width returns the scalar width, if the kind carries one.
func (v AnyValue) Width() Width { return v.width }

// IsNull reports whether the value is null.
func (v AnyValue) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload.
func (v AnyValue) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the integer payload of a signed or unsigned value.
func (v AnyValue) Int() (int64, bool) {
	switch v.kind {
	case KindSigned:
		return v.i, true
	case KindUnsigned:
		return int64(v.u), v.u <= maxInt64
	}
	return 0, false
}

// Uint returns the integer payload of a non-negative integer value.
func (v AnyValue) Uint() (uint64, bool) {
	switch v.kind {
	case KindUnsigned:
		return v.u, true
	case KindSigned:
		return uint64(v.i), v.i >= 0
	}
	return 0, false
}

// Float returns the floating point payload.
func (v AnyValue) Float() (float64, bool) {
	return v.f, v.kind == KindFloat || v.kind == KindReal
}

// Char returns the character payload.
func (v AnyValue) Char() (rune, bool) { return v.c, v.kind == KindChar }

// Str returns the string payload.
func (v AnyValue) Str() (string, bool) { return v.s, v.kind == KindString }

// Seq returns the sequence payload.
func (v AnyValue) Seq() ([]AnyValue, bool) { return v.seq, v.kind == KindSeq }

// Map returns the map payload.
func (v AnyValue) Map() (*AnyMap, bool) { return v.m, v.kind == KindMap }

const maxInt64 = 1<<63 - 1

// Equal reports structural equality. Integer widths are ignored and
// signed/unsigned values compare by numeric value; maps compare entry
// by entry in insertion order.
func (v AnyValue) Equal(o AnyValue) bool {
	switch v.kind {
	case KindNull:
		return o.kind == KindNull
	case KindBool:
		return o.kind == KindBool && v.b == o.b
	case KindSigned, KindUnsigned:
		if v.kind == KindSigned && v.i < 0 {
			return o.kind == KindSigned && o.i == v.i
		}
		vu, ok := v.Uint()
		if !ok {
			return false
		}
		ou, ok := o.Uint()
		return ok && vu == ou
	case KindFloat, KindReal:
		return (o.kind == KindFloat || o.kind == KindReal) && v.f == o.f
	case KindChar:
		return o.kind == KindChar && v.c == o.c
	case KindString:
		return o.kind == KindString && v.s == o.s
	case KindSeq:
		if o.kind != KindSeq || len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if o.kind != KindMap || v.m.Len() != o.m.Len() {
			return false
		}
		ve, oe := v.m.Entries(), o.m.Entries()
		for i := range ve {
			if !ve[i].Key.Equal(oe[i].Key) || !ve[i].Value.Equal(oe[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for error messages, in a JSON-ish notation.
func (v AnyValue) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindSigned:
		return strconv.FormatInt(v.i, 10)
	case KindUnsigned:
		return strconv.FormatUint(v.u, 10)
	case KindFloat, KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindChar:
		return strconv.QuoteRune(v.c)
	case KindString:
		return strconv.Quote(v.s)
	case KindSeq:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, e := range v.m.Entries() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(e.Key.String())
			sb.WriteByte(':')
			sb.WriteString(e.Value.String())
		}
		sb.WriteByte('}')
		return sb.String()
	}
	return fmt.Sprintf("<%s>", v.kind)
}

// Serialize replays the value into s.
func (v AnyValue) Serialize(s Serializer) error {
	switch v.kind {
	case KindNull:
		return s.WriteNull()
	case KindBool:
		return s.WriteBool(v.b)
	case KindSigned:
		return s.WriteSigned(v.i, v.width)
	case KindUnsigned:
		return s.WriteUnsigned(v.u, v.width)
	case KindFloat:
		return s.WriteFloat(v.f, v.width)
	case KindReal:
		return s.WriteReal(v.f)
	case KindChar:
		return s.WriteChar(v.c)
	case KindString:
		return s.WriteString(v.s)
	case KindSeq:
		seq, err := s.StartSeq(len(v.seq))
		if err != nil {
			return err
		}
		for _, e := range v.seq {
			es, err := seq.Element()
			if err != nil {
				return err
			}
			if err := e.Serialize(es); err != nil {
				return err
			}
		}
		return seq.End()
	case KindMap:
		ms, err := s.StartMap(v.m.Len())
		if err != nil {
			return err
		}
		for _, e := range v.m.Entries() {
			ks, err := ms.Key()
			if err != nil {
				return err
			}
			if err := e.Key.Serialize(ks); err != nil {
				return err
			}
			vs, err := ms.Value()
			if err != nil {
				return err
			}
			if err := e.Value.Serialize(vs); err != nil {
				return err
			}
		}
		return ms.End()
	}
	return NewTypeError("serializable value", v.kind.String())
}

// AnyEntry is one key/value pair of an AnyMap.
type AnyEntry struct {
	Key   AnyValue
	Value AnyValue
}

// AnyMap is an insertion-ordered map of AnyValues. Keys compare by
// structural equality, not hashing; assigning an existing key
// overwrites its value in place.
type AnyMap struct {
	entries []AnyEntry
}

// NewAnyMap returns an empty map.
func NewAnyMap() *AnyMap { return new(AnyMap) }

// Len returns the number of entries.
func (m *AnyMap) Len() int { return len(m.entries) }

// Entries returns the entries in insertion order. The slice is shared,
// callers must not grow it.
func (m *AnyMap) Entries() []AnyEntry { return m.entries }

// Get returns the value stored under k.
func (m *AnyMap) Get(k AnyValue) (AnyValue, bool) {
	for _, e := range m.entries {
		if e.Key.Equal(k) {
			return e.Value, true
		}
	}
	return AnyValue{}, false
}

// Set stores v under k, overwriting an existing entry in place.
func (m *AnyMap) Set(k, v AnyValue) {
	for i, e := range m.entries {
		if e.Key.Equal(k) {
			m.entries[i].Value = v
			return
		}
	}
	m.entries = append(m.entries, AnyEntry{Key: k, Value: v})
}

// Append adds an entry without the overwrite check. It is meant for
// decoders that already know keys are distinct.
func (m *AnyMap) Append(k, v AnyValue) {
	m.entries = append(m.entries, AnyEntry{Key: k, Value: v})
}
