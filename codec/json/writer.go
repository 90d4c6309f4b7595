package json

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	serde "github.com/Bithero-Agency/serde-go"
)

// writer is the shared sink state behind one serializer tree.
type writer struct {
	out    io.Writer
	indent string // "" = compact
	depth  int
}

func (w *writer) ws(s string) error {
	_, err := io.WriteString(w.out, s)
	return err
}

func (w *writer) pretty() bool { return w.indent != "" }

// nl emits a newline plus the indentation of the given depth.
func (w *writer) nl(depth int) error {
	if !w.pretty() {
		return nil
	}
	return w.ws("\n" + strings.Repeat(w.indent, depth))
}

// valueSerializer writes exactly one JSON value into w.
type valueSerializer struct {
	w *writer
}

func (s valueSerializer) WriteNull() error { return s.w.ws("null") }

func (s valueSerializer) WriteBool(v bool) error {
	if v {
		return s.w.ws("true")
	}
	return s.w.ws("false")
}

func (s valueSerializer) WriteSigned(v int64, _ serde.Width) error {
	return s.w.ws(strconv.FormatInt(v, 10))
}

func (s valueSerializer) WriteUnsigned(v uint64, _ serde.Width) error {
	return s.w.ws(strconv.FormatUint(v, 10))
}

func (s valueSerializer) WriteFloat(v float64, width serde.Width) error {
	return s.w.ws(strconv.FormatFloat(v, 'g', -1, width.Bits()))
}

func (s valueSerializer) WriteReal(v float64) error {
	return s.w.ws(strconv.FormatFloat(v, 'g', -1, 64))
}

func (s valueSerializer) WriteChar(v rune) error {
	return s.WriteString(string(v))
}

func (s valueSerializer) WriteString(v string) error {
	return s.w.ws(escapeString(v))
}

func (s valueSerializer) WriteRaw(v string) error { return s.w.ws(v) }

func (s valueSerializer) WriteEnum(name string, _ uint32) error {
	return s.WriteString(name)
}

func (s valueSerializer) StartOptional() (serde.OptionalSerializer, error) {
	return optionalSerializer{w: s.w}, nil
}

func (s valueSerializer) StartSeq(int) (serde.SeqSerializer, error) {
	if err := s.w.ws("["); err != nil {
		return nil, err
	}
	s.w.depth++
	return &seqSerializer{w: s.w, first: true}, nil
}

func (s valueSerializer) StartTuple(length int) (serde.SeqSerializer, error) {
	return s.StartSeq(length)
}

func (s valueSerializer) StartMap(int) (serde.MapSerializer, error) {
	if err := s.w.ws("{"); err != nil {
		return nil, err
	}
	s.w.depth++
	return &mapSerializer{w: s.w, first: true}, nil
}

func (s valueSerializer) StartStruct(string) (serde.StructSerializer, error) {
	if err := s.w.ws("{"); err != nil {
		return nil, err
	}
	s.w.depth++
	return &structSerializer{w: s.w, first: true}, nil
}

type optionalSerializer struct {
	w *writer
}

func (s optionalSerializer) Some() (serde.Serializer, error) {
	return valueSerializer{w: s.w}, nil
}

func (s optionalSerializer) None() error { return s.w.ws("null") }

func (s optionalSerializer) End() error { return nil }

type seqSerializer struct {
	w     *writer
	first bool
}

func (s *seqSerializer) Element() (serde.Serializer, error) {
	if !s.first {
		if err := s.w.ws(","); err != nil {
			return nil, err
		}
	}
	s.first = false
	if err := s.w.nl(s.w.depth); err != nil {
		return nil, err
	}
	return valueSerializer{w: s.w}, nil
}

func (s *seqSerializer) End() error {
	s.w.depth--
	if !s.first {
		if err := s.w.nl(s.w.depth); err != nil {
			return err
		}
	}
	return s.w.ws("]")
}

type mapSerializer struct {
	w       *writer
	first   bool
	pending bool // key written, value outstanding
}

func (s *mapSerializer) Key() (serde.Serializer, error) {
	if s.pending {
		return nil, fmt.Errorf("json: map key written twice without a value")
	}
	if !s.first {
		if err := s.w.ws(","); err != nil {
			return nil, err
		}
	}
	s.first = false
	s.pending = true
	if err := s.w.nl(s.w.depth); err != nil {
		return nil, err
	}
	return keySerializer{w: s.w}, nil
}

func (s *mapSerializer) Value() (serde.Serializer, error) {
	if !s.pending {
		return nil, fmt.Errorf("json: map value written without a key")
	}
	s.pending = false
	if err := s.w.ws(s.colon()); err != nil {
		return nil, err
	}
	return valueSerializer{w: s.w}, nil
}

func (s *mapSerializer) colon() string {
	if s.w.pretty() {
		return ": "
	}
	return ":"
}

func (s *mapSerializer) End() error {
	s.w.depth--
	if !s.first {
		if err := s.w.nl(s.w.depth); err != nil {
			return err
		}
	}
	return s.w.ws("}")
}

type structSerializer struct {
	w     *writer
	first bool
}

func (s *structSerializer) Field(name string) (serde.Serializer, error) {
	if !s.first {
		if err := s.w.ws(","); err != nil {
			return nil, err
		}
	}
	s.first = false
	if err := s.w.nl(s.w.depth); err != nil {
		return nil, err
	}
	sep := ":"
	if s.w.pretty() {
		sep = ": "
	}
	if err := s.w.ws(escapeString(name) + sep); err != nil {
		return nil, err
	}
	return valueSerializer{w: s.w}, nil
}

func (s *structSerializer) End() error {
	s.w.depth--
	if !s.first {
		if err := s.w.nl(s.w.depth); err != nil {
			return err
		}
	}
	return s.w.ws("}")
}

// keySerializer renders scalars as JSON object keys. Non-string
// scalars are quoted, everything else is rejected.
type keySerializer struct {
	w *writer
}

func (s keySerializer) WriteString(v string) error { return s.w.ws(escapeString(v)) }

func (s keySerializer) WriteChar(v rune) error { return s.WriteString(string(v)) }

func (s keySerializer) WriteSigned(v int64, _ serde.Width) error {
	return s.w.ws(`"` + strconv.FormatInt(v, 10) + `"`)
}

func (s keySerializer) WriteUnsigned(v uint64, _ serde.Width) error {
	return s.w.ws(`"` + strconv.FormatUint(v, 10) + `"`)
}

func (s keySerializer) WriteBool(v bool) error {
	return s.w.ws(`"` + strconv.FormatBool(v) + `"`)
}

func (s keySerializer) WriteEnum(name string, _ uint32) error {
	return s.WriteString(name)
}

func (s keySerializer) WriteNull() error { return errKey("null") }

func (s keySerializer) WriteFloat(float64, serde.Width) error { return errKey("float") }

func (s keySerializer) WriteReal(float64) error { return errKey("real") }

func (s keySerializer) WriteRaw(string) error { return errKey("raw") }

func (s keySerializer) StartOptional() (serde.OptionalSerializer, error) {
	return nil, errKey("optional")
}

func (s keySerializer) StartSeq(int) (serde.SeqSerializer, error) {
	return nil, errKey("seq")
}

func (s keySerializer) StartTuple(int) (serde.SeqSerializer, error) {
	return nil, errKey("tuple")
}

func (s keySerializer) StartMap(int) (serde.MapSerializer, error) {
	return nil, errKey("map")
}

func (s keySerializer) StartStruct(string) (serde.StructSerializer, error) {
	return nil, errKey("struct")
}

func errKey(kind string) error {
	return serde.NewTypeError("string object key", kind)
}

// escapeString quotes v using the fixed backslash-escape table:
// control characters, the quote and the backslash are escaped, all
// other bytes pass through.
func escapeString(v string) string {
	var sb strings.Builder
	sb.Grow(len(v) + 2)
	sb.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
				sb.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
