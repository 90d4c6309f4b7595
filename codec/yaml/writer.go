package yaml

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	serde "github.com/Bithero-Agency/serde-go"
)

// indentUnit is the block indentation step.
const indentUnit = "  "

type writer struct {
	out io.Writer
}

func (w *writer) ws(s string) error {
	_, err := io.WriteString(w.out, s)
	return err
}

func indent(depth int) string { return strings.Repeat(indentUnit, depth) }

// valueSerializer writes one value. In inline position the value
// continues a "key:" or "-" line; at the root it owns the whole
// document.
type valueSerializer struct {
	w      *writer
	depth  int
	inline bool
}

// scalarText commits a rendered scalar, with the separating space and
// line break when the value continues an entry line.
func (s valueSerializer) scalarText(text string) error {
	if s.inline {
		return s.w.ws(" " + text + "\n")
	}
	return s.w.ws(text + "\n")
}

func (s valueSerializer) WriteNull() error { return s.scalarText("null") }

func (s valueSerializer) WriteBool(v bool) error {
	return s.scalarText(strconv.FormatBool(v))
}

func (s valueSerializer) WriteSigned(v int64, _ serde.Width) error {
	return s.scalarText(strconv.FormatInt(v, 10))
}

func (s valueSerializer) WriteUnsigned(v uint64, _ serde.Width) error {
	return s.scalarText(strconv.FormatUint(v, 10))
}

func (s valueSerializer) WriteFloat(v float64, width serde.Width) error {
	return s.scalarText(formatFloat(v, width.Bits()))
}

func (s valueSerializer) WriteReal(v float64) error {
	return s.scalarText(formatFloat(v, 64))
}

func (s valueSerializer) WriteChar(v rune) error { return s.WriteString(string(v)) }

func (s valueSerializer) WriteString(v string) error {
	if needsBlockScalar(v) {
		return s.writeBlockScalar(v)
	}
	return s.scalarText(renderScalar(v, false))
}

func (s valueSerializer) WriteRaw(v string) error { return s.scalarText(v) }

func (s valueSerializer) WriteEnum(name string, _ uint32) error {
	return s.WriteString(name)
}

func (s valueSerializer) StartOptional() (serde.OptionalSerializer, error) {
	return optionalSerializer{v: s}, nil
}

func (s valueSerializer) StartSeq(int) (serde.SeqSerializer, error) {
	return &seqSerializer{v: s}, nil
}

func (s valueSerializer) StartTuple(length int) (serde.SeqSerializer, error) {
	return s.StartSeq(length)
}

func (s valueSerializer) StartMap(int) (serde.MapSerializer, error) {
	return &mapSerializer{v: s}, nil
}

func (s valueSerializer) StartStruct(string) (serde.StructSerializer, error) {
	return &structSerializer{m: mapSerializer{v: s}}, nil
}

// openBlock begins a nested block collection: the entry line it hangs
// off ends here, the entries follow one level deeper.
func (s valueSerializer) openBlock() (depth int, err error) {
	if s.inline {
		if err := s.w.ws("\n"); err != nil {
			return 0, err
		}
		return s.depth + 1, nil
	}
	return s.depth, nil
}

// closeEmpty renders a collection that saw no entries in flow
// notation, block style having no spelling for it.
func (s valueSerializer) closeEmpty(notation string) error {
	return s.scalarText(notation)
}

// writeBlockScalar emits a multi-line string as a literal block
// scalar, choosing the chomping indicator from the trailing newline
// count.
func (s valueSerializer) writeBlockScalar(v string) error {
	trailing := len(v) - len(strings.TrimRight(v, "\n"))
	body := v[:len(v)-trailing]

	header := "|"
	switch {
	case trailing == 0:
		header = "|-"
	case trailing >= 2:
		header = "|+"
	}
	if s.inline {
		header = " " + header
	}
	if err := s.w.ws(header + "\n"); err != nil {
		return err
	}

	depth := s.depth + 1
	if !s.inline {
		depth = s.depth
		if depth == 0 {
			depth = 1
		}
	}
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			if err := s.w.ws("\n"); err != nil {
				return err
			}
			continue
		}
		if err := s.w.ws(indent(depth) + line + "\n"); err != nil {
			return err
		}
	}
	// the final content newline is implied by clip; keep adds the rest
	for i := 1; i < trailing; i++ {
		if err := s.w.ws("\n"); err != nil {
			return err
		}
	}
	return nil
}

type optionalSerializer struct {
	v valueSerializer
}

func (s optionalSerializer) Some() (serde.Serializer, error) { return s.v, nil }

func (s optionalSerializer) None() error { return s.v.WriteNull() }

func (s optionalSerializer) End() error { return nil }

type seqSerializer struct {
	v       valueSerializer
	depth   int
	started bool
}

func (s *seqSerializer) Element() (serde.Serializer, error) {
	if !s.started {
		d, err := s.v.openBlock()
		if err != nil {
			return nil, err
		}
		s.depth = d
		s.started = true
	}
	if err := s.v.w.ws(indent(s.depth) + "-"); err != nil {
		return nil, err
	}
	return valueSerializer{w: s.v.w, depth: s.depth, inline: true}, nil
}

func (s *seqSerializer) End() error {
	if !s.started {
		return s.v.closeEmpty("[]")
	}
	return nil
}

type mapSerializer struct {
	v       valueSerializer
	depth   int
	started bool
	pending bool
}

func (s *mapSerializer) Key() (serde.Serializer, error) {
	if s.pending {
		return nil, fmt.Errorf("yaml: mapping key written twice without a value")
	}
	if !s.started {
		d, err := s.v.openBlock()
		if err != nil {
			return nil, err
		}
		s.depth = d
		s.started = true
	}
	s.pending = true
	return keySerializer{w: s.v.w, depth: s.depth}, nil
}

func (s *mapSerializer) Value() (serde.Serializer, error) {
	if !s.pending {
		return nil, fmt.Errorf("yaml: mapping value written without a key")
	}
	s.pending = false
	if err := s.v.w.ws(":"); err != nil {
		return nil, err
	}
	return valueSerializer{w: s.v.w, depth: s.depth, inline: true}, nil
}

func (s *mapSerializer) End() error {
	if !s.started {
		return s.v.closeEmpty("{}")
	}
	return nil
}

type structSerializer struct {
	m mapSerializer
}

func (s *structSerializer) Field(name string) (serde.Serializer, error) {
	ks, err := s.m.Key()
	if err != nil {
		return nil, err
	}
	if err := ks.WriteString(name); err != nil {
		return nil, err
	}
	return s.m.Value()
}

func (s *structSerializer) End() error { return s.m.End() }

// keySerializer renders scalars as block mapping keys: the indent is
// written with the key, the colon comes from Value. Keys holding a
// line break are always quoted.
type keySerializer struct {
	w     *writer
	depth int
}

func (s keySerializer) key(text string) error {
	return s.w.ws(indent(s.depth) + text)
}

func (s keySerializer) WriteString(v string) error {
	return s.key(renderScalar(v, true))
}

func (s keySerializer) WriteChar(v rune) error { return s.WriteString(string(v)) }

func (s keySerializer) WriteSigned(v int64, _ serde.Width) error {
	return s.key(strconv.FormatInt(v, 10))
}

func (s keySerializer) WriteUnsigned(v uint64, _ serde.Width) error {
	return s.key(strconv.FormatUint(v, 10))
}

func (s keySerializer) WriteBool(v bool) error {
	return s.key(strconv.FormatBool(v))
}

func (s keySerializer) WriteEnum(name string, _ uint32) error {
	return s.WriteString(name)
}

func (s keySerializer) WriteNull() error { return errMapKey("null") }

func (s keySerializer) WriteFloat(float64, serde.Width) error { return errMapKey("float") }

func (s keySerializer) WriteReal(float64) error { return errMapKey("real") }

func (s keySerializer) WriteRaw(string) error { return errMapKey("raw") }

func (s keySerializer) StartOptional() (serde.OptionalSerializer, error) {
	return nil, errMapKey("optional")
}

func (s keySerializer) StartSeq(int) (serde.SeqSerializer, error) {
	return nil, errMapKey("seq")
}

func (s keySerializer) StartTuple(int) (serde.SeqSerializer, error) {
	return nil, errMapKey("tuple")
}

func (s keySerializer) StartMap(int) (serde.MapSerializer, error) {
	return nil, errMapKey("map")
}

func (s keySerializer) StartStruct(string) (serde.StructSerializer, error) {
	return nil, errMapKey("struct")
}

func errMapKey(kind string) error {
	return serde.NewTypeError("scalar mapping key", kind)
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	case math.IsNaN(v):
		return ".nan"
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}

// needsBlockScalar reports whether a string should be emitted as a
// literal block scalar: it spans lines and needs no escaping.
func needsBlockScalar(v string) bool {
	if !strings.Contains(v, "\n") {
		return false
	}
	for _, r := range v {
		if r != '\n' && !printable(r) {
			return false
		}
	}
	// a block scalar cannot hold leading/trailing blanks on a line
	for _, line := range strings.Split(v, "\n") {
		if line != strings.TrimSpace(line) {
			return false
		}
	}
	return strings.TrimRight(v, "\n") != ""
}

// printable follows the YAML character range for printable content.
func printable(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == 0x85:
		return true
	case r >= 0x20 && r <= 0x7e:
		return true
	case r >= 0xa0 && r <= 0xd7ff:
		return true
	case r >= 0xe000 && r <= 0xfffd:
		return r != 0xfeff
	case r >= 0x10000 && r <= 0x10ffff:
		return true
	}
	return false
}

// renderScalar picks a presentation for a single-line string: plain
// when it is safe and unambiguous, double-quoted otherwise.
func renderScalar(v string, isKey bool) string {
	if plainSafe(v, isKey) {
		return v
	}
	return quoteScalar(v)
}

// plainSafe reports whether v survives a round trip as a plain
// scalar.
func plainSafe(v string, isKey bool) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if !printable(r) || r == '\n' || r == '\t' {
			return false
		}
	}
	if isKey && strings.ContainsRune(v, '\n') {
		return false
	}
	first := []rune(v)[0]
	if strings.ContainsRune("-?:,[]{}#&*!|>'\"%@` ", first) {
		return false
	}
	if strings.HasPrefix(v, " ") || strings.HasSuffix(v, " ") {
		return false
	}
	if strings.Contains(v, ": ") || strings.HasSuffix(v, ":") ||
		strings.Contains(v, " #") {
		return false
	}
	// strings that would read back as a different kind get quoted
	if isNullText(v) {
		return false
	}
	if _, ok := parseBool(v); ok {
		return false
	}
	if _, err := parseInt(v, 64); err == nil {
		return false
	}
	if _, err := parseUint(v, 64); err == nil {
		return false
	}
	if _, ok := parseFloat(v, 64); ok {
		return false
	}
	if unicode.IsSpace(first) {
		return false
	}
	return true
}

// quoteScalar double-quotes v with the same backslash-escape table as
// the JSON codec.
func quoteScalar(v string) string {
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
