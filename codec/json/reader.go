package json

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	serde "github.com/Bithero-Agency/serde-go"
	"github.com/Bithero-Agency/serde-go/internal/readbuf"
)

// reader is a recursive-descent Deserializer over a ReadBuffer.
type reader struct {
	buf    *readbuf.Buffer
	strict bool
}

func newReader(buf *readbuf.Buffer, strict bool) *reader {
	return &reader{buf: buf, strict: strict}
}

func isWS(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func (r *reader) skipWS() { r.buf.SkipWhile(isWS) }

// syntaxErr builds a SyntaxError at the current position, or reports
// unexpected end of input.
func (r *reader) syntaxErr(expected string) error {
	c, ok := r.buf.Peek()
	if !ok {
		if err := r.buf.Err(); err != nil {
			return err
		}
		return errors.Wrapf(serde.ErrUnexpectedEnd, "expected %s", expected)
	}
	return &serde.SyntaxError{
		Expected: expected,
		Found:    strconv.QuoteRune(c),
		Line:     r.buf.Line(),
		Column:   r.buf.Column(),
	}
}

func (r *reader) expect(c rune, what string) error {
	got, ok := r.buf.Peek()
	if !ok || got != c {
		return r.syntaxErr(what)
	}
	r.buf.Pop()
	return nil
}

// literal consumes s or fails without consuming a full token.
func (r *reader) literal(s, what string) error {
	if !r.buf.HasPrefix(s) {
		return r.syntaxErr(what)
	}
	r.buf.Skip(len(s))
	return nil
}

func (r *reader) ReadBool() (bool, error) {
	r.skipWS()
	switch {
	case r.buf.HasPrefix("true"):
		r.buf.Skip(4)
		return true, nil
	case r.buf.HasPrefix("false"):
		r.buf.Skip(5)
		return false, nil
	}
	return false, r.syntaxErr("boolean")
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// numberToken consumes one JSON number without interpreting it.
func (r *reader) numberToken() (string, error) {
	r.skipWS()
	tok := r.buf.TakeWhile(func(c rune) bool {
		return isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
	})
	if tok == "" {
		return "", r.syntaxErr("number")
	}
	return tok, nil
}

func (r *reader) ReadSigned(width serde.Width) (int64, error) {
	r.skipWS()
	neg := false
	if c, ok := r.buf.Peek(); ok && c == '-' {
		neg = true
		r.buf.Pop()
	}
	digits := r.buf.TakeWhile(isDigit)
	if digits == "" {
		return 0, r.syntaxErr("integer")
	}
	if neg {
		digits = "-" + digits
	}
	v, err := strconv.ParseInt(digits, 10, width.Bits())
	if err != nil {
		return 0, serde.NewTypeError("cannot fit integer into "+itoa(width.Bits())+" bits", digits)
	}
	return v, nil
}

func (r *reader) ReadUnsigned(width serde.Width) (uint64, error) {
	r.skipWS()
	digits := r.buf.TakeWhile(isDigit)
	if digits == "" {
		return 0, r.syntaxErr("unsigned integer")
	}
	v, err := strconv.ParseUint(digits, 10, width.Bits())
	if err != nil {
		return 0, serde.NewTypeError("cannot fit integer into "+itoa(width.Bits())+" bits", digits)
	}
	return v, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func (r *reader) ReadFloat(width serde.Width) (float64, error) {
	tok, err := r.numberToken()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseFloat(tok, width.Bits())
	if perr != nil {
		return 0, serde.NewTypeError("float", tok)
	}
	return v, nil
}

func (r *reader) ReadReal() (float64, error) { return r.ReadFloat(serde.Width8) }

func (r *reader) ReadChar() (rune, error) {
	s, err := r.ReadString()
	if err != nil {
		return 0, err
	}
	c, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, serde.NewTypeError("single character string", strconv.Quote(s))
	}
	return c, nil
}

func (r *reader) ReadString() (string, error) {
	r.skipWS()
	if err := r.expect('"', "string"); err != nil {
		return "", err
	}
	return r.stringBody()
}

// stringBody decodes the remainder of a quoted string, the opening
// quote already consumed.
func (r *reader) stringBody() (string, error) {
	var sb strings.Builder
	for {
		c, ok := r.buf.Pop()
		if !ok {
			return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside string")
		}
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			e, ok := r.buf.Pop()
			if !ok {
				return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside string escape")
			}
			switch e {
			case '"', '\\', '/':
				sb.WriteRune(e)
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			case 'u':
				b, err := r.unicodeEscape()
				if err != nil {
					return "", err
				}
				sb.WriteRune(b)
			default:
				return "", r.syntaxErr("string escape")
			}
		default:
			sb.WriteRune(c)
		}
	}
}

// unicodeEscape decodes the four hex digits after \u. Only the Basic
// Latin range is supported: the high byte must be 00.
func (r *reader) unicodeEscape() (rune, error) {
	var digits [4]rune
	for i := range digits {
		c, ok := r.buf.Pop()
		if !ok {
			return 0, errors.Wrap(serde.ErrUnexpectedEnd, "inside unicode escape")
		}
		digits[i] = c
	}
	if digits[0] != '0' || digits[1] != '0' {
		return 0, serde.NewTypeError(`\u escape with 00 high byte`, string(digits[:]))
	}
	v, err := strconv.ParseUint(string(digits[2:4]), 16, 8)
	if err != nil {
		return 0, serde.NewTypeError("hex digits", string(digits[:]))
	}
	return rune(v), nil
}

func (r *reader) ReadEnum(members []string) (uint32, error) {
	v, err := r.ReadAny()
	if err != nil {
		return 0, err
	}
	return serde.ResolveEnum(v, members)
}

func (r *reader) ReadOptional() (serde.Deserializer, bool, error) {
	r.skipWS()
	if r.buf.HasPrefix("null") {
		r.buf.Skip(4)
		return nil, false, nil
	}
	return r, true, nil
}

// ReadIgnore skips one value without building it; containers are
// bracket-matched recursively.
func (r *reader) ReadIgnore() error {
	r.skipWS()
	c, ok := r.buf.Peek()
	if !ok {
		return errors.Wrap(serde.ErrUnexpectedEnd, "expected value to skip")
	}
	switch c {
	case '"':
		_, err := r.ReadString()
		return err
	case '{':
		return r.skipContainer('{', '}')
	case '[':
		return r.skipContainer('[', ']')
	case 't':
		return r.literal("true", "value")
	case 'f':
		return r.literal("false", "value")
	case 'n':
		return r.literal("null", "value")
	default:
		_, err := r.numberToken()
		return err
	}
}

func (r *reader) skipContainer(open, close rune) error {
	if err := r.expect(open, string(open)); err != nil {
		return err
	}
	for {
		r.skipWS()
		c, ok := r.buf.Peek()
		if !ok {
			return errors.Wrapf(serde.ErrUnexpectedEnd, "expected %q", close)
		}
		switch c {
		case close:
			r.buf.Pop()
			return nil
		case ',', ':':
			r.buf.Pop()
		default:
			if err := r.ReadIgnore(); err != nil {
				return err
			}
		}
	}
}

func (r *reader) ReadAny() (serde.AnyValue, error) {
	r.skipWS()
	c, ok := r.buf.Peek()
	if !ok {
		return serde.AnyValue{}, errors.Wrap(serde.ErrUnexpectedEnd, "expected value")
	}
	switch {
	case c == '"':
		s, err := r.ReadString()
		if err != nil {
			return serde.AnyValue{}, err
		}
		return serde.Str(s), nil
	case c == 't':
		if err := r.literal("true", "value"); err != nil {
			return serde.AnyValue{}, err
		}
		return serde.Bool(true), nil
	case c == 'f':
		if err := r.literal("false", "value"); err != nil {
			return serde.AnyValue{}, err
		}
		return serde.Bool(false), nil
	case c == 'n':
		if err := r.literal("null", "value"); err != nil {
			return serde.AnyValue{}, err
		}
		return serde.Null(), nil
	case c == '[':
		return r.readAnySeq()
	case c == '{':
		return r.readAnyMap()
	default:
		tok, err := r.numberToken()
		if err != nil {
			return serde.AnyValue{}, err
		}
		return classifyNumber(tok)
	}
}

// classifyNumber maps a JSON number to the data model: integers go to
// the smallest signed width that fits, everything else stays a float.
func classifyNumber(tok string) (serde.AnyValue, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return serde.AnyValue{}, serde.NewTypeError("number", tok)
	}
	i := int64(f)
	if float64(i) == f && !math.Signbit(f) == (i >= 0) {
		switch {
		case serde.FitsSigned(i, serde.Width1):
			return serde.Signed(i, serde.Width1), nil
		case serde.FitsSigned(i, serde.Width2):
			return serde.Signed(i, serde.Width2), nil
		case serde.FitsSigned(i, serde.Width4):
			return serde.Signed(i, serde.Width4), nil
		default:
			return serde.Signed(i, serde.Width8), nil
		}
	}
	return serde.Float(f, serde.Width8), nil
}

func (r *reader) readAnySeq() (serde.AnyValue, error) {
	sa, err := r.StartSeq()
	if err != nil {
		return serde.AnyValue{}, err
	}
	var items []serde.AnyValue
	for {
		ed, ok, err := sa.Element()
		if err != nil {
			return serde.AnyValue{}, err
		}
		if !ok {
			break
		}
		v, err := ed.ReadAny()
		if err != nil {
			return serde.AnyValue{}, err
		}
		items = append(items, v)
	}
	if err := sa.End(); err != nil {
		return serde.AnyValue{}, err
	}
	return serde.Seq(items...), nil
}

func (r *reader) readAnyMap() (serde.AnyValue, error) {
	ma, err := r.StartMap()
	if err != nil {
		return serde.AnyValue{}, err
	}
	m := serde.NewAnyMap()
	var key serde.AnyValue
	for {
		ok, err := ma.Key(&key)
		if err != nil {
			return serde.AnyValue{}, err
		}
		if !ok {
			break
		}
		vd, err := ma.Value()
		if err != nil {
			return serde.AnyValue{}, err
		}
		v, err := vd.ReadAny()
		if err != nil {
			return serde.AnyValue{}, err
		}
		m.Set(key, v)
	}
	if err := ma.End(); err != nil {
		return serde.AnyValue{}, err
	}
	return serde.Map(m), nil
}

func (r *reader) StartSeq() (serde.SeqAccess, error) {
	r.skipWS()
	if err := r.expect('[', "'['"); err != nil {
		return nil, err
	}
	return &seqAccess{r: r, first: true}, nil
}

func (r *reader) StartTuple(int) (serde.SeqAccess, error) {
	return r.StartSeq()
}

func (r *reader) StartMap() (serde.MapAccess, error) {
	r.skipWS()
	if err := r.expect('{', "'{'"); err != nil {
		return nil, err
	}
	return &mapAccess{r: r, first: true}, nil
}

func (r *reader) StartStruct(string, []string) (serde.MapAccess, error) {
	return r.StartMap()
}

type seqAccess struct {
	r      *reader
	first  bool
	closed bool
}

func (a *seqAccess) SizeHint() int { return -1 }

func (a *seqAccess) Element() (serde.Deserializer, bool, error) {
	if a.closed {
		return nil, false, nil
	}
	a.r.skipWS()
	c, ok := a.r.buf.Peek()
	if !ok {
		return nil, false, errors.Wrap(serde.ErrUnexpectedEnd, "inside array")
	}
	if c == ']' {
		a.r.buf.Pop()
		a.closed = true
		return nil, false, nil
	}
	if !a.first {
		if c != ',' {
			return nil, false, a.r.syntaxErr("',' or ']'")
		}
		a.r.buf.Pop()
		a.r.skipWS()
		if c, ok := a.r.buf.Peek(); ok && c == ']' {
			// trailing comma
			if a.r.strict {
				return nil, false, a.r.syntaxErr("value")
			}
			a.r.buf.Pop()
			a.closed = true
			return nil, false, nil
		}
	}
	a.first = false
	return a.r, true, nil
}

func (a *seqAccess) End() error {
	if a.closed {
		return nil
	}
	a.r.skipWS()
	if err := a.r.expect(']', "']'"); err != nil {
		return err
	}
	a.closed = true
	return nil
}

type mapAccess struct {
	r       *reader
	first   bool
	closed  bool
	pending bool // key read, value outstanding
}

func (a *mapAccess) Key(k *serde.AnyValue) (bool, error) {
	if a.closed {
		return false, nil
	}
	a.r.skipWS()
	c, ok := a.r.buf.Peek()
	if !ok {
		return false, errors.Wrap(serde.ErrUnexpectedEnd, "inside object")
	}
	if c == '}' {
		a.r.buf.Pop()
		a.closed = true
		return false, nil
	}
	if !a.first {
		if c != ',' {
			return false, a.r.syntaxErr("',' or '}'")
		}
		a.r.buf.Pop()
		a.r.skipWS()
		if c, ok := a.r.buf.Peek(); ok && c == '}' {
			if a.r.strict {
				return false, a.r.syntaxErr("object key")
			}
			a.r.buf.Pop()
			a.closed = true
			return false, nil
		}
	}
	a.first = false
	s, err := a.r.ReadString()
	if err != nil {
		return false, err
	}
	a.r.skipWS()
	if err := a.r.expect(':', "':'"); err != nil {
		return false, err
	}
	*k = serde.Str(s)
	a.pending = true
	return true, nil
}

func (a *mapAccess) Value() (serde.Deserializer, error) {
	if !a.pending {
		return nil, serde.NewTypeError("object value", "no pending key")
	}
	a.pending = false
	return a.r, nil
}

func (a *mapAccess) IgnoreValue() error {
	d, err := a.Value()
	if err != nil {
		return err
	}
	return d.ReadIgnore()
}

func (a *mapAccess) End() error {
	if a.closed {
		return nil
	}
	a.r.skipWS()
	if err := a.r.expect('}', "'}'"); err != nil {
		return err
	}
	a.closed = true
	return nil
}
