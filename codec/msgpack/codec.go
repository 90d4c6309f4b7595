// Package msgpack implements the serde contracts on top of the
// msgpack wire format, driving the primitive encoder/decoder of
// github.com/vmihailenco/msgpack. It exists next to the text codecs
// to keep the data model honest about being format-agnostic.
package msgpack // import "github.com/Bithero-Agency/serde-go/codec/msgpack"

import (
	"bytes"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	serde "github.com/Bithero-Agency/serde-go"
)

// New creates a msgpack codec.
func New() serde.Codec { return &codec{} }

type codec struct{}

func (c *codec) Marshal(fn serde.SerializeFunc) ([]byte, error) {
	w := newWriter()
	if err := fn(valueSerializer{w: w}); err != nil {
		return nil, errors.Wrap(err, "msgpack: failed to marshal")
	}
	return w.buf.Bytes(), nil
}

func (c *codec) Unmarshal(data []byte, fn serde.DeserializeFunc) error {
	d := &reader{dec: msgpack.NewDecoder(bytes.NewReader(data))}
	if err := fn(d); err != nil {
		return errors.Wrap(err, "msgpack: failed to unmarshal")
	}
	return nil
}

func (c *codec) NewEncoder(w io.Writer) serde.Encoder {
	return &encoder{out: w}
}

func (c *codec) NewDecoder(r io.Reader) serde.Decoder {
	return &decoder{r: &reader{dec: msgpack.NewDecoder(r)}}
}

type encoder struct {
	out io.Writer
}

func (e *encoder) Encode(fn serde.SerializeFunc) error {
	// documents are staged in memory so container lengths can be
	// counted before their header is written
	w := newWriter()
	if err := fn(valueSerializer{w: w}); err != nil {
		return errors.Wrap(err, "msgpack: failed to encode document")
	}
	_, err := e.out.Write(w.buf.Bytes())
	return errors.Wrap(err, "msgpack: failed to flush document")
}

type decoder struct {
	r *reader
}

func (d *decoder) Decode(fn serde.DeserializeFunc) error {
	if _, err := d.r.dec.PeekCode(); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return errors.Wrap(err, "msgpack: failed to peek next document")
	}
	return fn(d.r)
}

// writer owns one msgpack output buffer. bytes.Buffer implements
// io.ByteWriter, so the encoder writes through without extra
// buffering and staged children can be spliced verbatim.
type writer struct {
	buf *bytes.Buffer
	enc *msgpack.Encoder
}

func newWriter() *writer {
	buf := new(bytes.Buffer)
	return &writer{buf: buf, enc: msgpack.NewEncoder(buf)}
}

type valueSerializer struct {
	w *writer
}

func (s valueSerializer) WriteNull() error { return s.w.enc.EncodeNil() }

func (s valueSerializer) WriteBool(v bool) error { return s.w.enc.EncodeBool(v) }

func (s valueSerializer) WriteSigned(v int64, _ serde.Width) error {
	return s.w.enc.EncodeInt(v)
}

func (s valueSerializer) WriteUnsigned(v uint64, _ serde.Width) error {
	return s.w.enc.EncodeUint(v)
}

func (s valueSerializer) WriteFloat(v float64, width serde.Width) error {
	if width == serde.Width4 {
		return s.w.enc.EncodeFloat32(float32(v))
	}
	return s.w.enc.EncodeFloat64(v)
}

func (s valueSerializer) WriteReal(v float64) error {
	return s.w.enc.EncodeFloat64(v)
}

func (s valueSerializer) WriteChar(v rune) error {
	return s.w.enc.EncodeString(string(v))
}

func (s valueSerializer) WriteString(v string) error {
	return s.w.enc.EncodeString(v)
}

func (s valueSerializer) WriteRaw(string) error {
	return serde.NewTypeError("format with raw text support", "msgpack")
}

func (s valueSerializer) WriteEnum(name string, _ uint32) error {
	return s.w.enc.EncodeString(name)
}

func (s valueSerializer) StartOptional() (serde.OptionalSerializer, error) {
	return optionalSerializer{w: s.w}, nil
}

func (s valueSerializer) StartSeq(length int) (serde.SeqSerializer, error) {
	if length >= 0 {
		if err := s.w.enc.EncodeArrayLen(length); err != nil {
			return nil, err
		}
		return &seqSerializer{parent: s.w, direct: true}, nil
	}
	return &seqSerializer{parent: s.w, staged: newWriter()}, nil
}

func (s valueSerializer) StartTuple(length int) (serde.SeqSerializer, error) {
	return s.StartSeq(length)
}

func (s valueSerializer) StartMap(length int) (serde.MapSerializer, error) {
	if length >= 0 {
		if err := s.w.enc.EncodeMapLen(length); err != nil {
			return nil, err
		}
		return &mapSerializer{parent: s.w, direct: true}, nil
	}
	return &mapSerializer{parent: s.w, staged: newWriter()}, nil
}

func (s valueSerializer) StartStruct(string) (serde.StructSerializer, error) {
	// field count is not known up front, stage the body
	return &structSerializer{parent: s.w, staged: newWriter()}, nil
}

type optionalSerializer struct {
	w *writer
}

func (s optionalSerializer) Some() (serde.Serializer, error) {
	return valueSerializer{w: s.w}, nil
}

func (s optionalSerializer) None() error { return s.w.enc.EncodeNil() }

func (s optionalSerializer) End() error { return nil }

type seqSerializer struct {
	parent *writer
	staged *writer
	direct bool
	count  int
}

func (s *seqSerializer) Element() (serde.Serializer, error) {
	s.count++
	if s.direct {
		return valueSerializer{w: s.parent}, nil
	}
	return valueSerializer{w: s.staged}, nil
}

func (s *seqSerializer) End() error {
	if s.direct {
		return nil
	}
	if err := s.parent.enc.EncodeArrayLen(s.count); err != nil {
		return err
	}
	_, err := s.parent.buf.Write(s.staged.buf.Bytes())
	return err
}

type mapSerializer struct {
	parent *writer
	staged *writer
	direct bool
	count  int
}

func (s *mapSerializer) target() *writer {
	if s.direct {
		return s.parent
	}
	return s.staged
}

func (s *mapSerializer) Key() (serde.Serializer, error) {
	s.count++
	return valueSerializer{w: s.target()}, nil
}

func (s *mapSerializer) Value() (serde.Serializer, error) {
	return valueSerializer{w: s.target()}, nil
}

func (s *mapSerializer) End() error {
	if s.direct {
		return nil
	}
	if err := s.parent.enc.EncodeMapLen(s.count); err != nil {
		return err
	}
	_, err := s.parent.buf.Write(s.staged.buf.Bytes())
	return err
}

type structSerializer struct {
	parent *writer
	staged *writer
	count  int
}

func (s *structSerializer) Field(name string) (serde.Serializer, error) {
	s.count++
	if err := s.staged.enc.EncodeString(name); err != nil {
		return nil, err
	}
	return valueSerializer{w: s.staged}, nil
}

func (s *structSerializer) End() error {
	if err := s.parent.enc.EncodeMapLen(s.count); err != nil {
		return err
	}
	_, err := s.parent.buf.Write(s.staged.buf.Bytes())
	return err
}

type reader struct {
	dec *msgpack.Decoder
}

func (r *reader) ReadBool() (bool, error) { return r.dec.DecodeBool() }

func (r *reader) ReadSigned(width serde.Width) (int64, error) {
	v, err := r.dec.DecodeInt64()
	if err != nil {
		return 0, err
	}
	if !serde.FitsSigned(v, width) {
		return 0, serde.NewTypeError("cannot fit integer into "+strconv.Itoa(width.Bits())+" bits", strconv.FormatInt(v, 10))
	}
	return v, nil
}

func (r *reader) ReadUnsigned(width serde.Width) (uint64, error) {
	v, err := r.dec.DecodeUint64()
	if err != nil {
		return 0, err
	}
	if !serde.FitsUnsigned(v, width) {
		return 0, serde.NewTypeError("cannot fit integer into "+strconv.Itoa(width.Bits())+" bits", strconv.FormatUint(v, 10))
	}
	return v, nil
}

func (r *reader) ReadFloat(width serde.Width) (float64, error) {
	if width == serde.Width4 {
		v, err := r.dec.DecodeFloat32()
		return float64(v), err
	}
	return r.dec.DecodeFloat64()
}

func (r *reader) ReadReal() (float64, error) { return r.dec.DecodeFloat64() }

func (r *reader) ReadChar() (rune, error) {
	s, err := r.dec.DecodeString()
	if err != nil {
		return 0, err
	}
	c, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, serde.NewTypeError("single character string", s)
	}
	return c, nil
}

func (r *reader) ReadString() (string, error) { return r.dec.DecodeString() }

func (r *reader) ReadEnum(members []string) (uint32, error) {
	v, err := r.ReadAny()
	if err != nil {
		return 0, err
	}
	return serde.ResolveEnum(v, members)
}

func (r *reader) ReadOptional() (serde.Deserializer, bool, error) {
	c, err := r.dec.PeekCode()
	if err != nil {
		return nil, false, err
	}
	if c == msgpcode.Nil {
		return nil, false, r.dec.DecodeNil()
	}
	return r, true, nil
}

func (r *reader) ReadIgnore() error { return r.dec.Skip() }

func (r *reader) ReadAny() (serde.AnyValue, error) {
	c, err := r.dec.PeekCode()
	if err != nil {
		return serde.AnyValue{}, err
	}
	switch {
	case c == msgpcode.Nil:
		return serde.Null(), r.dec.DecodeNil()
	case c == msgpcode.True, c == msgpcode.False:
		v, err := r.dec.DecodeBool()
		return serde.Bool(v), err
	case c == msgpcode.Float:
		v, err := r.dec.DecodeFloat32()
		return serde.Float(float64(v), serde.Width4), err
	case c == msgpcode.Double:
		v, err := r.dec.DecodeFloat64()
		return serde.Float(v, serde.Width8), err
	case c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64:
		v, err := r.dec.DecodeUint64()
		return serde.Unsigned(v, serde.Width8), err
	case msgpcode.IsFixedNum(c),
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		v, err := r.dec.DecodeInt64()
		return serde.Signed(v, serde.Width8), err
	case msgpcode.IsString(c), msgpcode.IsBin(c):
		v, err := r.dec.DecodeString()
		return serde.Str(v), err
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err := r.dec.DecodeArrayLen()
		if err != nil {
			return serde.AnyValue{}, err
		}
		items := make([]serde.AnyValue, 0, n)
		for i := 0; i < n; i++ {
			v, err := r.ReadAny()
			if err != nil {
				return serde.AnyValue{}, err
			}
			items = append(items, v)
		}
		return serde.Seq(items...), nil
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		n, err := r.dec.DecodeMapLen()
		if err != nil {
			return serde.AnyValue{}, err
		}
		m := serde.NewAnyMap()
		for i := 0; i < n; i++ {
			k, err := r.ReadAny()
			if err != nil {
				return serde.AnyValue{}, err
			}
			v, err := r.ReadAny()
			if err != nil {
				return serde.AnyValue{}, err
			}
			m.Set(k, v)
		}
		return serde.Map(m), nil
	}
	return serde.AnyValue{}, serde.NewTypeError("decodable msgpack value", "code 0x"+strconv.FormatUint(uint64(c), 16))
}

func (r *reader) StartSeq() (serde.SeqAccess, error) {
	n, err := r.dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	return &seqAccess{r: r, remaining: n}, nil
}

func (r *reader) StartTuple(length int) (serde.SeqAccess, error) {
	n, err := r.dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if length >= 0 && n != length {
		return nil, serde.NewTypeError("tuple of length "+strconv.Itoa(length), "array of length "+strconv.Itoa(n))
	}
	return &seqAccess{r: r, remaining: n}, nil
}

func (r *reader) StartMap() (serde.MapAccess, error) {
	n, err := r.dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	return &mapAccess{r: r, remaining: n}, nil
}

func (r *reader) StartStruct(string, []string) (serde.MapAccess, error) {
	return r.StartMap()
}

type seqAccess struct {
	r         *reader
	remaining int
	total     int
}

func (a *seqAccess) SizeHint() int {
	if a.total == 0 {
		a.total = a.remaining
	}
	return a.total
}

func (a *seqAccess) Element() (serde.Deserializer, bool, error) {
	if a.remaining <= 0 {
		return nil, false, nil
	}
	a.remaining--
	return a.r, true, nil
}

func (a *seqAccess) End() error {
	for a.remaining > 0 {
		if err := a.r.ReadIgnore(); err != nil {
			return err
		}
		a.remaining--
	}
	return nil
}

type mapAccess struct {
	r         *reader
	remaining int
	pending   bool
}

func (a *mapAccess) Key(k *serde.AnyValue) (bool, error) {
	if a.remaining <= 0 {
		return false, nil
	}
	a.remaining--
	v, err := a.r.ReadAny()
	if err != nil {
		return false, err
	}
	*k = v
	a.pending = true
	return true, nil
}

func (a *mapAccess) Value() (serde.Deserializer, error) {
	if !a.pending {
		return nil, serde.NewTypeError("map value", "no pending key")
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
	if a.pending {
		if err := a.IgnoreValue(); err != nil {
			return err
		}
	}
	for a.remaining > 0 {
		if err := a.r.ReadIgnore(); err != nil {
			return err
		}
		if err := a.r.ReadIgnore(); err != nil {
			return err
		}
		a.remaining--
	}
	return nil
}
