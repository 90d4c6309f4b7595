// Package json implements the serde contracts for the JSON wire
// format: a direct writer with optional pretty printing and a
// recursive-descent reader.
package json // import "github.com/Bithero-Agency/serde-go/codec/json"

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	serde "github.com/Bithero-Agency/serde-go"
	"github.com/Bithero-Agency/serde-go/internal/readbuf"
)

// Option configures the codec.
type Option func(*codec)

// Strict makes the reader reject trailing commas before closing
// brackets. The default is permissive.
func Strict() Option {
	return func(c *codec) { c.strict = true }
}

// Pretty enables pretty printing with the given indent string.
func Pretty(indent string) Option {
	return func(c *codec) { c.indent = indent }
}

// New creates a JSON codec.
func New(opts ...Option) serde.Codec {
	var c codec
	for _, o := range opts {
		o(&c)
	}
	return &c
}

type codec struct {
	strict bool
	indent string
}

func (c *codec) Marshal(fn serde.SerializeFunc) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(NewSerializer(&buf, c.indent)); err != nil {
		return nil, errors.Wrap(err, "json: failed to marshal")
	}
	return buf.Bytes(), nil
}

func (c *codec) Unmarshal(data []byte, fn serde.DeserializeFunc) error {
	d := newReader(readbuf.NewString(string(data)), c.strict)
	if err := fn(d); err != nil {
		return errors.Wrap(err, "json: failed to unmarshal")
	}
	return nil
}

func (c *codec) NewEncoder(w io.Writer) serde.Encoder {
	return &encoder{w: w, indent: c.indent}
}

func (c *codec) NewDecoder(r io.Reader) serde.Decoder {
	return &decoder{r: newReader(readbuf.New(r), c.strict)}
}

// NewSerializer returns a Serializer writing JSON to w. indent
// enables pretty printing when non-empty.
func NewSerializer(w io.Writer, indent string) serde.Serializer {
	return valueSerializer{w: &writer{out: w, indent: indent}}
}

// NewDeserializer returns a Deserializer reading one JSON value from
// r.
func NewDeserializer(r io.Reader, opts ...Option) serde.Deserializer {
	var c codec
	for _, o := range opts {
		o(&c)
	}
	return newReader(readbuf.New(r), c.strict)
}

type encoder struct {
	w      io.Writer
	indent string
}

func (e *encoder) Encode(fn serde.SerializeFunc) error {
	if err := fn(NewSerializer(e.w, e.indent)); err != nil {
		return errors.Wrap(err, "json: failed to encode document")
	}
	_, err := e.w.Write([]byte{'\n'})
	return errors.Wrap(err, "json: failed to write document separator")
}

type decoder struct {
	r *reader
}

func (d *decoder) Decode(fn serde.DeserializeFunc) error {
	d.r.skipWS()
	if d.r.buf.AtEnd() {
		if err := d.r.buf.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	return fn(d.r)
}
