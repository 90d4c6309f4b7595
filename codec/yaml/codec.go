// Package yaml implements the serde contracts for a YAML subset:
// block and flow collections, plain, quoted and block scalars with
// chomping, and tag syntax (parsed, not applied). Anchors, aliases
// and multi-document streams are not supported.
package yaml // import "github.com/Bithero-Agency/serde-go/codec/yaml"

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	serde "github.com/Bithero-Agency/serde-go"
	"github.com/Bithero-Agency/serde-go/internal/readbuf"
)

// Option configures the codec.
type Option func(*codec)

// RegisterHandle maps a named tag handle (e.g. "!e!") onto its
// prefix. The secondary handle "!!" may be overridden the same way.
func RegisterHandle(handle, prefix string) Option {
	return func(c *codec) { c.handles[handle] = prefix }
}

// New creates a YAML codec.
func New(opts ...Option) serde.Codec {
	c := &codec{handles: map[string]string{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

type codec struct {
	handles map[string]string
}

func (c *codec) Marshal(fn serde.SerializeFunc) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(NewSerializer(&buf)); err != nil {
		return nil, errors.Wrap(err, "yaml: failed to marshal")
	}
	return buf.Bytes(), nil
}

func (c *codec) Unmarshal(data []byte, fn serde.DeserializeFunc) error {
	r := newReader(readbuf.NewString(string(data)), c.handles)
	r.skipDocumentStart()
	if err := fn(r); err != nil {
		return errors.Wrap(err, "yaml: failed to unmarshal")
	}
	return nil
}

func (c *codec) NewEncoder(w io.Writer) serde.Encoder {
	return &encoder{w: w}
}

func (c *codec) NewDecoder(r io.Reader) serde.Decoder {
	return &decoder{r: newReader(readbuf.New(r), c.handles)}
}

// NewSerializer returns a Serializer writing block-style YAML to w.
func NewSerializer(w io.Writer) serde.Serializer {
	return valueSerializer{w: &writer{out: w}}
}

// NewDeserializer returns a Deserializer reading one YAML document
// from r.
func NewDeserializer(r io.Reader, opts ...Option) serde.Deserializer {
	c := &codec{handles: map[string]string{}}
	for _, o := range opts {
		o(c)
	}
	rd := newReader(readbuf.New(r), c.handles)
	rd.skipDocumentStart()
	return rd
}

type encoder struct {
	w     io.Writer
	count int
}

func (e *encoder) Encode(fn serde.SerializeFunc) error {
	if e.count > 0 {
		if _, err := io.WriteString(e.w, "---\n"); err != nil {
			return errors.Wrap(err, "yaml: failed to write document separator")
		}
	}
	e.count++
	if err := fn(NewSerializer(e.w)); err != nil {
		return errors.Wrap(err, "yaml: failed to encode document")
	}
	return nil
}

type decoder struct {
	r *reader
}

func (d *decoder) Decode(fn serde.DeserializeFunc) error {
	d.r.skipDocumentStart()
	if d.r.atEnd() {
		if err := d.r.buf.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	// reset block state for the next document
	d.r.ctx = ctxBlockOut
	d.r.lvl = -1
	return fn(d.r)
}

// skipDocumentStart drops blank lines, comments and a leading "---"
// document marker.
func (r *reader) skipDocumentStart() {
	for {
		r.skipSpace()
		c, ok := r.buf.Peek()
		if !ok {
			return
		}
		switch {
		case c == '\n':
			r.buf.Pop()
		case c == '#':
			r.buf.SkipWhile(func(c rune) bool { return c != '\n' })
		case (c == '-' || c == '.') && r.buf.Column() == 1 && r.atDocMarker():
			r.buf.Skip(3)
		default:
			return
		}
	}
}
