// Package codectest holds a conformance suite that every codec has to
// pass. Codecs register a constructor and the suite round-trips a
// shared set of values through Marshal/Unmarshal and through the
// streaming Encoder/Decoder pair.
package codectest // import "github.com/Bithero-Agency/serde-go/codec/codectest"

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	serde "github.com/Bithero-Agency/serde-go"
)

// NewCodecFunc constructs a fresh codec under test.
type NewCodecFunc func() serde.Codec

var newCodecFuncs = map[string]NewCodecFunc{}

// Register adds a codec to the suite.
func Register(name string, f NewCodecFunc) {
	newCodecFuncs[name] = f
}

// RunAll runs the whole suite against every registered codec.
func RunAll(t *testing.T) {
	for name, f := range newCodecFuncs {
		newCodec := f
		t.Run(name, func(t *testing.T) {
			t.Run("roundtrip", CodecTestRoundTrip(newCodec))
			t.Run("optional", CodecTestOptional(newCodec))
			t.Run("stream", CodecTestStream(newCodec))
		})
	}
}

// CodecTestRoundTrip round-trips the shared value table: each value
// is replayed into the serializer and read back with ReadAny. The
// expected value differs from the input where the format has no
// representation for the exact kind (chars come back as strings).
func CodecTestRoundTrip(f NewCodecFunc) func(*testing.T) {
	type testcase struct {
		name string
		v    serde.AnyValue
		want serde.AnyValue
	}

	pairs := serde.NewAnyMap()
	pairs.Set(serde.Str("name"), serde.Str("gopher"))
	pairs.Set(serde.Str("seqs"), serde.Seq(
		serde.Signed(-1, serde.Width1),
		serde.Unsigned(2, serde.Width1),
	))
	inner := serde.NewAnyMap()
	inner.Set(serde.Str("ok"), serde.Bool(true))
	pairs.Set(serde.Str("meta"), serde.Map(inner))

	tcs := []testcase{
		{name: "null", v: serde.Null()},
		{name: "bool", v: serde.Bool(true)},
		{name: "signed", v: serde.Signed(-42, serde.Width2)},
		{name: "unsigned", v: serde.Unsigned(9000, serde.Width4)},
		{name: "float", v: serde.Float(1.5, serde.Width8)},
		{name: "string", v: serde.Str("hello, world")},
		{name: "string-escapes", v: serde.Str("line\nbreak \"and\" symbols\\")},
		{name: "string-empty", v: serde.Str("")},
		{name: "char", v: serde.Char('x'), want: serde.Str("x")},
		{name: "seq", v: serde.Seq(serde.Bool(false), serde.Null(), serde.Str("end"))},
		{name: "seq-empty", v: serde.Seq()},
		{name: "map", v: serde.Map(pairs)},
		{name: "map-empty", v: serde.Map(serde.NewAnyMap())},
	}

	return func(t *testing.T) {
		for _, tc := range tcs {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				r := require.New(t)
				c := f()

				data, err := c.Marshal(tc.v.Serialize)
				r.NoError(err)

				want := tc.want
				if want.Kind() == serde.KindNull && tc.v.Kind() != serde.KindNull {
					want = tc.v
				}
				err = c.Unmarshal(data, func(d serde.Deserializer) error {
					got, err := d.ReadAny()
					if err != nil {
						return err
					}
					r.True(want.Equal(got), "want %s, got %s (wire %q)", want, got, data)
					return nil
				})
				r.NoError(err)
			})
		}
	}
}

// CodecTestOptional checks the absent/present distinction.
func CodecTestOptional(f NewCodecFunc) func(*testing.T) {
	return func(t *testing.T) {
		r := require.New(t)
		c := f()

		data, err := c.Marshal(func(s serde.Serializer) error {
			o, err := s.StartOptional()
			if err != nil {
				return err
			}
			if err := o.None(); err != nil {
				return err
			}
			return o.End()
		})
		r.NoError(err)
		err = c.Unmarshal(data, func(d serde.Deserializer) error {
			_, ok, err := d.ReadOptional()
			r.NoError(err)
			r.False(ok)
			return nil
		})
		r.NoError(err)

		data, err = c.Marshal(func(s serde.Serializer) error {
			o, err := s.StartOptional()
			if err != nil {
				return err
			}
			vs, err := o.Some()
			if err != nil {
				return err
			}
			if err := vs.WriteString("present"); err != nil {
				return err
			}
			return o.End()
		})
		r.NoError(err)
		err = c.Unmarshal(data, func(d serde.Deserializer) error {
			vd, ok, err := d.ReadOptional()
			r.NoError(err)
			r.True(ok)
			v, err := vd.ReadString()
			r.NoError(err)
			r.Equal("present", v)
			return nil
		})
		r.NoError(err)
	}
}

// CodecTestStream encodes a run of documents and decodes them back
// until EOF.
func CodecTestStream(f NewCodecFunc) func(*testing.T) {
	return func(t *testing.T) {
		r := require.New(t)
		c := f()

		docs := []serde.AnyValue{
			serde.Str("first"),
			serde.Seq(serde.Signed(1, serde.Width1), serde.Signed(2, serde.Width1)),
			serde.Str("last"),
		}

		var buf bytes.Buffer
		enc := c.NewEncoder(&buf)
		for _, doc := range docs {
			r.NoError(enc.Encode(doc.Serialize))
		}

		dec := c.NewDecoder(&buf)
		var got []serde.AnyValue
		for {
			err := dec.Decode(func(d serde.Deserializer) error {
				v, err := d.ReadAny()
				if err != nil {
					return err
				}
				got = append(got, v)
				return nil
			})
			if err == io.EOF {
				break
			}
			r.NoError(err)
		}

		r.Len(got, len(docs))
		for i, doc := range docs {
			r.True(doc.Equal(got[i]), "doc %d: want %s, got %s", i, doc, got[i])
		}
	}
}
