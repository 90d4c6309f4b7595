package json

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	serde "github.com/Bithero-Agency/serde-go"
	"github.com/ssbc/go-luigi"
)

func TestScalarRoundTrip(t *testing.T) {
	r := require.New(t)
	c := New()

	for _, w := range []serde.Width{serde.Width1, serde.Width2, serde.Width4, serde.Width8} {
		width := w
		data, err := c.Marshal(func(s serde.Serializer) error {
			return s.WriteSigned(-42, width)
		})
		r.NoError(err)
		r.Equal("-42", string(data))

		err = c.Unmarshal(data, func(d serde.Deserializer) error {
			v, err := d.ReadSigned(width)
			r.NoError(err)
			r.EqualValues(-42, v)
			return nil
		})
		r.NoError(err)
	}

	data, err := c.Marshal(func(s serde.Serializer) error {
		return s.WriteUnsigned(255, serde.Width1)
	})
	r.NoError(err)
	err = c.Unmarshal(data, func(d serde.Deserializer) error {
		v, err := d.ReadUnsigned(serde.Width1)
		r.NoError(err)
		r.EqualValues(255, v)
		return nil
	})
	r.NoError(err)

	data, err = c.Marshal(func(s serde.Serializer) error {
		return s.WriteFloat(12.5, serde.Width8)
	})
	r.NoError(err)
	err = c.Unmarshal(data, func(d serde.Deserializer) error {
		v, err := d.ReadFloat(serde.Width8)
		r.NoError(err)
		r.Equal(12.5, v)
		return nil
	})
	r.NoError(err)
}

func TestIntegerOverflow(t *testing.T) {
	r := require.New(t)
	c := New()

	err := c.Unmarshal([]byte("300"), func(d serde.Deserializer) error {
		_, err := d.ReadSigned(serde.Width1)
		return err
	})
	r.Error(err)
	r.Contains(err.Error(), "cannot fit integer")
}

func TestStringRoundTrip(t *testing.T) {
	r := require.New(t)
	c := New()

	for _, s := range []string{
		"plain",
		"with \"quotes\" and \\backslashes\\",
		"line\nbreaks\r\nand\ttabs",
		"control \x00 \x01 \x1f bytes",
		"ünïcödé ✓",
	} {
		in := s
		data, err := c.Marshal(func(sr serde.Serializer) error {
			return sr.WriteString(in)
		})
		r.NoError(err)

		err = c.Unmarshal(data, func(d serde.Deserializer) error {
			got, err := d.ReadString()
			r.NoError(err)
			r.Equal(in, got)
			return nil
		})
		r.NoError(err)
	}
}

func TestParseStringIntMap(t *testing.T) {
	r := require.New(t)

	got := map[string]int64{}
	err := New().Unmarshal([]byte(`{"aa":12}`), func(d serde.Deserializer) error {
		ma, err := d.StartMap()
		if err != nil {
			return err
		}
		var key serde.AnyValue
		for {
			ok, err := ma.Key(&key)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			name, _ := key.Str()
			vd, err := ma.Value()
			if err != nil {
				return err
			}
			v, err := vd.ReadSigned(serde.Width8)
			if err != nil {
				return err
			}
			got[name] = v
		}
		return ma.End()
	})
	r.NoError(err)
	r.Equal(map[string]int64{"aa": 12}, got)
}

func TestReadAny(t *testing.T) {
	r := require.New(t)

	cases := []struct {
		in   string
		want serde.AnyValue
	}{
		{"true", serde.Bool(true)},
		{"123", serde.Signed(123, serde.Width1)},
		{"-123", serde.Signed(-123, serde.Width1)},
		{"12.3", serde.Float(12.3, serde.Width8)},
		{`"abc"`, serde.Str("abc")},
		{"null", serde.Null()},
		{"[1,2]", serde.Seq(serde.Signed(1, serde.Width1), serde.Signed(2, serde.Width1))},
	}
	for _, tc := range cases {
		var got serde.AnyValue
		err := New().Unmarshal([]byte(tc.in), func(d serde.Deserializer) error {
			var err error
			got, err = d.ReadAny()
			return err
		})
		r.NoError(err, "input %q", tc.in)
		r.True(tc.want.Equal(got), "input %q: got %s", tc.in, got)
	}

	var got serde.AnyValue
	err := New().Unmarshal([]byte(`{"a":12}`), func(d serde.Deserializer) error {
		var err error
		got, err = d.ReadAny()
		return err
	})
	r.NoError(err)
	m, ok := got.Map()
	r.True(ok)
	v, ok := m.Get(serde.Str("a"))
	r.True(ok)
	r.True(serde.Signed(12, serde.Width1).Equal(v))
}

func TestReadIgnore(t *testing.T) {
	r := require.New(t)

	in := `{"skip":{"deep":[1,{"x":"]"},3]},"keep":7}`
	var kept int64
	err := New().Unmarshal([]byte(in), func(d serde.Deserializer) error {
		ma, err := d.StartMap()
		if err != nil {
			return err
		}
		var key serde.AnyValue
		for {
			ok, err := ma.Key(&key)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if name, _ := key.Str(); name == "keep" {
				vd, err := ma.Value()
				if err != nil {
					return err
				}
				kept, err = vd.ReadSigned(serde.Width8)
				if err != nil {
					return err
				}
				continue
			}
			if err := ma.IgnoreValue(); err != nil {
				return err
			}
		}
		return ma.End()
	})
	r.NoError(err)
	r.EqualValues(7, kept)
}

func TestTrailingComma(t *testing.T) {
	r := require.New(t)

	read := func(c serde.Codec, in string) error {
		return c.Unmarshal([]byte(in), func(d serde.Deserializer) error {
			return d.ReadIgnore()
		})
	}

	r.NoError(read(New(), `[1,2,]`))
	r.NoError(read(New(), `{"a":1,}`))

	readList := func(c serde.Codec, in string) error {
		return c.Unmarshal([]byte(in), func(d serde.Deserializer) error {
			sa, err := d.StartSeq()
			if err != nil {
				return err
			}
			for {
				ed, ok, err := sa.Element()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				if err := ed.ReadIgnore(); err != nil {
					return err
				}
			}
			return sa.End()
		})
	}
	r.NoError(readList(New(), `[1,2,]`))
	r.Error(readList(New(Strict()), `[1,2,]`))
}

func TestPrettyPrinting(t *testing.T) {
	r := require.New(t)

	data, err := New(Pretty("  ")).Marshal(func(s serde.Serializer) error {
		st, err := s.StartStruct("Point")
		if err != nil {
			return err
		}
		fs, err := st.Field("x")
		if err != nil {
			return err
		}
		if err := fs.WriteSigned(1, serde.Width4); err != nil {
			return err
		}
		fs, err = st.Field("ys")
		if err != nil {
			return err
		}
		seq, err := fs.StartSeq(2)
		if err != nil {
			return err
		}
		for _, v := range []int64{2, 3} {
			es, err := seq.Element()
			if err != nil {
				return err
			}
			if err := es.WriteSigned(v, serde.Width4); err != nil {
				return err
			}
		}
		if err := seq.End(); err != nil {
			return err
		}
		return st.End()
	})
	r.NoError(err)
	r.Equal("{\n  \"x\": 1,\n  \"ys\": [\n    2,\n    3\n  ]\n}", string(data))
}

func TestOptional(t *testing.T) {
	r := require.New(t)
	c := New()

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
	r.Equal("null", string(data))

	err = c.Unmarshal(data, func(d serde.Deserializer) error {
		_, present, err := d.ReadOptional()
		r.NoError(err)
		r.False(present)
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
		if err := vs.WriteString("here"); err != nil {
			return err
		}
		return o.End()
	})
	r.NoError(err)
	err = c.Unmarshal(data, func(d serde.Deserializer) error {
		vd, present, err := d.ReadOptional()
		r.NoError(err)
		r.True(present)
		s, err := vd.ReadString()
		r.NoError(err)
		r.Equal("here", s)
		return nil
	})
	r.NoError(err)
}

func TestRawPassthrough(t *testing.T) {
	r := require.New(t)

	data, err := New().Marshal(func(s serde.Serializer) error {
		seq, err := s.StartSeq(1)
		if err != nil {
			return err
		}
		es, err := seq.Element()
		if err != nil {
			return err
		}
		if err := es.WriteRaw(`{"pre":"formatted"}`); err != nil {
			return err
		}
		return seq.End()
	})
	r.NoError(err)
	r.Equal(`[{"pre":"formatted"}]`, string(data))
}

func TestEnum(t *testing.T) {
	r := require.New(t)
	c := New()
	members := []string{"north", "east", "south", "west"}

	data, err := c.Marshal(func(s serde.Serializer) error {
		return s.WriteEnum("south", 2)
	})
	r.NoError(err)
	r.Equal(`"south"`, string(data))

	for _, in := range []string{`"south"`, `2`} {
		err = c.Unmarshal([]byte(in), func(d serde.Deserializer) error {
			ord, err := d.ReadEnum(members)
			r.NoError(err)
			r.EqualValues(2, ord)
			return nil
		})
		r.NoError(err)
	}

	err = c.Unmarshal([]byte(`"up"`), func(d serde.Deserializer) error {
		_, err := d.ReadEnum(members)
		return err
	})
	r.Error(err)
}

func TestDecoderStream(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	enc := New().NewEncoder(&buf)
	for _, v := range []int64{1, 2, 3} {
		v := v
		r.NoError(enc.Encode(func(s serde.Serializer) error {
			return s.WriteSigned(v, serde.Width8)
		}))
	}

	src := serde.NewSource(New().NewDecoder(&buf), func(d serde.Deserializer) (interface{}, error) {
		return d.ReadSigned(serde.Width8)
	})

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		v, err := src.Next(ctx)
		r.NoError(err)
		r.Equal(want, v)
	}
	_, err := src.Next(ctx)
	r.True(luigi.IsEOS(err), "expected end of stream, got %v", err)
}
