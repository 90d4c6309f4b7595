package yaml

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	serde "github.com/Bithero-Agency/serde-go"
)

func TestBooleans(t *testing.T) {
	r := require.New(t)
	c := New()

	cases := map[string]bool{
		"true":  true,
		"trUe":  true,
		"yes":   true,
		"Yes":   true,
		"false": false,
		"no":    false,
		"NO":    false,
	}
	for src, want := range cases {
		err := c.Unmarshal([]byte(src), func(d serde.Deserializer) error {
			v, err := d.ReadBool()
			r.NoError(err, src)
			r.Equal(want, v, src)
			return nil
		})
		r.NoError(err)
	}

	err := c.Unmarshal([]byte("z"), func(d serde.Deserializer) error {
		_, err := d.ReadBool()
		return err
	})
	r.Error(err)
	r.Contains(err.Error(), "boolean")
}

func TestSpecialFloats(t *testing.T) {
	r := require.New(t)
	c := New()

	readFloat := func(src string) float64 {
		var got float64
		err := c.Unmarshal([]byte(src), func(d serde.Deserializer) error {
			v, err := d.ReadFloat(serde.Width8)
			got = v
			return err
		})
		r.NoError(err, src)
		return got
	}

	r.True(math.IsInf(readFloat(".inf"), 1))
	r.True(math.IsInf(readFloat("+.inf"), 1))
	r.True(math.IsInf(readFloat("-.inf"), -1))
	r.True(math.IsNaN(readFloat(".nan")))
	r.Equal(1.5, readFloat("1.5"))
	r.Equal(-0.25, readFloat("-0.25"))

	// the writer uses the same spellings
	data, err := c.Marshal(func(s serde.Serializer) error {
		return s.WriteFloat(math.Inf(-1), serde.Width8)
	})
	r.NoError(err)
	r.Equal("-.inf\n", string(data))
}

func TestIntegerBases(t *testing.T) {
	r := require.New(t)
	c := New()

	readInt := func(src string) int64 {
		var got int64
		err := c.Unmarshal([]byte(src), func(d serde.Deserializer) error {
			v, err := d.ReadSigned(serde.Width8)
			got = v
			return err
		})
		r.NoError(err, src)
		return got
	}

	r.EqualValues(42, readInt("42"))
	r.EqualValues(-3, readInt("-3"))
	r.EqualValues(31, readInt("0x1F"))
	r.EqualValues(15, readInt("0o17"))

	err := c.Unmarshal([]byte("300"), func(d serde.Deserializer) error {
		_, err := d.ReadSigned(serde.Width1)
		return err
	})
	r.Error(err)
	r.Contains(err.Error(), "cannot fit integer")
}

func TestBlockScalarChomping(t *testing.T) {
	r := require.New(t)
	c := New()

	cases := []struct {
		src  string
		want string
	}{
		{"|\n  a\n  b\n  \n", "a\nb\n"},
		{"|-\n  a\n  b\n  \n", "a\nb"},
		{"|+\n  a\n  b\n  \n", "a\nb\n\n"},
		{">\n  a\n  b\n", "a b\n"},
	}
	for _, tc := range cases {
		err := c.Unmarshal([]byte(tc.src), func(d serde.Deserializer) error {
			v, err := d.ReadString()
			r.NoError(err, "%q", tc.src)
			r.Equal(tc.want, v, "%q", tc.src)
			return nil
		})
		r.NoError(err)
	}
}

func TestFoldedParagraphs(t *testing.T) {
	r := require.New(t)
	c := New()

	// a single break folds to a space, a run of n breaks keeps n-1
	err := c.Unmarshal([]byte(">\n  a\n  b\n\n  c\n"), func(d serde.Deserializer) error {
		v, err := d.ReadString()
		r.NoError(err)
		r.Equal("a b\nc\n", v)
		return nil
	})
	r.NoError(err)
}

func TestExplicitIndentIndicator(t *testing.T) {
	r := require.New(t)
	c := New()

	// with "|2" the content indent is fixed, deeper indentation is
	// part of the text
	err := c.Unmarshal([]byte("|2\n   a\n  b\n"), func(d serde.Deserializer) error {
		v, err := d.ReadString()
		r.NoError(err)
		r.Equal(" a\nb\n", v)
		return nil
	})
	r.NoError(err)
}

func TestBlockSequence(t *testing.T) {
	r := require.New(t)
	c := New()

	var got []int64
	err := c.Unmarshal([]byte("- 1\n- 2\n- 3\n"), func(d serde.Deserializer) error {
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
			v, err := ed.ReadSigned(serde.Width8)
			if err != nil {
				return err
			}
			got = append(got, v)
		}
		return sa.End()
	})
	r.NoError(err)
	r.Equal([]int64{1, 2, 3}, got)
}

func TestBlockMapping(t *testing.T) {
	r := require.New(t)
	c := New()

	got := map[string]int64{}
	err := c.Unmarshal([]byte("aa: 12\nbb: 34\n"), func(d serde.Deserializer) error {
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
			vd, err := ma.Value()
			if err != nil {
				return err
			}
			v, err := vd.ReadSigned(serde.Width8)
			if err != nil {
				return err
			}
			name, _ := key.Str()
			got[name] = v
		}
		return ma.End()
	})
	r.NoError(err)
	r.Equal(map[string]int64{"aa": 12, "bb": 34}, got)
}

func readAnyDoc(t *testing.T, src string, opts ...Option) serde.AnyValue {
	t.Helper()
	var got serde.AnyValue
	err := New(opts...).Unmarshal([]byte(src), func(d serde.Deserializer) error {
		v, err := d.ReadAny()
		got = v
		return err
	})
	require.NoError(t, err, "%q", src)
	return got
}

func TestNestedMapping(t *testing.T) {
	r := require.New(t)

	got := readAnyDoc(t, "outer:\n  inner: 1\nother: 2\n")
	m, ok := got.Map()
	r.True(ok)

	inner, ok := m.Get(serde.Str("outer"))
	r.True(ok)
	im, ok := inner.Map()
	r.True(ok)
	v, ok := im.Get(serde.Str("inner"))
	r.True(ok)
	r.True(v.Equal(serde.Signed(1, serde.Width8)))

	v, ok = m.Get(serde.Str("other"))
	r.True(ok)
	r.True(v.Equal(serde.Signed(2, serde.Width8)))
}

func TestSequenceOfMappings(t *testing.T) {
	r := require.New(t)

	got := readAnyDoc(t, "- a: 1\n  b: 2\n- a: 3\n  b: 4\n")

	entry := func(a, b int64) serde.AnyValue {
		m := serde.NewAnyMap()
		m.Set(serde.Str("a"), serde.Signed(a, serde.Width8))
		m.Set(serde.Str("b"), serde.Signed(b, serde.Width8))
		return serde.Map(m)
	}
	want := serde.Seq(entry(1, 2), entry(3, 4))
	r.True(want.Equal(got), "got %s", got)
}

func TestIndentMismatch(t *testing.T) {
	r := require.New(t)
	c := New()

	err := c.Unmarshal([]byte("a: 1\n  b: 2\n"), func(d serde.Deserializer) error {
		_, err := d.ReadAny()
		return err
	})
	r.Error(err)

	err = c.Unmarshal([]byte("- 1\n  - 2\n"), func(d serde.Deserializer) error {
		_, err := d.ReadAny()
		return err
	})
	r.Error(err)
}

func TestFlowCollections(t *testing.T) {
	r := require.New(t)

	got := readAnyDoc(t, "[1, 2, 3]")
	want := serde.Seq(
		serde.Signed(1, serde.Width1),
		serde.Signed(2, serde.Width1),
		serde.Signed(3, serde.Width1),
	)
	r.True(want.Equal(got), "got %s", got)

	// trailing comma
	got = readAnyDoc(t, "[1, 2,]")
	want = serde.Seq(serde.Signed(1, serde.Width1), serde.Signed(2, serde.Width1))
	r.True(want.Equal(got), "got %s", got)

	got = readAnyDoc(t, "{a: 1, b: yes}")
	m := serde.NewAnyMap()
	m.Set(serde.Str("a"), serde.Signed(1, serde.Width1))
	m.Set(serde.Str("b"), serde.Bool(true))
	r.True(serde.Map(m).Equal(got), "got %s", got)

	got = readAnyDoc(t, "[[1], {k: v}]")
	items, ok := got.Seq()
	r.True(ok)
	r.Len(items, 2)
	r.Equal(serde.KindSeq, items[0].Kind())
	r.Equal(serde.KindMap, items[1].Kind())
}

func TestQuotedScalars(t *testing.T) {
	r := require.New(t)
	c := New()

	readString := func(src string) string {
		var got string
		err := c.Unmarshal([]byte(src), func(d serde.Deserializer) error {
			v, err := d.ReadString()
			got = v
			return err
		})
		r.NoError(err, "%q", src)
		return got
	}

	r.Equal("a\nb", readString(`"a\nb"`))
	r.Equal("A", readString(`"\u0041"`))
	r.Equal("hello #world", readString("'hello #world'"))
	r.Equal(`c:\dir`, readString(`'c:\dir'`))

	// only the Basic Latin range is escapable
	err := c.Unmarshal([]byte(`"\u1234"`), func(d serde.Deserializer) error {
		_, err := d.ReadString()
		return err
	})
	r.Error(err)

	// quoting shields the plain special forms
	got := readAnyDoc(t, `"yes"`)
	r.True(serde.Str("yes").Equal(got))
}

func TestTags(t *testing.T) {
	r := require.New(t)
	c := New()

	// tags are parsed and dropped, never applied
	err := c.Unmarshal([]byte("!!str 123"), func(d serde.Deserializer) error {
		v, err := d.ReadString()
		r.NoError(err)
		r.Equal("123", v)
		return nil
	})
	r.NoError(err)

	got := readAnyDoc(t, "!!float 5")
	r.True(serde.Signed(5, serde.Width1).Equal(got))

	err = c.Unmarshal([]byte("!<tag:example.com,2000:x> hi"), func(d serde.Deserializer) error {
		v, err := d.ReadString()
		r.NoError(err)
		r.Equal("hi", v)
		return nil
	})
	r.NoError(err)

	// named handles must be registered
	err = c.Unmarshal([]byte("!e!foo bar"), func(d serde.Deserializer) error {
		_, err := d.ReadString()
		return err
	})
	r.Error(err)

	withHandle := New(RegisterHandle("!e!", "tag:example.com,2000:"))
	err = withHandle.Unmarshal([]byte("!e!foo bar"), func(d serde.Deserializer) error {
		v, err := d.ReadString()
		r.NoError(err)
		r.Equal("bar", v)
		return nil
	})
	r.NoError(err)
}

func TestStringRoundTrip(t *testing.T) {
	r := require.New(t)
	c := New()

	cases := []string{
		"hello",
		"",
		`with "quotes" and \backslashes\`,
		"a\nb\nc\n",
		"a\nb",
		"a\n\n",
		"tab\there",
		"yes",
		"123",
		"- not a sequence",
		"key: value",
		"trailing space ",
	}
	for _, want := range cases {
		data, err := c.Marshal(func(s serde.Serializer) error {
			return s.WriteString(want)
		})
		r.NoError(err, "%q", want)

		err = c.Unmarshal(data, func(d serde.Deserializer) error {
			v, err := d.ReadString()
			r.NoError(err, "%q via %q", want, data)
			r.Equal(want, v, "%q via %q", want, data)
			return nil
		})
		r.NoError(err)
	}
}

func TestWriterShape(t *testing.T) {
	r := require.New(t)
	c := New()

	data, err := c.Marshal(func(s serde.Serializer) error {
		st, err := s.StartStruct("point")
		if err != nil {
			return err
		}
		f, err := st.Field("x")
		if err != nil {
			return err
		}
		if err := f.WriteSigned(1, serde.Width4); err != nil {
			return err
		}
		f, err = st.Field("ys")
		if err != nil {
			return err
		}
		seq, err := f.StartSeq(2)
		if err != nil {
			return err
		}
		for _, v := range []int64{2, 3} {
			e, err := seq.Element()
			if err != nil {
				return err
			}
			if err := e.WriteSigned(v, serde.Width4); err != nil {
				return err
			}
		}
		if err := seq.End(); err != nil {
			return err
		}
		return st.End()
	})
	r.NoError(err)
	r.Equal("x: 1\nys:\n  - 2\n  - 3\n", string(data))

	// empty collections have no block spelling
	data, err = c.Marshal(func(s serde.Serializer) error {
		seq, err := s.StartSeq(0)
		if err != nil {
			return err
		}
		return seq.End()
	})
	r.NoError(err)
	r.Equal("[]\n", string(data))
}

func TestOptional(t *testing.T) {
	r := require.New(t)
	c := New()

	for _, src := range []string{"~", "null", "Null"} {
		err := c.Unmarshal([]byte(src), func(d serde.Deserializer) error {
			_, ok, err := d.ReadOptional()
			r.NoError(err, src)
			if src == "Null" {
				// only the canonical spellings mark absence here,
				// anything else is a present value
				r.True(ok, src)
				return d.ReadIgnore()
			}
			r.False(ok, src)
			return nil
		})
		r.NoError(err)
	}

	err := c.Unmarshal([]byte("5"), func(d serde.Deserializer) error {
		vd, ok, err := d.ReadOptional()
		r.NoError(err)
		r.True(ok)
		v, err := vd.ReadSigned(serde.Width1)
		r.NoError(err)
		r.EqualValues(5, v)
		return nil
	})
	r.NoError(err)

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
	r.Equal("null\n", string(data))
}

func TestEnum(t *testing.T) {
	r := require.New(t)
	c := New()
	members := []string{"north", "east", "south", "west"}

	for src, want := range map[string]uint32{"south": 2, "2": 2, "west": 3} {
		err := c.Unmarshal([]byte(src), func(d serde.Deserializer) error {
			v, err := d.ReadEnum(members)
			r.NoError(err, src)
			r.Equal(want, v, src)
			return nil
		})
		r.NoError(err)
	}

	err := c.Unmarshal([]byte("up"), func(d serde.Deserializer) error {
		_, err := d.ReadEnum(members)
		return err
	})
	r.Error(err)
}

func TestComments(t *testing.T) {
	r := require.New(t)

	got := readAnyDoc(t, "# heading\na: 1 # trailing\n# between\nb: 2\n")
	m := serde.NewAnyMap()
	m.Set(serde.Str("a"), serde.Signed(1, serde.Width1))
	m.Set(serde.Str("b"), serde.Signed(2, serde.Width1))
	r.True(serde.Map(m).Equal(got), "got %s", got)
}

func TestDocumentStream(t *testing.T) {
	r := require.New(t)
	c := New()

	writeDoc := func(e serde.Encoder, key string, v int64) {
		err := e.Encode(func(s serde.Serializer) error {
			st, err := s.StartStruct("doc")
			if err != nil {
				return err
			}
			f, err := st.Field(key)
			if err != nil {
				return err
			}
			if err := f.WriteSigned(v, serde.Width8); err != nil {
				return err
			}
			return st.End()
		})
		r.NoError(err)
	}

	var buf bytes.Buffer
	enc := c.NewEncoder(&buf)
	writeDoc(enc, "a", 1)
	writeDoc(enc, "b", 2)
	r.Equal("a: 1\n---\nb: 2\n", buf.String())

	dec := c.NewDecoder(&buf)
	var docs []serde.AnyValue
	for {
		err := dec.Decode(func(d serde.Deserializer) error {
			v, err := d.ReadAny()
			if err != nil {
				return err
			}
			docs = append(docs, v)
			return nil
		})
		if err == io.EOF {
			break
		}
		r.NoError(err)
	}
	r.Len(docs, 2)

	first, ok := docs[0].Map()
	r.True(ok)
	one, ok := first.Get(serde.Str("a"))
	r.True(ok)
	r.True(one.Equal(serde.Signed(1, serde.Width8)))

	second, ok := docs[1].Map()
	r.True(ok)
	two, ok := second.Get(serde.Str("b"))
	r.True(ok)
	r.True(two.Equal(serde.Signed(2, serde.Width8)))
}
