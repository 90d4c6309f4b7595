package serde

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnyValueEqual(t *testing.T) {
	r := require.New(t)

	// integer widths and signedness do not matter, only the number
	r.True(Signed(42, Width1).Equal(Signed(42, Width8)))
	r.True(Signed(42, Width4).Equal(Unsigned(42, Width2)))
	r.False(Signed(-1, Width8).Equal(Unsigned(1<<63, Width8)))

	r.True(Str("a").Equal(Str("a")))
	r.False(Str("a").Equal(Char('a')))
	r.True(Null().Equal(Null()))
	r.False(Null().Equal(Bool(false)))

	r.True(Seq(Bool(true), Null()).Equal(Seq(Bool(true), Null())))
	r.False(Seq(Bool(true)).Equal(Seq(Bool(true), Null())))

	a := NewAnyMap()
	a.Set(Str("k"), Signed(1, Width1))
	b := NewAnyMap()
	b.Set(Str("k"), Signed(1, Width8))
	r.True(Map(a).Equal(Map(b)))
}

func TestAnyMapSetOverwrites(t *testing.T) {
	r := require.New(t)

	m := NewAnyMap()
	m.Set(Str("a"), Signed(1, Width1))
	m.Set(Str("b"), Signed(2, Width1))
	m.Set(Str("a"), Signed(3, Width1))

	r.Equal(2, m.Len())
	v, ok := m.Get(Str("a"))
	r.True(ok)
	r.True(v.Equal(Signed(3, Width1)))

	// overwriting keeps the original position
	entries := m.Entries()
	k, _ := entries[0].Key.Str()
	r.Equal("a", k)

	// only structurally equal keys match
	_, ok = m.Get(Str("c"))
	r.False(ok)
}

func TestValueDeserializer(t *testing.T) {
	r := require.New(t)

	m := NewAnyMap()
	m.Set(Str("name"), Str("gopher"))
	m.Set(Str("count"), Signed(3, Width1))
	src := Map(m)

	d := NewValueDeserializer(src)
	ma, err := d.StartMap()
	r.NoError(err)

	got := map[string]AnyValue{}
	var key AnyValue
	for {
		ok, err := ma.Key(&key)
		r.NoError(err)
		if !ok {
			break
		}
		vd, err := ma.Value()
		r.NoError(err)
		v, err := vd.ReadAny()
		r.NoError(err)
		name, _ := key.Str()
		got[name] = v
	}
	r.NoError(ma.End())

	r.Len(got, 2)
	r.True(got["name"].Equal(Str("gopher")))
	r.True(got["count"].Equal(Signed(3, Width8)))
}

func TestValueSerializeReplay(t *testing.T) {
	r := require.New(t)

	m := NewAnyMap()
	m.Set(Str("ok"), Bool(true))
	m.Set(Str("items"), Seq(Signed(1, Width1), Str("two")))
	src := Map(m)

	// replaying into a value deserializer must reproduce the value
	var sink recordingSerializer
	r.NoError(src.Serialize(&sink))
	r.True(src.Equal(sink.result()))
}

// recordingSerializer rebuilds the value it is driven with.
type recordingSerializer struct {
	values []AnyValue
}

func (s *recordingSerializer) result() AnyValue {
	if len(s.values) != 1 {
		return AnyValue{}
	}
	return s.values[0]
}

func (s *recordingSerializer) push(v AnyValue) error {
	s.values = append(s.values, v)
	return nil
}

func (s *recordingSerializer) WriteNull() error { return s.push(Null()) }

func (s *recordingSerializer) WriteBool(v bool) error { return s.push(Bool(v)) }

func (s *recordingSerializer) WriteSigned(v int64, w Width) error { return s.push(Signed(v, w)) }

func (s *recordingSerializer) WriteUnsigned(v uint64, w Width) error {
	return s.push(Unsigned(v, w))
}

func (s *recordingSerializer) WriteFloat(v float64, w Width) error { return s.push(Float(v, w)) }

func (s *recordingSerializer) WriteReal(v float64) error { return s.push(Real(v)) }

func (s *recordingSerializer) WriteChar(v rune) error { return s.push(Char(v)) }

func (s *recordingSerializer) WriteString(v string) error { return s.push(Str(v)) }

func (s *recordingSerializer) WriteRaw(v string) error { return s.push(Str(v)) }

func (s *recordingSerializer) WriteEnum(name string, _ uint32) error { return s.push(Str(name)) }

func (s *recordingSerializer) StartOptional() (OptionalSerializer, error) {
	return recordingOptional{s: s}, nil
}

func (s *recordingSerializer) StartSeq(int) (SeqSerializer, error) {
	return &recordingSeq{parent: s}, nil
}

func (s *recordingSerializer) StartTuple(length int) (SeqSerializer, error) {
	return s.StartSeq(length)
}

func (s *recordingSerializer) StartMap(int) (MapSerializer, error) {
	return &recordingMap{parent: s, m: NewAnyMap()}, nil
}

func (s *recordingSerializer) StartStruct(string) (StructSerializer, error) {
	return &recordingStruct{m: recordingMap{parent: s, m: NewAnyMap()}}, nil
}

type recordingOptional struct {
	s *recordingSerializer
}

func (o recordingOptional) Some() (Serializer, error) { return o.s, nil }

func (o recordingOptional) None() error { return o.s.push(Null()) }

func (o recordingOptional) End() error { return nil }

type recordingSeq struct {
	parent *recordingSerializer
	sub    recordingSerializer
}

func (s *recordingSeq) Element() (Serializer, error) { return &s.sub, nil }

func (s *recordingSeq) End() error { return s.parent.push(Seq(s.sub.values...)) }

type recordingMap struct {
	parent *recordingSerializer
	m      *AnyMap
	sub    recordingSerializer
}

func (s *recordingMap) Key() (Serializer, error) { return &s.sub, nil }

func (s *recordingMap) Value() (Serializer, error) { return &s.sub, nil }

func (s *recordingMap) End() error {
	for i := 0; i+1 < len(s.sub.values); i += 2 {
		s.m.Set(s.sub.values[i], s.sub.values[i+1])
	}
	return s.parent.push(Map(s.m))
}

type recordingStruct struct {
	m recordingMap
}

func (s *recordingStruct) Field(name string) (Serializer, error) {
	s.m.sub.values = append(s.m.sub.values, Str(name))
	return &s.m.sub, nil
}

func (s *recordingStruct) End() error { return s.m.End() }
