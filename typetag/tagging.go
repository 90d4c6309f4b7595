package typetag

import (
	serde "github.com/Bithero-Agency/serde-go"
)

// Internal tags a value by injecting the tag as an extra field next
// to the payload fields: {tagKey: tag, ...fields}.
type Internal struct {
	Registry *Registry
	Base     string
	TagKey   string
}

func (t Internal) Serialize(s serde.Serializer, v Taggable) error {
	st, err := s.StartStruct(t.Base)
	if err != nil {
		return err
	}
	f, err := st.Field(t.TagKey)
	if err != nil {
		return err
	}
	if err := f.WriteString(v.TypetagName()); err != nil {
		return err
	}
	if err := v.SerializeFields(st); err != nil {
		return err
	}
	return st.End()
}

// Deserialize scans the map for the tag key. Fields seen before the
// tag are buffered as values and replayed to the decode routine in
// their original order, ahead of the not yet consumed rest.
func (t Internal) Deserialize(d serde.Deserializer) (interface{}, error) {
	ma, err := d.StartMap()
	if err != nil {
		return nil, err
	}

	var buffered []serde.AnyEntry
	var key serde.AnyValue
	for {
		ok, err := ma.Key(&key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &MissingTagError{Base: t.Base, Key: t.TagKey}
		}
		if name, isStr := key.Str(); isStr && name == t.TagKey {
			vd, err := ma.Value()
			if err != nil {
				return nil, err
			}
			tag, err := vd.ReadString()
			if err != nil {
				return nil, err
			}
			fn, ok := t.Registry.lookup(t.Base, tag)
			if !ok {
				return nil, &UnknownTagError{Base: t.Base, Tag: tag}
			}
			return fn(&structDeserializer{access: &replayMapAccess{
				buffered: buffered,
				live:     ma,
			}})
		}

		vd, err := ma.Value()
		if err != nil {
			return nil, err
		}
		v, err := vd.ReadAny()
		if err != nil {
			return nil, err
		}
		buffered = append(buffered, serde.AnyEntry{Key: key, Value: v})
	}
}

// External nests the value under its tag: {tag: value}.
type External struct {
	Registry *Registry
	Base     string
}

func (t External) Serialize(s serde.Serializer, v Taggable) error {
	m, err := s.StartMap(1)
	if err != nil {
		return err
	}
	k, err := m.Key()
	if err != nil {
		return err
	}
	if err := k.WriteString(v.TypetagName()); err != nil {
		return err
	}
	vs, err := m.Value()
	if err != nil {
		return err
	}
	if err := serializeFields(vs, v); err != nil {
		return err
	}
	return m.End()
}

func (t External) Deserialize(d serde.Deserializer) (interface{}, error) {
	ma, err := d.StartMap()
	if err != nil {
		return nil, err
	}
	var key serde.AnyValue
	ok, err := ma.Key(&key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingTagError{Base: t.Base, Key: "<tag>"}
	}
	tag, isStr := key.Str()
	if !isStr {
		return nil, &ShapeError{Base: t.Base, Expected: "string tag key", Found: key.String()}
	}
	fn, found := t.Registry.lookup(t.Base, tag)
	if !found {
		return nil, &UnknownTagError{Base: t.Base, Tag: tag}
	}
	vd, err := ma.Value()
	if err != nil {
		return nil, err
	}
	out, err := fn(vd)
	if err != nil {
		return nil, err
	}
	if ok, err := ma.Key(&key); err != nil {
		return nil, err
	} else if ok {
		return nil, &ShapeError{Base: t.Base, Expected: "single-key map", Found: "second key " + key.String()}
	}
	return out, ma.End()
}

// Adjacent puts tag and value under two sibling keys:
// {tagKey: tag, valueKey: value}. Either order is accepted on the
// way in; the value is buffered when it precedes the tag.
type Adjacent struct {
	Registry *Registry
	Base     string
	TagKey   string
	ValueKey string
}

func (t Adjacent) Serialize(s serde.Serializer, v Taggable) error {
	st, err := s.StartStruct(t.Base)
	if err != nil {
		return err
	}
	f, err := st.Field(t.TagKey)
	if err != nil {
		return err
	}
	if err := f.WriteString(v.TypetagName()); err != nil {
		return err
	}
	f, err = st.Field(t.ValueKey)
	if err != nil {
		return err
	}
	if err := serializeFields(f, v); err != nil {
		return err
	}
	return st.End()
}

func (t Adjacent) Deserialize(d serde.Deserializer) (interface{}, error) {
	ma, err := d.StartMap()
	if err != nil {
		return nil, err
	}

	var (
		tag       string
		haveTag   bool
		out       interface{}
		haveValue bool
		buffered  *serde.AnyValue
		key       serde.AnyValue
	)
	for {
		ok, err := ma.Key(&key)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		name, isStr := key.Str()
		switch {
		case isStr && name == t.TagKey:
			vd, err := ma.Value()
			if err != nil {
				return nil, err
			}
			if tag, err = vd.ReadString(); err != nil {
				return nil, err
			}
			haveTag = true
		case isStr && name == t.ValueKey:
			vd, err := ma.Value()
			if err != nil {
				return nil, err
			}
			if haveTag {
				fn, found := t.Registry.lookup(t.Base, tag)
				if !found {
					return nil, &UnknownTagError{Base: t.Base, Tag: tag}
				}
				if out, err = fn(vd); err != nil {
					return nil, err
				}
				haveValue = true
			} else {
				v, err := vd.ReadAny()
				if err != nil {
					return nil, err
				}
				buffered = &v
			}
		default:
			return nil, &ShapeError{
				Base:     t.Base,
				Expected: "keys " + t.TagKey + " and " + t.ValueKey,
				Found:    key.String(),
			}
		}
	}
	if err := ma.End(); err != nil {
		return nil, err
	}

	if !haveTag {
		return nil, &MissingTagError{Base: t.Base, Key: t.TagKey}
	}
	if haveValue {
		return out, nil
	}
	if buffered == nil {
		return nil, &MissingTagError{Base: t.Base, Key: t.ValueKey}
	}
	fn, found := t.Registry.lookup(t.Base, tag)
	if !found {
		return nil, &UnknownTagError{Base: t.Base, Tag: tag}
	}
	return fn(serde.NewValueDeserializer(*buffered))
}

// Tuple encodes the value as a 2-tuple: [tag, value].
type Tuple struct {
	Registry *Registry
	Base     string
}

func (t Tuple) Serialize(s serde.Serializer, v Taggable) error {
	tu, err := s.StartTuple(2)
	if err != nil {
		return err
	}
	e, err := tu.Element()
	if err != nil {
		return err
	}
	if err := e.WriteString(v.TypetagName()); err != nil {
		return err
	}
	e, err = tu.Element()
	if err != nil {
		return err
	}
	if err := serializeFields(e, v); err != nil {
		return err
	}
	return tu.End()
}

func (t Tuple) Deserialize(d serde.Deserializer) (interface{}, error) {
	sa, err := d.StartTuple(2)
	if err != nil {
		return nil, err
	}
	ed, ok, err := sa.Element()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ShapeError{Base: t.Base, Expected: "2-tuple", Found: "empty sequence"}
	}
	tag, err := ed.ReadString()
	if err != nil {
		return nil, err
	}
	fn, found := t.Registry.lookup(t.Base, tag)
	if !found {
		return nil, &UnknownTagError{Base: t.Base, Tag: tag}
	}
	ed, ok, err = sa.Element()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ShapeError{Base: t.Base, Expected: "2-tuple", Found: "1-tuple"}
	}
	out, err := fn(ed)
	if err != nil {
		return nil, err
	}
	return out, sa.End()
}

// serializeFields writes the payload of v as a struct on s.
func serializeFields(s serde.Serializer, v Taggable) error {
	st, err := s.StartStruct(v.TypetagName())
	if err != nil {
		return err
	}
	if err := v.SerializeFields(st); err != nil {
		return err
	}
	return st.End()
}

// replayMapAccess chains buffered entries in front of a live map
// cursor, so a decode routine sees the fields in wire order even
// though some were consumed while hunting for the tag.
type replayMapAccess struct {
	buffered []serde.AnyEntry
	idx      int
	pending  *serde.AnyValue
	live     serde.MapAccess
}

func (a *replayMapAccess) Key(k *serde.AnyValue) (bool, error) {
	if a.idx < len(a.buffered) {
		e := a.buffered[a.idx]
		a.idx++
		*k = e.Key
		v := e.Value
		a.pending = &v
		return true, nil
	}
	return a.live.Key(k)
}

func (a *replayMapAccess) Value() (serde.Deserializer, error) {
	if a.pending != nil {
		v := *a.pending
		a.pending = nil
		return serde.NewValueDeserializer(v), nil
	}
	return a.live.Value()
}

func (a *replayMapAccess) IgnoreValue() error {
	if a.pending != nil {
		a.pending = nil
		return nil
	}
	return a.live.IgnoreValue()
}

func (a *replayMapAccess) End() error {
	a.idx = len(a.buffered)
	a.pending = nil
	return a.live.End()
}

// structDeserializer answers exactly one StartStruct/StartMap with a
// prepared access; a decode routine for a map-shaped strategy cannot
// read anything else.
type structDeserializer struct {
	access serde.MapAccess
	used   bool
}

func (d *structDeserializer) start() (serde.MapAccess, error) {
	if d.used {
		return nil, serde.NewTypeError("single struct read", "second container start")
	}
	d.used = true
	return d.access, nil
}

func (d *structDeserializer) StartMap() (serde.MapAccess, error) { return d.start() }

func (d *structDeserializer) StartStruct(string, []string) (serde.MapAccess, error) {
	return d.start()
}

func (d *structDeserializer) ReadOptional() (serde.Deserializer, bool, error) {
	return d, true, nil
}

func (d *structDeserializer) ReadAny() (serde.AnyValue, error) {
	ma, err := d.start()
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

func (d *structDeserializer) ReadIgnore() error {
	_, err := d.ReadAny()
	return err
}

func (d *structDeserializer) err(expected string) error {
	return serde.NewTypeError(expected, "tagged struct body")
}

func (d *structDeserializer) ReadBool() (bool, error) { return false, d.err("boolean") }

func (d *structDeserializer) ReadSigned(serde.Width) (int64, error) {
	return 0, d.err("integer")
}

func (d *structDeserializer) ReadUnsigned(serde.Width) (uint64, error) {
	return 0, d.err("unsigned integer")
}

func (d *structDeserializer) ReadFloat(serde.Width) (float64, error) {
	return 0, d.err("float")
}

func (d *structDeserializer) ReadReal() (float64, error) { return 0, d.err("real") }

func (d *structDeserializer) ReadChar() (rune, error) { return 0, d.err("char") }

func (d *structDeserializer) ReadString() (string, error) { return "", d.err("string") }

func (d *structDeserializer) ReadEnum([]string) (uint32, error) {
	return 0, d.err("enum")
}

func (d *structDeserializer) StartSeq() (serde.SeqAccess, error) {
	return nil, d.err("sequence")
}

func (d *structDeserializer) StartTuple(int) (serde.SeqAccess, error) {
	return nil, d.err("tuple")
}
