package serde

// NewValueDeserializer returns a Deserializer that reads out of an
// already-materialized AnyValue. The typetag package uses it to replay
// values that had to be buffered during tag resolution.
func NewValueDeserializer(v AnyValue) Deserializer {
	return &valueDeserializer{v: v}
}

type valueDeserializer struct {
	v AnyValue
}

func (d *valueDeserializer) ReadBool() (bool, error) {
	b, ok := d.v.Bool()
	if !ok {
		return false, NewTypeError("bool", d.v.String())
	}
	return b, nil
}

func (d *valueDeserializer) ReadSigned(width Width) (int64, error) {
	i, ok := d.v.Int()
	if !ok {
		return 0, NewTypeError("integer", d.v.String())
	}
	if !FitsSigned(i, width) {
		return 0, NewTypeError("cannot fit integer", d.v.String())
	}
	return i, nil
}

func (d *valueDeserializer) ReadUnsigned(width Width) (uint64, error) {
	u, ok := d.v.Uint()
	if !ok {
		return 0, NewTypeError("unsigned integer", d.v.String())
	}
	if !FitsUnsigned(u, width) {
		return 0, NewTypeError("cannot fit integer", d.v.String())
	}
	return u, nil
}

func (d *valueDeserializer) ReadFloat(Width) (float64, error) {
	if f, ok := d.v.Float(); ok {
		return f, nil
	}
	if i, ok := d.v.Int(); ok {
		return float64(i), nil
	}
	return 0, NewTypeError("float", d.v.String())
}

func (d *valueDeserializer) ReadReal() (float64, error) {
	return d.ReadFloat(Width8)
}

func (d *valueDeserializer) ReadChar() (rune, error) {
	if c, ok := d.v.Char(); ok {
		return c, nil
	}
	// a one-rune string decodes as a char as well
	if s, ok := d.v.Str(); ok {
		rs := []rune(s)
		if len(rs) == 1 {
			return rs[0], nil
		}
	}
	return 0, NewTypeError("char", d.v.String())
}

func (d *valueDeserializer) ReadString() (string, error) {
	if s, ok := d.v.Str(); ok {
		return s, nil
	}
	if c, ok := d.v.Char(); ok {
		return string(c), nil
	}
	return "", NewTypeError("string", d.v.String())
}

func (d *valueDeserializer) ReadEnum(members []string) (uint32, error) {
	return ResolveEnum(d.v, members)
}

func (d *valueDeserializer) ReadOptional() (Deserializer, bool, error) {
	if d.v.IsNull() {
		return nil, false, nil
	}
	return d, true, nil
}

func (d *valueDeserializer) ReadIgnore() error { return nil }

func (d *valueDeserializer) ReadAny() (AnyValue, error) { return d.v, nil }

func (d *valueDeserializer) StartSeq() (SeqAccess, error) {
	items, ok := d.v.Seq()
	if !ok {
		return nil, NewTypeError("seq", d.v.String())
	}
	return &valueSeqAccess{items: items}, nil
}

func (d *valueDeserializer) StartTuple(length int) (SeqAccess, error) {
	items, ok := d.v.Seq()
	if !ok {
		return nil, NewTypeError("tuple", d.v.String())
	}
	if length >= 0 && len(items) != length {
		return nil, NewTypeError("tuple of length "+itoa(length), d.v.String())
	}
	return &valueSeqAccess{items: items}, nil
}

func (d *valueDeserializer) StartMap() (MapAccess, error) {
	m, ok := d.v.Map()
	if !ok {
		return nil, NewTypeError("map", d.v.String())
	}
	return &valueMapAccess{entries: m.Entries()}, nil
}

func (d *valueDeserializer) StartStruct(string, []string) (MapAccess, error) {
	return d.StartMap()
}

type valueSeqAccess struct {
	items []AnyValue
	idx   int
}

func (a *valueSeqAccess) SizeHint() int { return len(a.items) }

func (a *valueSeqAccess) Element() (Deserializer, bool, error) {
	if a.idx >= len(a.items) {
		return nil, false, nil
	}
	d := &valueDeserializer{v: a.items[a.idx]}
	a.idx++
	return d, true, nil
}

func (a *valueSeqAccess) End() error { return nil }

type valueMapAccess struct {
	entries []AnyEntry
	idx     int
	haveKey bool
}

func (a *valueMapAccess) Key(k *AnyValue) (bool, error) {
	if a.idx >= len(a.entries) {
		return false, nil
	}
	*k = a.entries[a.idx].Key
	a.haveKey = true
	return true, nil
}

func (a *valueMapAccess) Value() (Deserializer, error) {
	if !a.haveKey {
		return nil, NewTypeError("map value", "no pending key")
	}
	d := &valueDeserializer{v: a.entries[a.idx].Value}
	a.idx++
	a.haveKey = false
	return d, nil
}

func (a *valueMapAccess) IgnoreValue() error {
	_, err := a.Value()
	return err
}

func (a *valueMapAccess) End() error { return nil }
