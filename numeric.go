package serde

import "strconv"

// FitsSigned reports whether v is representable in a signed integer
// of the given byte width.
func FitsSigned(v int64, width Width) bool {
	switch width {
	case Width1:
		return v >= -128 && v <= 127
	case Width2:
		return v >= -32768 && v <= 32767
	case Width4:
		return v >= -2147483648 && v <= 2147483647
	default:
		return true
	}
}

// FitsUnsigned reports whether v is representable in an unsigned
// integer of the given byte width.
func FitsUnsigned(v uint64, width Width) bool {
	switch width {
	case Width1:
		return v <= 0xff
	case Width2:
		return v <= 0xffff
	case Width4:
		return v <= 0xffffffff
	default:
		return true
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

// ResolveEnum resolves a decoded discriminant against the member list
// of the target enum. The wire value may be the member name or its
// ordinal.
func ResolveEnum(v AnyValue, members []string) (uint32, error) {
	if name, ok := v.Str(); ok {
		for i, m := range members {
			if m == name {
				return uint32(i), nil
			}
		}
		return 0, NewTypeError("one of "+join(members), strconv.Quote(name))
	}
	if ord, ok := v.Uint(); ok {
		if ord < uint64(len(members)) {
			return uint32(ord), nil
		}
		return 0, NewTypeError("enum ordinal below "+itoa(len(members)), strconv.FormatUint(ord, 10))
	}
	return 0, NewTypeError("enum name or ordinal", v.String())
}

func join(members []string) string {
	out := ""
	for i, m := range members {
		if i > 0 {
			out += ", "
		}
		out += m
	}
	return out
}
