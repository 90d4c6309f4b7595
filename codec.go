package serde

import (
	"io"
)

// Codec produces Serializers and Deserializers for one wire format.
type Codec interface {
	// Marshal runs fn against a fresh Serializer and returns the
	// serialized byte slice.
	Marshal(fn SerializeFunc) ([]byte, error)

	// Unmarshal runs fn against a Deserializer over data. fn must
	// consume exactly one value.
	Unmarshal(data []byte, fn DeserializeFunc) error

	NewDecoder(io.Reader) Decoder
	NewEncoder(io.Writer) Encoder
}

// Decoder reads a stream of documents from one source.
type Decoder interface {
	// Decode consumes the next document. It returns io.EOF when the
	// source is cleanly exhausted.
	Decode(fn DeserializeFunc) error
}

// Encoder writes a stream of documents to one sink.
type Encoder interface {
	Encode(fn SerializeFunc) error
}

// Marshal serializes v with c.
func Marshal(c Codec, v Serializable) ([]byte, error) {
	return c.Marshal(v.Serialize)
}

// Unmarshal deserializes data into v with c.
func Unmarshal(c Codec, data []byte, v Deserializable) error {
	return c.Unmarshal(data, v.Deserialize)
}
