package serde

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/ssbc/go-luigi"
)

// DecodeValueFunc consumes exactly one value from d and returns its
// in-memory form.
type DecodeValueFunc func(d Deserializer) (interface{}, error)

// NewSource drains dec as a luigi.Source: each Next decodes one
// document with fn, and a cleanly exhausted source yields luigi.EOS.
func NewSource(dec Decoder, fn DecodeValueFunc) luigi.Source {
	return &decodeSource{dec: dec, fn: fn}
}

type decodeSource struct {
	dec Decoder
	fn  DecodeValueFunc
}

func (src *decodeSource) Next(ctx context.Context) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var v interface{}
	err := src.dec.Decode(func(d Deserializer) error {
		var err error
		v, err = src.fn(d)
		return err
	})
	if errors.Cause(err) == io.EOF {
		return nil, luigi.EOS{}
	}
	if err != nil {
		return nil, errors.Wrap(err, "serde: failed to decode next document")
	}

	return v, nil
}
