// Package typetag implements polymorphic serialization: values of an
// open type family carry a string tag on the wire, and a registry
// maps the tag back to a decode routine. Four wire layouts are
// supported, mirroring the usual tagging strategies: internal (tag as
// a sibling field), external (single-key map), adjacent (tag and
// value under separate keys) and tuple ([tag, value]).
package typetag // import "github.com/Bithero-Agency/serde-go/typetag"

import (
	"sync"

	serde "github.com/Bithero-Agency/serde-go"
)

// DecodeFunc decodes one tagged value from d. For the map-shaped
// strategies d only answers StartStruct/StartMap, the tuple strategy
// hands out the codec's deserializer directly.
type DecodeFunc func(d serde.Deserializer) (interface{}, error)

// Taggable is a value that can serialize under a type tag. The tag
// names the concrete type inside its base family, SerializeFields
// writes the payload into an already opened struct.
type Taggable interface {
	TypetagName() string
	SerializeFields(serde.StructSerializer) error
}

// Registry maps (base, tag) pairs to decode routines. Register all
// decoders up front: registration takes a lock, lookups do not and
// must not race with it.
type Registry struct {
	mu    sync.Mutex
	bases map[string]map[string]DecodeFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bases: make(map[string]map[string]DecodeFunc)}
}

// Register adds a decode routine for tag within the base family,
// replacing an earlier registration of the same pair.
func (r *Registry) Register(base, tag string, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tags, ok := r.bases[base]
	if !ok {
		tags = make(map[string]DecodeFunc)
		r.bases[base] = tags
	}
	tags[tag] = fn
}

func (r *Registry) lookup(base, tag string) (DecodeFunc, bool) {
	fn, ok := r.bases[base][tag]
	return fn, ok
}
