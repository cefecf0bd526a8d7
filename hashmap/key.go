package hashmap

import (
	"github.com/Aashil0828/collections/variant"
	"github.com/go-faster/city"
	"github.com/zeebo/xxh3"
)

// Encode returns the canonical byte encoding of v: the content of a
// string, otherwise the raw byte representation of the value.
// Values without one encode to an empty sequence and all collide.
func Encode(v variant.Variant) []byte {
	if s, ok := v.AsString(); ok {
		return []byte(s)
	}
	b, _ := v.AsBytes()
	return b
}

// Key pairs a host value with its canonical encoding.
// Keys are equal iff their encodings are equal.
type Key struct {
	Value   variant.Variant
	Encoded []byte
	Hash    uint64
}

func NewKey(v variant.Variant, h Hasher) Key {
	enc := Encode(v)
	return Key{Value: v, Encoded: enc, Hash: h.Hash(enc)}
}

func (k Key) Equal(o Key) bool { return string(k.Encoded) == string(o.Encoded) }

// Hasher digests canonical encodings.
type Hasher interface{ Hash([]byte) uint64 }

// CityHasher is the default hasher.
type CityHasher struct{}

func (CityHasher) Hash(b []byte) uint64 { return city.Hash64(b) }

// HasherXXH3 can be used to provide custom seeds.
type HasherXXH3 struct {
	Seed uint64
}

func (h *HasherXXH3) Hash(b []byte) uint64 {
	return xxh3.HashSeed(b, h.Seed)
}

var defaultHasher Hasher = CityHasher{}
