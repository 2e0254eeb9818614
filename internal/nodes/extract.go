package nodes

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

// Extract is the structural identity of a node: its kind, value and the
// extracts of its children. Two nodes with equal extracts are
// interchangeable regardless of source position.
type Extract struct {
	Kind       string
	Value      any
	Complexity int
	Children   []Extract

	// key is the node's own encoding followed by the 128-bit hashes of its
	// children, so its size does not grow with depth.
	key  string
	sum  xxh3.Uint128
	hash uint64
}

func newExtract(kind string, value any, children []Node) Extract {
	e := Extract{Kind: kind, Value: value, Complexity: 1}
	if len(children) > 0 {
		e.Children = make([]Extract, len(children))
	}
	for i, c := range children {
		e.Children[i] = c.Extract()
		e.Complexity += e.Children[i].Complexity
	}

	own, err := msgpack.Marshal([]any{kind, value, len(children)})
	if err != nil {
		// Values are normalized to msgpack-native types before they get here.
		panic(fmt.Sprintf("nodes: cannot encode %s extract: %v", kind, err))
	}
	key := make([]byte, 0, len(own)+16*len(children))
	key = append(key, own...)
	for _, ce := range e.Children {
		sum := ce.sum.Bytes()
		key = append(key, sum[:]...)
	}
	e.key = string(key)
	e.sum = xxh3.Hash128(key)
	e.hash = xxh3.Hash(key)
	return e
}

// Key returns a compact encoding of the extract, usable as a map key.
// Distinct trees share a key only when a child hash collides; Equal tells
// them apart.
func (e Extract) Key() string { return e.key }

// Hash returns a 64-bit hash of the key.
func (e Extract) Hash() uint64 { return e.hash }

// String returns the hash in hex, for logs.
func (e Extract) String() string {
	return fmt.Sprintf("%s:%016x", e.Kind, e.hash)
}

// Equal reports structural equality of two nodes.
func Equal(a, b Node) bool {
	return sameExtract(a.Extract(), b.Extract())
}

func sameExtract(a, b Extract) bool {
	if a.key != b.key || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameExtract(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// normalize maps literal values to msgpack-native, location-preserving forms.
func normalize(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano) + " " + x.Location().String()
	case uuid.UUID:
		return x.String()
	case orb.Point:
		return wkt.MarshalString(x)
	case orb.Polygon:
		return wkt.MarshalString(x)
	}
	return v
}
