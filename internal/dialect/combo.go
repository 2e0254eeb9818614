// Package dialect implements dialect identity, version ordering and the
// combo algebra used to resolve per-dialect behavior by specificity.
package dialect

import (
	"math/bits"
	"strings"
)

// MaxDialects is the number of distinct dialect bits a process can register.
const MaxDialects = 256

const words = MaxDialects / 64

// Combo is a set of concrete dialects (family/version pairs).
type Combo struct {
	bits [words]uint64
}

// Empty returns a combo matching nothing.
func Empty() Combo {
	return Combo{}
}

// Any returns the combo containing every possible dialect.
func Any() Combo {
	var c Combo
	for i := range c.bits {
		c.bits[i] = ^uint64(0)
	}
	return c
}

func bit(i int) Combo {
	var c Combo
	c.bits[i/64] = 1 << (uint(i) % 64)
	return c
}

// Union returns c ∪ other.
func (c Combo) Union(other Combo) Combo {
	for i := range c.bits {
		c.bits[i] |= other.bits[i]
	}
	return c
}

// Intersect returns c ∩ other.
func (c Combo) Intersect(other Combo) Combo {
	for i := range c.bits {
		c.bits[i] &= other.bits[i]
	}
	return c
}

// Difference returns c \ other.
func (c Combo) Difference(other Combo) Combo {
	for i := range c.bits {
		c.bits[i] &^= other.bits[i]
	}
	return c
}

// Contains reports whether c ⊇ other.
func (c Combo) Contains(other Combo) bool {
	for i := range c.bits {
		if other.bits[i]&^c.bits[i] != 0 {
			return false
		}
	}
	return true
}

// Matches reports whether a variant registered for c can serve requested.
// An empty request matches nothing.
func (c Combo) Matches(requested Combo) bool {
	return !requested.IsEmpty() && c.Contains(requested)
}

// Overlaps reports whether c and other share at least one dialect.
func (c Combo) Overlaps(other Combo) bool {
	return !c.Intersect(other).IsEmpty()
}

// IsEmpty reports whether c contains no dialects.
func (c Combo) IsEmpty() bool {
	for _, w := range c.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// IsAny reports whether c is the full combo.
func (c Combo) IsAny() bool {
	return c == Any()
}

// Ambiguity ranks combos for resolution. Lower is more specific.
func (c Combo) Ambiguity() int {
	n := 0
	for _, w := range c.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Each calls fn for every dialect bit set in c, in ascending order.
func (c Combo) Each(fn func(Combo)) {
	for i, w := range c.bits {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(bit(i*64 + b))
			w &^= 1 << uint(b)
		}
	}
}

// String renders the combo using registered dialect names.
func (c Combo) String() string {
	switch {
	case c.IsEmpty():
		return "EMPTY"
	case c.IsAny():
		return "ANY"
	}

	var names []string
	for _, f := range Families() {
		if c.Contains(f.All()) {
			names = append(names, f.Name()+"_ALL")
			continue
		}
		for _, d := range f.dialects() {
			if c.Contains(d.combo) {
				names = append(names, d.name)
			}
		}
	}
	if len(names) == 0 {
		return "UNREGISTERED"
	}
	return strings.Join(names, "|")
}
