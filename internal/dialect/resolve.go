package dialect

import (
	"fmt"
	"sort"
)

// NoMatchError is returned when no candidate combo contains the requested one.
// It signals a coverage gap in the registered candidates, never a user error.
type NoMatchError struct {
	Requested Combo
	What      string
}

func (e NoMatchError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("no matching dialect for %s", e.Requested)
	}
	return fmt.Sprintf("no %s registered for dialect %s", e.What, e.Requested)
}

// TieError is returned when two equally specific candidates could both serve
// the same request.
type TieError struct {
	First, Second Combo
	What          string
}

func (e TieError) Error() string {
	return fmt.Sprintf("ambiguous %s registration: %s and %s are equally specific and overlap",
		e.What, e.First, e.Second)
}

// Candidate pairs a combo with the value it selects.
type Candidate[T any] struct {
	Dialects Combo
	Value    T
}

// Sort orders candidates by ascending ambiguity, keeping registration order
// among equals.
func Sort[T any](cs []Candidate[T]) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Dialects.Ambiguity() < cs[j].Dialects.Ambiguity()
	})
}

// Resolve returns the first candidate, in ascending ambiguity, whose combo
// contains requested. Candidates must already be sorted.
func Resolve[T any](requested Combo, cs []Candidate[T]) (T, error) {
	for _, c := range cs {
		if c.Dialects.Matches(requested) {
			return c.Value, nil
		}
	}
	var zero T
	return zero, NoMatchError{Requested: requested}
}

// CheckTies reports the first pair of candidates that are equally specific,
// overlap, and are not both shadowed by a strictly more specific candidate
// covering their whole intersection.
func CheckTies(combos []Combo, what string) error {
	for i := 0; i < len(combos); i++ {
		for j := i + 1; j < len(combos); j++ {
			a, b := combos[i], combos[j]
			if a.Ambiguity() != b.Ambiguity() {
				continue
			}
			shared := a.Intersect(b)
			if shared.IsEmpty() || shadowed(shared, a.Ambiguity(), combos) {
				continue
			}
			return TieError{First: a, Second: b, What: what}
		}
	}
	return nil
}

func shadowed(shared Combo, ambiguity int, combos []Combo) bool {
	for _, c := range combos {
		if c.Ambiguity() < ambiguity && c.Contains(shared) {
			return true
		}
	}
	return false
}

// Table is a per-dialect strategy table. Add is only valid before Seal;
// after Seal the table is read-only and safe for concurrent Resolve.
type Table[T any] struct {
	what       string
	candidates []Candidate[T]
	sealed     bool
}

// NewTable creates an empty table. what names the strategy in errors.
func NewTable[T any](what string) *Table[T] {
	return &Table[T]{what: what}
}

// Add registers value for combo.
func (t *Table[T]) Add(combo Combo, value T) error {
	if t.sealed {
		return fmt.Errorf("%s table is sealed", t.what)
	}
	if combo.IsEmpty() {
		return fmt.Errorf("%s registered for an empty dialect combo", t.what)
	}
	t.candidates = append(t.candidates, Candidate[T]{Dialects: combo, Value: value})
	return nil
}

// Seal sorts the candidates and rejects ties.
func (t *Table[T]) Seal() error {
	if t.sealed {
		return nil
	}
	Sort(t.candidates)
	combos := make([]Combo, len(t.candidates))
	for i, c := range t.candidates {
		combos[i] = c.Dialects
	}
	if err := CheckTies(combos, t.what); err != nil {
		return err
	}
	t.sealed = true
	return nil
}

// Resolve returns the most specific value registered for requested.
func (t *Table[T]) Resolve(requested Combo) (T, error) {
	v, err := Resolve(requested, t.candidates)
	if err != nil {
		return v, NoMatchError{Requested: requested, What: t.what}
	}
	return v, nil
}

// Len returns the number of registered candidates.
func (t *Table[T]) Len() int { return len(t.candidates) }
