package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zoobzio/formula/internal/dialect"
)

// OverrideKind selects how an override edits the registry.
type OverrideKind int

const (
	// OverrideExclude subtracts dialects from every variant of an operation.
	OverrideExclude OverrideKind = iota
	// OverrideRemove deletes an operation entirely.
	OverrideRemove
	// OverrideReplace excludes dialects, then registers Op for them.
	OverrideReplace
)

func (k OverrideKind) String() string {
	switch k {
	case OverrideExclude:
		return "exclude"
	case OverrideRemove:
		return "remove"
	case OverrideReplace:
		return "replace"
	}
	return fmt.Sprintf("OverrideKind(%d)", int(k))
}

// Override is a connector's edit of the default operations. Overrides apply
// in order after every operation is registered.
type Override struct {
	Kind     OverrideKind
	Name     string
	Arity    Arity
	Dialects dialect.Combo
	Op       BasicOpItem
	Reason   string
}

// Exclude removes an operation for dialects d.
func Exclude(name string, arity Arity, d dialect.Combo, reason string) Override {
	return Override{Kind: OverrideExclude, Name: name, Arity: arity, Dialects: d, Reason: reason}
}

// Remove deletes an operation for every dialect.
func Remove(name string, arity Arity, reason string) Override {
	return Override{Kind: OverrideRemove, Name: name, Arity: arity, Reason: reason}
}

// Replace swaps the variants serving d for those of op.
func Replace(op BasicOpItem, d dialect.Combo, reason string) Override {
	return Override{Kind: OverrideReplace, Name: op.Name, Arity: op.Arity, Dialects: d, Op: op, Reason: reason}
}

// Apply runs overrides in order. The target of each must exist.
func (r *Registry) Apply(source string, overrides ...Override) error {
	for _, o := range overrides {
		id := fmt.Sprintf("%s/%s", o.Name, o.Arity)
		if r.sealed {
			return newError(KindSealed, id, "cannot apply override after seal")
		}
		key := fold(o.Name)
		idx := -1
		for i, op := range r.ops[key] {
			if op.Arity == o.Arity {
				idx = i
				break
			}
		}
		if idx < 0 {
			return newError(KindUnknownOperation, id, "%s override from %s has no target", o.Kind, source)
		}

		switch o.Kind {
		case OverrideRemove:
			items := r.ops[key]
			r.ops[key] = append(items[:idx:idx], items[idx+1:]...)
			if len(r.ops[key]) == 0 {
				delete(r.ops, key)
			}
		case OverrideExclude:
			r.ops[key][idx].exclude(o.Dialects)
		case OverrideReplace:
			r.ops[key][idx].exclude(o.Dialects)
			if err := r.register(o.Op); err != nil {
				return err
			}
		default:
			return newError(KindInvalid, id, "unknown override kind %d", int(o.Kind))
		}

		r.log.WithFields(logrus.Fields{
			"source":   source,
			"op":       id,
			"override": o.Kind.String(),
			"dialects": o.Dialects.String(),
		}).Debug(o.Reason)
	}
	return nil
}

func (op *BasicOpItem) exclude(d dialect.Combo) {
	kept := op.Variants[:0]
	for _, v := range op.Variants {
		v.Dialects = v.Dialects.Difference(d)
		if !v.Dialects.IsEmpty() {
			kept = append(kept, v)
		}
	}
	op.Variants = kept
	op.rebuild()
}
