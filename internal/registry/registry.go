package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/render"
)

// Registry maps operation names to their definitions and variants.
// Registration is single-goroutine; once sealed the registry is read-only
// and safe for concurrent use.
type Registry struct {
	ops    map[string][]*BasicOpItem
	sealed bool
	log    logrus.FieldLogger
}

// New creates an empty registry. A nil logger discards output.
func New(log logrus.FieldLogger) *Registry {
	if log == nil {
		l := logrus.New()
		l.SetOutput(discard{})
		log = l
	}
	return &Registry{ops: make(map[string][]*BasicOpItem), log: log}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// fold normalizes an operation name. A Caser is stateful, so one is made
// per call.
func fold(name string) string {
	return cases.Fold().String(name)
}

// Register adds operations. Registering a definition identical to an
// existing one merges its variants; an identical variant is a no-op. A
// different definition for an overlapping arity, or a different variant for
// the same combo and signature, is a conflict.
func (r *Registry) Register(items ...BasicOpItem) error {
	for _, item := range items {
		if err := r.register(item); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) register(item BasicOpItem) error {
	def := item.Definition
	id := fmt.Sprintf("%s/%s", def.Name, def.Arity)
	if r.sealed {
		return newError(KindSealed, id, "cannot register after seal")
	}
	if def.Name == "" || !def.Arity.valid() || !def.Class.valid() {
		return newError(KindInvalid, id, "malformed definition %+v", def)
	}
	key := fold(def.Name)

	var target *BasicOpItem
	for _, existing := range r.ops[key] {
		if !existing.Arity.Overlaps(def.Arity) {
			continue
		}
		if !sameDefinition(existing.Definition, def) {
			return newError(KindConflict, id, "already defined as %s %s/%s",
				existing.Class, existing.Name, existing.Arity)
		}
		target = existing
		break
	}
	if target == nil {
		target = &BasicOpItem{Definition: def}
		r.ops[key] = append(r.ops[key], target)
	}

	log := r.log.WithFields(logrus.Fields{"op": id, "class": def.Class.String()})
	for _, v := range item.Variants {
		if v.Dialects.IsEmpty() || v.Renderer == nil || v.Returns == nil {
			return newError(KindInvalid, id, "variant %s%s is incomplete", v.Dialects, v.Signature)
		}
		dup, err := target.merge(v)
		if err != nil {
			return wrapError(KindConflict, id, err)
		}
		if dup {
			log.WithField("dialects", v.Dialects.String()).Debug("identical variant already registered")
			continue
		}
		log.WithField("dialects", v.Dialects.String()).Debug("registered variant")
	}
	target.rebuild()
	return nil
}

func sameDefinition(a, b Definition) bool {
	a.Name, b.Name = fold(a.Name), fold(b.Name)
	return a == b
}

func (op *BasicOpItem) merge(v Variant) (bool, error) {
	for _, existing := range op.Variants {
		if existing.Dialects != v.Dialects || !existing.Signature.Equal(v.Signature) {
			continue
		}
		if existing.same(v) {
			return true, nil
		}
		return false, fmt.Errorf("a different variant is registered for %s%s", v.Dialects, v.Signature)
	}
	op.Variants = append(op.Variants, v)
	return false, nil
}

// Seal checks every signature group for equally specific overlapping
// variants and freezes the registry.
func (r *Registry) Seal() error {
	if r.sealed {
		return nil
	}
	for _, items := range r.ops {
		for _, op := range items {
			for _, g := range op.groups {
				combos := make([]dialect.Combo, len(g.candidates))
				for i, c := range g.candidates {
					combos[i] = c.Dialects
				}
				what := fmt.Sprintf("%s/%s%s", op.Name, op.Arity, g.sig)
				if err := dialect.CheckTies(combos, what); err != nil {
					return wrapError(KindAmbiguous, op.Name, err)
				}
			}
		}
	}
	r.sealed = true
	r.log.WithField("operations", r.Len()).Debug("registry sealed")
	return nil
}

// Sealed reports whether Seal has succeeded.
func (r *Registry) Sealed() bool { return r.sealed }

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	n := 0
	for _, items := range r.ops {
		n += len(items)
	}
	return n
}

// Lookup finds the operation accepting argc arguments of class. An unknown
// operation is a fatal registry error.
func (r *Registry) Lookup(name string, argc int, class Classification) (*BasicOpItem, error) {
	var other *BasicOpItem
	for _, op := range r.ops[fold(name)] {
		if !op.Arity.Accepts(argc) {
			continue
		}
		if op.Class == class {
			return op, nil
		}
		other = op
	}
	id := fmt.Sprintf("%s/%d", name, argc)
	if other != nil {
		return nil, newError(KindUnknownOperation, id, "registered as %s, not %s", other.Class, class)
	}
	return nil, newError(KindUnknownOperation, id, "no %s with this name and arity", class)
}

// Render dispatches op. Only signature groups with a variant serving
// ctx.Dialect take part; among those the best type match wins, equal scores
// going to the earliest registered group, and the group's most specific
// variant renders. No group serving the dialect is a
// render.UnsupportedFeatureError; no served signature accepting the argument
// types is an *ArgumentTypeError.
func (r *Registry) Render(op *BasicOpItem, ctx *Context, args []Arg) (render.Expr, datatype.DataType, error) {
	types := make([]datatype.DataType, len(args))
	for i, a := range args {
		types[i] = a.Type
	}

	var (
		best      Variant
		bestScore = -1
		expected  []string
	)
	for _, g := range op.groups {
		v, err := dialect.Resolve(ctx.Dialect, g.candidates)
		if err != nil {
			var nm dialect.NoMatchError
			if errors.As(err, &nm) {
				continue
			}
			return nil, datatype.Unsupported, err
		}
		expected = append(expected, g.sig.String())
		if score, ok := g.sig.Match(types); ok && score > bestScore {
			best, bestScore = v, score
		}
	}

	switch {
	case len(expected) == 0:
		return nil, datatype.Unsupported, render.NewUnavailableFunctionError(ctx.Dialect.String(), op.Name, len(args))
	case bestScore < 0:
		return nil, datatype.Unsupported, &ArgumentTypeError{Name: op.Name, Types: types, Expected: expected}
	}

	expr, err := best.Renderer.Render(ctx, args)
	if err != nil {
		return nil, datatype.Unsupported, err
	}
	return expr, best.Returns.Infer(types), nil
}

// OpInfo describes a registered operation.
type OpInfo struct {
	Name       string
	Arity      Arity
	Class      Classification
	Caps       Capabilities
	Dialects   dialect.Combo
	Signatures []string
}

// Catalog lists every operation ordered by name, class and arity.
func (r *Registry) Catalog() []OpInfo {
	var out []OpInfo
	for _, items := range r.ops {
		for _, op := range items {
			info := OpInfo{
				Name:     op.Name,
				Arity:    op.Arity,
				Class:    op.Class,
				Caps:     op.Caps,
				Dialects: op.Dialects(),
			}
			for _, g := range op.groups {
				info.Signatures = append(info.Signatures, g.sig.String())
			}
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if fa, fb := fold(a.Name), fold(b.Name); fa != fb {
			return fa < fb
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.Arity.Min < b.Arity.Min
	})
	return out
}
