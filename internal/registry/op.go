// Package registry holds operation definitions and their per-dialect
// rendering variants, and dispatches rendering by dialect specificity.
package registry

import (
	"fmt"
	"reflect"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/render"
)

// Classification is the closed set of operation kinds.
type Classification int

const (
	Function Classification = iota
	Operator
	Aggregate
	Window
)

func (c Classification) String() string {
	switch c {
	case Function:
		return "function"
	case Operator:
		return "operator"
	case Aggregate:
		return "aggregate"
	case Window:
		return "window"
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

func (c Classification) valid() bool { return c >= Function && c <= Window }

// Variadic marks an arity without an upper bound.
const Variadic = -1

// Arity is an inclusive argument count range.
type Arity struct {
	Min, Max int
}

// Fixed is an exact argument count.
func Fixed(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast is an open-ended argument count.
func AtLeast(n int) Arity { return Arity{Min: n, Max: Variadic} }

// Accepts reports whether n arguments fit the arity.
func (a Arity) Accepts(n int) bool {
	return n >= a.Min && (a.Max == Variadic || n <= a.Max)
}

// Overlaps reports whether some argument count fits both arities.
func (a Arity) Overlaps(b Arity) bool {
	lo := a.Min
	if b.Min > lo {
		lo = b.Min
	}
	return a.Accepts(lo) && b.Accepts(lo)
}

func (a Arity) valid() bool {
	return a.Min >= 0 && (a.Max == Variadic || a.Max >= a.Min)
}

func (a Arity) String() string {
	switch {
	case a.Max == Variadic:
		return fmt.Sprintf("%d+", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	}
	return fmt.Sprintf("%d-%d", a.Min, a.Max)
}

// Capabilities are the scoping features an operation supports.
type Capabilities uint8

const (
	SupportsGrouping Capabilities = 1 << iota
	SupportsOrdering
	SupportsLOD
	SupportsIgnoreDimensions
	SupportsBeforeFilterBy
)

// Has reports whether every capability in c2 is set.
func (c Capabilities) Has(c2 Capabilities) bool { return c&c2 == c2 }

// ConditionArgs selects which arguments are evaluated as predicates.
type ConditionArgs int

const (
	ConditionNone    ConditionArgs = iota
	ConditionAll                   // and, or, not
	ConditionIfPairs               // if: c1, e1, c2, e2, ..., else
)

// IsCondition reports whether argument i of n is a predicate.
func (c ConditionArgs) IsCondition(i, n int) bool {
	switch c {
	case ConditionAll:
		return true
	case ConditionIfPairs:
		return i%2 == 0 && i != n-1
	}
	return false
}

// Definition is the dialect-independent metadata of an operation. Two
// definitions are identical iff they compare equal.
type Definition struct {
	Name       string
	Arity      Arity
	Class      Classification
	Caps       Capabilities
	Conditions ConditionArgs
}

// Arg is a rendered argument handed to a variant.
type Arg struct {
	Expr render.Expr
	Type datatype.DataType
	// Value is the compile-time value when the argument is a literal.
	Value any
}

// Context carries the dialect strategies available to a rendering function.
type Context struct {
	Dialect  dialect.Combo
	Literals render.Literalizer
	Post     render.ContextPostprocessor
	Features render.Features
	// Window partition and ordering, already rendered.
	Within []render.Expr
	Order  []render.Expr
}

// Renderer renders an operation from its rendered arguments. Comparable
// implementations compare by value when detecting duplicate variants.
type Renderer interface {
	Render(ctx *Context, args []Arg) (render.Expr, error)
}

// RenderFunc adapts a function to Renderer. Two RenderFuncs are the same
// renderer iff they share a code pointer.
type RenderFunc func(ctx *Context, args []Arg) (render.Expr, error)

func (f RenderFunc) Render(ctx *Context, args []Arg) (render.Expr, error) { return f(ctx, args) }

func sameRenderer(a, b Renderer) bool {
	fa, okA := a.(RenderFunc)
	fb, okB := b.(RenderFunc)
	if okA || okB {
		return okA && okB && reflect.ValueOf(fa).Pointer() == reflect.ValueOf(fb).Pointer()
	}
	return reflect.DeepEqual(a, b)
}

// Variant renders an operation for a dialect combo and argument signature.
type Variant struct {
	Dialects  dialect.Combo
	Signature Signature
	Returns   datatype.Strategy
	Renderer  Renderer
}

func (v Variant) same(o Variant) bool {
	return v.Dialects == o.Dialects &&
		v.Signature.Equal(o.Signature) &&
		reflect.DeepEqual(v.Returns, o.Returns) &&
		sameRenderer(v.Renderer, o.Renderer)
}

// BasicOpItem is a registry entry: a definition and its variants. Items
// returned by a sealed registry are read-only.
type BasicOpItem struct {
	Definition
	Variants []Variant

	groups []*group
}

// group holds the variants sharing one signature, sorted by ambiguity.
type group struct {
	sig        Signature
	candidates []dialect.Candidate[Variant]
}

// Dialects returns the union of every variant's combo.
func (op *BasicOpItem) Dialects() dialect.Combo {
	var c dialect.Combo
	for _, v := range op.Variants {
		c = c.Union(v.Dialects)
	}
	return c
}

// Supports reports whether some variant serves d.
func (op *BasicOpItem) Supports(d dialect.Combo) bool {
	for _, v := range op.Variants {
		if v.Dialects.Matches(d) {
			return true
		}
	}
	return false
}

func (op *BasicOpItem) rebuild() {
	op.groups = nil
	for _, v := range op.Variants {
		var g *group
		for _, existing := range op.groups {
			if existing.sig.Equal(v.Signature) {
				g = existing
				break
			}
		}
		if g == nil {
			g = &group{sig: v.Signature}
			op.groups = append(op.groups, g)
		}
		g.candidates = append(g.candidates, dialect.Candidate[Variant]{Dialects: v.Dialects, Value: v})
	}
	for _, g := range op.groups {
		dialect.Sort(g.candidates)
	}
}
