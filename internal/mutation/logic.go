package mutation

import (
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/render"
)

// SimplifyNot removes negations: not(not x) becomes x, a negated comparison
// becomes the inverse comparison, and a negated boolean literal is folded.
// Without native booleans a negated BOOLEAN field becomes field == FALSE.
type SimplifyNot struct {
	Features   render.Features
	FieldTypes map[string]datatype.DataType
}

func (SimplifyNot) Name() string { return "simplify_not" }

func (s SimplifyNot) Match(n nodes.Node, _ []nodes.Node) bool {
	return s.simplify(n) != nil
}

func (s SimplifyNot) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	return s.simplify(n)
}

func (s SimplifyNot) simplify(n nodes.Node) nodes.Node {
	not, ok := call(n, definitions.Not, 1)
	if !ok || !not.IsOperator() {
		return nil
	}
	arg := not.Args()[0]

	if inner, ok := call(arg, definitions.Not, 1); ok && inner.IsOperator() {
		return inner.Args()[0]
	}
	if cmp, ok := arg.(*nodes.FuncCall); ok && cmp.IsOperator() && len(cmp.Args()) == 2 {
		if inv, ok := definitions.Inverse[cmp.Name()]; ok {
			return nodes.WithMeta(nodes.NewOperator(inv, cmp.Args()...), cmp.Meta())
		}
	}
	switch {
	case nodes.IsTrue(arg):
		return nodes.Boolean(false)
	case nodes.IsFalse(arg):
		return nodes.Boolean(true)
	}
	if f, ok := arg.(*nodes.Field); ok && !s.Features.NativeBoolean && s.FieldTypes[f.Name()] == datatype.Boolean {
		return nodes.NewOperator(definitions.Eq, f, nodes.Boolean(false))
	}
	return nil
}

// SimplifyLogic applies SimplifyNot, FoldConstComparison and FoldConstLogic
// to each node until none of them matches. Each rewrite can expose work for
// the others, so running them as separate walks would need repeating.
type SimplifyLogic struct {
	Not SimplifyNot
}

func (SimplifyLogic) Name() string { return "simplify_logic" }

func (s SimplifyLogic) Match(n nodes.Node, _ []nodes.Node) bool {
	return s.step(n) != nil
}

func (s SimplifyLogic) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	for {
		next := s.step(n)
		if next == nil {
			return n
		}
		n = next
	}
}

func (s SimplifyLogic) step(n nodes.Node) nodes.Node {
	if out := s.Not.simplify(n); out != nil {
		return out
	}
	if out := (FoldConstComparison{}).fold(n); out != nil {
		return out
	}
	return FoldConstLogic{}.fold(n)
}

// FoldConstLogic drops TRUE operands of and, FALSE operands of or, and
// collapses the call when an operand decides it. A single remaining operand
// replaces the call only when it is itself a predicate.
type FoldConstLogic struct{}

func (FoldConstLogic) Name() string { return "fold_const_logic" }

func (f FoldConstLogic) Match(n nodes.Node, _ []nodes.Node) bool {
	return f.fold(n) != nil
}

func (f FoldConstLogic) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	return f.fold(n)
}

func (FoldConstLogic) fold(n nodes.Node) nodes.Node {
	fc, ok := n.(*nodes.FuncCall)
	if !ok || !fc.IsOperator() {
		return nil
	}
	var identity, decides func(nodes.Node) bool
	switch fc.Name() {
	case definitions.And:
		identity, decides = nodes.IsTrue, nodes.IsFalse
	case definitions.Or:
		identity, decides = nodes.IsFalse, nodes.IsTrue
	default:
		return nil
	}

	args := fc.Args()
	var kept []nodes.Node
	for _, a := range args {
		if decides(a) {
			return a
		}
		if !identity(a) {
			kept = append(kept, a)
		}
	}
	switch {
	case len(kept) == len(args):
		return nil
	case len(kept) == 0:
		return args[0]
	case len(kept) == 1:
		if predicate(kept[0]) {
			return kept[0]
		}
		// Keep one identity operand so the call stays boolean.
		if len(args) == 2 {
			return nil
		}
		return nodes.WithMeta(nodes.NewOperator(fc.Name(), kept[0], args[indexOf(args, identity)]), fc.Meta())
	}
	return nodes.WithMeta(nodes.NewOperator(fc.Name(), kept...), fc.Meta())
}

func indexOf(ns []nodes.Node, pred func(nodes.Node) bool) int {
	for i, n := range ns {
		if pred(n) {
			return i
		}
	}
	return -1
}

// predicate reports whether n is known to evaluate to a boolean.
func predicate(n nodes.Node) bool {
	if l, ok := n.(*nodes.Literal); ok {
		return l.Type() == datatype.ConstBoolean
	}
	fc, ok := n.(*nodes.FuncCall)
	if !ok || !fc.IsOperator() {
		return false
	}
	switch fc.Name() {
	case definitions.And, definitions.Or, definitions.Not, definitions.IsNull, definitions.In, definitions.Like:
		return true
	}
	return definitions.Comparison(fc.Name())
}
