// Package mutation rewrites formula trees before translation. Each mutation
// is a pure tree-to-tree rule applied in one full walk.
package mutation

import (
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/render"
)

// Mutation is a rewrite rule. Replace is only called on nodes Match accepted.
// parents is the ancestor stack, nearest last.
type Mutation interface {
	Name() string
	Match(n nodes.Node, parents []nodes.Node) bool
	Replace(n nodes.Node, parents []nodes.Node) nodes.Node
}

// Order is the walk direction of a mutation.
type Order int

const (
	// BottomUp rewrites children before their parent.
	BottomUp Order = iota
	// TopDown rewrites a parent, then the children of the result.
	TopDown
)

// Ordered is implemented by mutations that do not walk bottom-up.
type Ordered interface {
	Order() Order
}

func orderOf(m Mutation) Order {
	if o, ok := m.(Ordered); ok {
		return o.Order()
	}
	return BottomUp
}

// Apply runs each mutation over the whole tree, in order.
func Apply(tree nodes.Node, ms ...Mutation) nodes.Node {
	for _, m := range ms {
		tree = apply(tree, nil, m, orderOf(m))
	}
	return tree
}

func apply(n nodes.Node, parents []nodes.Node, m Mutation, order Order) nodes.Node {
	if order == TopDown {
		n = replace(n, parents, m)
	}

	kids := n.Children()
	if len(kids) > 0 {
		stack := append(parents[:len(parents):len(parents)], n)
		changed := false
		next := make([]nodes.Node, len(kids))
		for i, k := range kids {
			next[i] = apply(k, stack, m, order)
			if next[i] != k {
				changed = true
			}
		}
		if changed {
			n = nodes.WithChildren(n, next)
		}
	}

	if order == BottomUp {
		n = replace(n, parents, m)
	}
	return n
}

func replace(n nodes.Node, parents []nodes.Node, m Mutation) nodes.Node {
	if !m.Match(n, parents) {
		return n
	}
	out := m.Replace(n, parents)
	if out.Meta().Position.IsZero() && !n.Meta().Position.IsZero() {
		out = nodes.WithMeta(out, n.Meta())
	}
	return out
}

// Config parameterizes the standard pipeline for one compile.
type Config struct {
	Features render.Features
	// FieldTypes are the runtime types of referenced fields.
	FieldTypes map[string]datatype.DataType
	// Scopes renames BeforeFilterBy scope names.
	Scopes map[string]string
}

// Standard returns the default pipeline: block lowering, paren removal, scope
// remapping, arithmetic folding, then NOT simplification with comparison and
// logic folding. One application reaches a fixpoint.
func Standard(cfg Config) ([]Mutation, error) {
	remap, err := NewRemapScopes(cfg.Scopes)
	if err != nil {
		return nil, err
	}
	return []Mutation{
		LowerBlocks{},
		DropParens{},
		remap,
		FoldConstMath{},
		SimplifyLogic{Not: SimplifyNot{Features: cfg.Features, FieldTypes: cfg.FieldTypes}},
	}, nil
}

func call(n nodes.Node, name string, argc int) (*nodes.FuncCall, bool) {
	fc, ok := n.(*nodes.FuncCall)
	if !ok || fc.Name() != name || len(fc.Args()) != argc {
		return nil, false
	}
	return fc, true
}

func literals(fc *nodes.FuncCall) ([]*nodes.Literal, bool) {
	args := fc.Args()
	out := make([]*nodes.Literal, len(args))
	for i, a := range args {
		l, ok := a.(*nodes.Literal)
		if !ok {
			return nil, false
		}
		out[i] = l
	}
	return out, true
}
