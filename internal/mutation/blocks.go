package mutation

import (
	"fmt"
	"sort"

	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/nodes"
)

// LowerBlocks turns IF and CASE blocks into if and case function calls:
// if(c1, e1, ..., else) and case(subject, v1, e1, ..., else).
type LowerBlocks struct{}

func (LowerBlocks) Name() string { return "lower_blocks" }

func (LowerBlocks) Match(n nodes.Node, _ []nodes.Node) bool {
	switch n.(type) {
	case *nodes.IfBlock, *nodes.CaseBlock:
		return true
	}
	return false
}

func (LowerBlocks) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	switch x := n.(type) {
	case *nodes.IfBlock:
		return nodes.NewFunction(definitions.If, x.Children()...)
	case *nodes.CaseBlock:
		return nodes.NewFunction(definitions.Case, x.Children()...)
	}
	return n
}

// DropParens removes explicit parentheses; grouping is already structural.
type DropParens struct{}

func (DropParens) Name() string { return "drop_parens" }

func (DropParens) Match(n nodes.Node, _ []nodes.Node) bool {
	_, ok := n.(*nodes.Paren)
	return ok
}

func (DropParens) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	return n.(*nodes.Paren).Expr()
}

// RemapScopes renames the scope names of BeforeFilterBy nodes.
type RemapScopes struct {
	mapping map[string]string
}

// NewRemapScopes validates mapping. A target that is itself remapped to
// something else is rejected: applying such a mapping twice would differ
// from applying it once.
func NewRemapScopes(mapping map[string]string) (*RemapScopes, error) {
	var chained []string
	for from, to := range mapping {
		if next, ok := mapping[to]; ok && next != to {
			chained = append(chained, fmt.Sprintf("%s -> %s -> %s", from, to, next))
		}
	}
	if len(chained) > 0 {
		sort.Strings(chained)
		return nil, fmt.Errorf("scope mapping is not idempotent: %v", chained)
	}
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &RemapScopes{mapping: m}, nil
}

func (*RemapScopes) Name() string { return "remap_scopes" }

func (*RemapScopes) Order() Order { return TopDown }

func (r *RemapScopes) Match(n nodes.Node, _ []nodes.Node) bool {
	bfb, ok := n.(*nodes.BeforeFilterBy)
	if !ok {
		return false
	}
	for _, name := range bfb.Names() {
		if to, ok := r.mapping[name]; ok && to != name {
			return true
		}
	}
	return false
}

func (r *RemapScopes) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	bfb := n.(*nodes.BeforeFilterBy)
	names := bfb.Names()
	for i, name := range names {
		if to, ok := r.mapping[name]; ok {
			names[i] = to
		}
	}
	return nodes.NewBeforeFilterBy(bfb.Expr(), names...)
}
