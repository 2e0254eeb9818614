package nodes

import "fmt"

// WithChildren returns a copy of n with its children replaced. The number of
// children must match n.Children(). Leaves are returned unchanged.
func WithChildren(n Node, kids []Node) Node {
	if len(kids) != len(n.Children()) {
		panic(fmt.Sprintf("nodes: %s expects %d children, got %d", n.Kind(), len(n.Children()), len(kids)))
	}
	var out Node
	switch x := n.(type) {
	case *FuncCall:
		a, w := len(x.args), len(x.within)
		out = newCall(x.name, x.flags, kids[:a], kids[a:a+w], kids[a+w:])
	case *IfBlock:
		out = NewIfBlock(pairs(kids[:len(kids)-1]), kids[len(kids)-1])
	case *CaseBlock:
		out = NewCaseBlock(kids[0], pairs(kids[1:len(kids)-1]), kids[len(kids)-1])
	case *Paren:
		out = NewParen(kids[0])
	case *BeforeFilterBy:
		out = NewBeforeFilterBy(kids[0], x.names...)
	default:
		return n
	}
	return WithMeta(out, n.Meta())
}

// WithMeta returns a copy of n carrying meta.
func WithMeta(n Node, meta Meta) Node {
	switch x := n.(type) {
	case *Literal:
		c := *x
		c.meta = meta
		return &c
	case *Field:
		c := *x
		c.meta = meta
		return &c
	case *Null:
		c := *x
		c.meta = meta
		return &c
	case *FuncCall:
		c := *x
		c.meta = meta
		return &c
	case *IfBlock:
		c := *x
		c.meta = meta
		return &c
	case *CaseBlock:
		c := *x
		c.meta = meta
		return &c
	case *Paren:
		c := *x
		c.meta = meta
		return &c
	case *BeforeFilterBy:
		c := *x
		c.meta = meta
		return &c
	case *Compiled:
		c := *x
		c.meta = meta
		return &c
	}
	return n
}

// Walk visits n and its descendants in pre-order. fn receives the ancestor
// stack, nearest last; returning false skips the node's children.
func Walk(n Node, fn func(n Node, parents []Node) bool) {
	walk(n, nil, fn)
}

func walk(n Node, parents []Node, fn func(Node, []Node) bool) {
	if !fn(n, parents) {
		return
	}
	parents = append(parents, n)
	for _, c := range n.Children() {
		walk(c, parents[:len(parents):len(parents)], fn)
	}
}

// Fields returns the distinct field names referenced under n, in first-seen
// order.
func Fields(n Node) []string {
	seen := map[string]bool{}
	var out []string
	Walk(n, func(n Node, _ []Node) bool {
		if f, ok := n.(*Field); ok && !seen[f.name] {
			seen[f.name] = true
			out = append(out, f.name)
		}
		return true
	})
	return out
}
