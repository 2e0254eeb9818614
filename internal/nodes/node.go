// Package nodes defines the immutable formula expression tree.
package nodes

import (
	"sort"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/render"
)

// Position locates a node in the original formula text.
type Position struct {
	Start, End int // byte offsets
	Row, Col   int // 1-based; zero when unknown
}

// IsZero reports whether the position is unknown.
func (p Position) IsZero() bool { return p == Position{} }

// Meta is optional source metadata. It is not part of a node's identity.
type Meta struct {
	Position Position
	Original string
}

// Node is an immutable expression tree element.
type Node interface {
	Kind() string
	Children() []Node
	Meta() Meta
	Extract() Extract
	node()
}

type base struct {
	meta    Meta
	extract Extract
}

func (b *base) Meta() Meta       { return b.meta }
func (b *base) Extract() Extract { return b.extract }
func (*base) node()              {}

// Flags classify a function call.
type Flags uint8

const (
	FlagOperator Flags = 1 << iota
	FlagAggregate
	FlagWindow
)

// Field references a data source field by logical name.
type Field struct {
	base
	name string
}

// NewField creates a field reference.
func NewField(name string) *Field {
	n := &Field{name: name}
	n.extract = newExtract(n.Kind(), name, nil)
	return n
}

func (n *Field) Kind() string     { return "field" }
func (n *Field) Children() []Node { return nil }
func (n *Field) Name() string     { return n.name }

// Null is the NULL literal.
type Null struct{ base }

// NewNull creates a NULL node.
func NewNull() *Null {
	n := &Null{}
	n.extract = newExtract(n.Kind(), nil, nil)
	return n
}

func (n *Null) Kind() string     { return "null" }
func (n *Null) Children() []Node { return nil }

// FuncCall is a function or operator application. Window calls may carry
// partition (Within) and ordering nodes.
type FuncCall struct {
	base
	name   string
	flags  Flags
	args   []Node
	within []Node
	order  []Node
}

// NewFuncCall creates a call with explicit flags.
func NewFuncCall(name string, flags Flags, args ...Node) *FuncCall {
	return newCall(name, flags, args, nil, nil)
}

// NewFunction creates a plain function call.
func NewFunction(name string, args ...Node) *FuncCall {
	return newCall(name, 0, args, nil, nil)
}

// NewOperator creates an operator call.
func NewOperator(name string, args ...Node) *FuncCall {
	return newCall(name, FlagOperator, args, nil, nil)
}

// NewAggregate creates an aggregate function call.
func NewAggregate(name string, args ...Node) *FuncCall {
	return newCall(name, FlagAggregate, args, nil, nil)
}

// NewWindow creates a window function call.
func NewWindow(name string, args, within, order []Node) *FuncCall {
	return newCall(name, FlagWindow, args, within, order)
}

func newCall(name string, flags Flags, args, within, order []Node) *FuncCall {
	n := &FuncCall{
		name:   name,
		flags:  flags,
		args:   clone(args),
		within: clone(within),
		order:  clone(order),
	}
	n.extract = newExtract(n.Kind(),
		[]any{name, uint8(flags), len(n.args), len(n.within)},
		n.Children())
	return n
}

func (n *FuncCall) Kind() string { return "func" }

func (n *FuncCall) Children() []Node {
	out := make([]Node, 0, len(n.args)+len(n.within)+len(n.order))
	out = append(out, n.args...)
	out = append(out, n.within...)
	return append(out, n.order...)
}

func (n *FuncCall) Name() string      { return n.name }
func (n *FuncCall) Flags() Flags      { return n.flags }
func (n *FuncCall) Args() []Node      { return clone(n.args) }
func (n *FuncCall) Within() []Node    { return clone(n.within) }
func (n *FuncCall) Order() []Node     { return clone(n.order) }
func (n *FuncCall) IsOperator() bool  { return n.flags&FlagOperator != 0 }
func (n *FuncCall) IsAggregate() bool { return n.flags&FlagAggregate != 0 }
func (n *FuncCall) IsWindow() bool    { return n.flags&FlagWindow != 0 }

// Branch is one condition/result pair of an IfBlock or one value/result pair
// of a CaseBlock.
type Branch struct {
	When, Then Node
}

// IfBlock is IF c1 THEN e1 [ELSEIF c2 THEN e2]... [ELSE x] END.
type IfBlock struct {
	base
	branches  []Branch
	otherwise Node
}

// NewIfBlock creates an if block. A nil otherwise becomes NULL.
func NewIfBlock(branches []Branch, otherwise Node) *IfBlock {
	if otherwise == nil {
		otherwise = NewNull()
	}
	n := &IfBlock{branches: append([]Branch(nil), branches...), otherwise: otherwise}
	n.extract = newExtract(n.Kind(), len(branches), n.Children())
	return n
}

func (n *IfBlock) Kind() string { return "if_block" }

func (n *IfBlock) Children() []Node {
	return append(flatten(n.branches), n.otherwise)
}

func (n *IfBlock) Branches() []Branch { return append([]Branch(nil), n.branches...) }
func (n *IfBlock) Else() Node         { return n.otherwise }

// CaseBlock is CASE subject WHEN v1 THEN e1 ... [ELSE x] END.
type CaseBlock struct {
	base
	subject   Node
	branches  []Branch
	otherwise Node
}

// NewCaseBlock creates a case block. A nil otherwise becomes NULL.
func NewCaseBlock(subject Node, branches []Branch, otherwise Node) *CaseBlock {
	if otherwise == nil {
		otherwise = NewNull()
	}
	n := &CaseBlock{subject: subject, branches: append([]Branch(nil), branches...), otherwise: otherwise}
	n.extract = newExtract(n.Kind(), len(branches), n.Children())
	return n
}

func (n *CaseBlock) Kind() string { return "case_block" }

func (n *CaseBlock) Children() []Node {
	out := append([]Node{n.subject}, flatten(n.branches)...)
	return append(out, n.otherwise)
}

func (n *CaseBlock) Subject() Node      { return n.subject }
func (n *CaseBlock) Branches() []Branch { return append([]Branch(nil), n.branches...) }
func (n *CaseBlock) Else() Node         { return n.otherwise }

// Paren is an explicit parenthesis wrapper kept from the source text.
type Paren struct {
	base
	expr Node
}

// NewParen wraps expr.
func NewParen(expr Node) *Paren {
	n := &Paren{expr: expr}
	n.extract = newExtract(n.Kind(), nil, n.Children())
	return n
}

func (n *Paren) Kind() string     { return "paren" }
func (n *Paren) Children() []Node { return []Node{n.expr} }
func (n *Paren) Expr() Node       { return n.expr }

// BeforeFilterBy scopes an expression to the named filter contexts.
type BeforeFilterBy struct {
	base
	expr  Node
	names []string
}

// NewBeforeFilterBy creates a scope node. Names are deduplicated and sorted.
func NewBeforeFilterBy(expr Node, names ...string) *BeforeFilterBy {
	set := make(map[string]struct{}, len(names))
	uniq := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := set[name]; ok {
			continue
		}
		set[name] = struct{}{}
		uniq = append(uniq, name)
	}
	sort.Strings(uniq)
	n := &BeforeFilterBy{expr: expr, names: uniq}
	n.extract = newExtract(n.Kind(), uniq, n.Children())
	return n
}

func (n *BeforeFilterBy) Kind() string     { return "before_filter_by" }
func (n *BeforeFilterBy) Children() []Node { return []Node{n.expr} }
func (n *BeforeFilterBy) Expr() Node       { return n.expr }
func (n *BeforeFilterBy) Names() []string  { return append([]string(nil), n.names...) }

// Compiled splices an already rendered expression into the tree.
type Compiled struct {
	base
	expr render.Expr
	typ  datatype.DataType
}

// NewCompiled wraps a rendered expression of type t.
func NewCompiled(expr render.Expr, t datatype.DataType) *Compiled {
	n := &Compiled{expr: expr, typ: t}
	n.extract = newExtract(n.Kind(), []any{expr.SQL(), uint8(t)}, nil)
	return n
}

func (n *Compiled) Kind() string            { return "compiled" }
func (n *Compiled) Children() []Node        { return nil }
func (n *Compiled) Expr() render.Expr       { return n.expr }
func (n *Compiled) Type() datatype.DataType { return n.typ }

func clone(ns []Node) []Node {
	if len(ns) == 0 {
		return nil
	}
	return append([]Node(nil), ns...)
}

func flatten(bs []Branch) []Node {
	out := make([]Node, 0, 2*len(bs))
	for _, b := range bs {
		out = append(out, b.When, b.Then)
	}
	return out
}

func pairs(ns []Node) []Branch {
	out := make([]Branch, 0, len(ns)/2)
	for i := 0; i+1 < len(ns); i += 2 {
		out = append(out, Branch{When: ns[i], Then: ns[i+1]})
	}
	return out
}
