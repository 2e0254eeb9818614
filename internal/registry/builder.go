package registry

import (
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/render"
)

// Translation builds one operation's definition and variants.
//
//	registry.Define("len", registry.Fixed(1), registry.Function).
//		Any(registry.Sig(registry.Strings), datatype.Fixed{T: datatype.Integer}, registry.Call("LENGTH")).
//		ForDialect(mssql, registry.Sig(registry.Strings), datatype.Fixed{T: datatype.Integer}, registry.Call("LEN")).
//		Item()
type Translation struct {
	item BasicOpItem
}

// Define starts a translation.
func Define(name string, arity Arity, class Classification) *Translation {
	return &Translation{item: BasicOpItem{Definition: Definition{Name: name, Arity: arity, Class: class}}}
}

// Caps sets the supported capabilities.
func (t *Translation) Caps(c Capabilities) *Translation {
	t.item.Caps = c
	return t
}

// Conditions selects the predicate arguments.
func (t *Translation) Conditions(c ConditionArgs) *Translation {
	t.item.Conditions = c
	return t
}

// ForDialect adds a variant for d.
func (t *Translation) ForDialect(d dialect.Combo, sig Signature, returns datatype.Strategy, fn Renderer) *Translation {
	t.item.Variants = append(t.item.Variants, Variant{Dialects: d, Signature: sig, Returns: returns, Renderer: fn})
	return t
}

// Any adds a variant for every dialect.
func (t *Translation) Any(sig Signature, returns datatype.Strategy, fn Renderer) *Translation {
	return t.ForDialect(dialect.Any(), sig, returns, fn)
}

// Item returns the built operation.
func (t *Translation) Item() BasicOpItem {
	item := t.item
	item.Variants = append([]Variant(nil), t.item.Variants...)
	return item
}

// Exprs extracts the rendered expressions.
func Exprs(args []Arg) []render.Expr {
	out := make([]render.Expr, len(args))
	for i, a := range args {
		out[i] = a.Expr
	}
	return out
}

// Call renders name(args...).
func Call(name string) Renderer { return callRenderer{name: name} }

type callRenderer struct{ name string }

func (c callRenderer) Render(_ *Context, args []Arg) (render.Expr, error) {
	return &render.Func{Name: c.name, Args: Exprs(args)}, nil
}

// Infix renders a left-associative chain of op.
func Infix(op string) Renderer { return infixRenderer{op: op} }

type infixRenderer struct{ op string }

func (r infixRenderer) Render(_ *Context, args []Arg) (render.Expr, error) {
	var e render.Expr = args[0].Expr
	for _, a := range args[1:] {
		e = &render.Binary{Op: r.op, Left: e, Right: a.Expr}
	}
	return e, nil
}

// Prefix renders op applied to the single argument.
func Prefix(op string) Renderer { return unaryRenderer{op: op} }

// Postfix renders the single argument followed by op.
func Postfix(op string) Renderer { return unaryRenderer{op: op, postfix: true} }

type unaryRenderer struct {
	op      string
	postfix bool
}

func (r unaryRenderer) Render(_ *Context, args []Arg) (render.Expr, error) {
	return &render.Unary{Op: r.op, Operand: args[0].Expr, Postfix: r.postfix}, nil
}

// Cast renders CAST(arg AS typ).
func Cast(typ string) Renderer { return castRenderer{typ: typ} }

type castRenderer struct{ typ string }

func (r castRenderer) Render(_ *Context, args []Arg) (render.Expr, error) {
	return &render.Cast{Expr: args[0].Expr, Type: r.typ}, nil
}

// Keyword renders fixed SQL such as CURRENT_DATE.
func Keyword(text string) Renderer { return keywordRenderer{text: text} }

type keywordRenderer struct{ text string }

func (r keywordRenderer) Render(*Context, []Arg) (render.Expr, error) {
	return &render.Raw{Text: r.text}, nil
}
