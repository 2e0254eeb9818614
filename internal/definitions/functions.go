package definitions

import (
	"fmt"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

func functions() []registry.BasicOpItem {
	fn := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Function)
	}
	one := registry.Fixed(1)

	return []registry.BasicOpItem{
		fn(If, registry.AtLeast(3)).Conditions(registry.ConditionIfPairs).
			Any(registry.Repeat(registry.AnyType), datatype.Strict{Inner: datatype.FromArg{Start: 1, Step: 2, Last: true}}, SearchedCase{}).
			Item(),
		fn(Case, registry.AtLeast(4)).
			Any(registry.Repeat(registry.AnyType), datatype.Strict{Inner: datatype.FromArg{Start: 2, Step: 2, Last: true}}, SimpleCase{}).
			Item(),

		fn("str", one).
			Any(registry.Sig(registry.AnyType), strResult, registry.Cast("VARCHAR")).
			Item(),
		fn("int", one).
			Any(registry.Sig(registry.Scalars), intResult, registry.Cast("INTEGER")).
			Item(),
		fn("float", one).
			Any(registry.Sig(registry.Scalars), floatResult, registry.Cast("FLOAT")).
			Item(),

		fn("len", one).
			Any(registry.Sig(registry.Strings), intResult, registry.Call("LENGTH")).
			Item(),
		fn("upper", one).
			Any(registry.Sig(registry.Strings), strResult, registry.Call("UPPER")).
			Item(),
		fn("lower", one).
			Any(registry.Sig(registry.Strings), strResult, registry.Call("LOWER")).
			Item(),
		fn("trim", one).
			Any(registry.Sig(registry.Strings), strResult, registry.Call("TRIM")).
			Item(),
		fn("concat", registry.AtLeast(1)).
			Any(registry.Repeat(registry.Strings), strResult, registry.Call("CONCAT")).
			Item(),
		fn("ifnull", registry.Fixed(2)).
			Any(registry.Sig(registry.AnyType, registry.AnyType), datatype.FromArgs, registry.Call("COALESCE")).
			Item(),

		// Array construction and search have no portable form; dialects with
		// native arrays add their own variants.
		fn(Array, registry.AtLeast(1)).Item(),
		fn(Contains, registry.Fixed(2)).Item(),
		fn(Unnest, one).
			Any(registry.Sig(registry.Arrays), datatype.Runtime{Inner: datatype.ItemOf{Index: 0}}, registry.Call("UNNEST")).
			Item(),

		fn("year", one).
			Any(registry.Sig(registry.Dates), intResult, Extract{Part: "YEAR"}).
			Item(),
		fn("month", one).
			Any(registry.Sig(registry.Dates), intResult, Extract{Part: "MONTH"}).
			Item(),
		fn("day", one).
			Any(registry.Sig(registry.Dates), intResult, Extract{Part: "DAY"}).
			Item(),

		fn("now", registry.Fixed(0)).
			Any(registry.Sig(), datatype.Fixed{T: datatype.Datetime}, registry.Keyword("CURRENT_TIMESTAMP")).
			Item(),
		fn("today", registry.Fixed(0)).
			Any(registry.Sig(), datatype.Fixed{T: datatype.Date}, registry.Keyword("CURRENT_DATE")).
			Item(),
	}
}

// SearchedCase renders if(c1, e1, ..., else) as CASE WHEN c1 THEN e1 ... ELSE else END.
type SearchedCase struct{}

func (SearchedCase) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	if len(args)%2 == 0 {
		return nil, fmt.Errorf("if takes condition/value pairs and an else value, got %d arguments", len(args))
	}
	c := &render.Case{Else: args[len(args)-1].Expr}
	for i := 0; i+1 < len(args); i += 2 {
		c.Whens = append(c.Whens, render.When{Cond: args[i].Expr, Then: args[i+1].Expr})
	}
	return c, nil
}

// SimpleCase renders case(subject, v1, e1, ..., else) as CASE subject WHEN v1 THEN e1 ... END.
type SimpleCase struct{}

func (SimpleCase) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("case takes a subject, value/result pairs and an else value, got %d arguments", len(args))
	}
	c := &render.Case{Subject: args[0].Expr, Else: args[len(args)-1].Expr}
	for i := 1; i+1 < len(args); i += 2 {
		c.Whens = append(c.Whens, render.When{Cond: args[i].Expr, Then: args[i+1].Expr})
	}
	return c, nil
}

// Extract renders EXTRACT(part FROM arg).
type Extract struct {
	Part string
}

func (r Extract) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Raw{Text: "EXTRACT(" + r.Part + " FROM " + args[0].Expr.SQL() + ")"}, nil
}

// ArrayConstructor renders items with a dialect's native array syntax.
type ArrayConstructor struct {
	Prefix, Open, Close string
}

func (r ArrayConstructor) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Array{Prefix: r.Prefix, Open: r.Open, Close: r.Close, Items: registry.Exprs(args)}, nil
}

// ArraySigs are the element lists accepted by array.
var ArraySigs = []registry.Signature{
	registry.Repeat(registry.Integers),
	registry.Repeat(registry.Numeric),
	registry.Repeat(registry.Strings),
}

// ContainsSig is the (array, element) signature of contains.
var ContainsSig = registry.Sig(registry.Arrays, registry.Scalars)

// ArrayFor builds the array operation for dialects d.
func ArrayFor(d dialect.Combo, r ArrayConstructor) registry.BasicOpItem {
	t := registry.Define(Array, registry.AtLeast(1), registry.Function)
	for _, sig := range ArraySigs {
		t = t.ForDialect(d, sig, datatype.ArrayOfArgs{}, r)
	}
	return t.Item()
}

// ContainsFor builds the contains operation for dialects d.
func ContainsFor(d dialect.Combo, r registry.Renderer) registry.BasicOpItem {
	return registry.Define(Contains, registry.Fixed(2), registry.Function).
		ForDialect(d, ContainsSig, boolResult, r).
		Item()
}
