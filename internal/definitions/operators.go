package definitions

import (
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

var (
	boolResult  = datatype.ConstIfAll{T: datatype.Boolean}
	intResult   = datatype.ConstIfAll{T: datatype.Integer}
	floatResult = datatype.ConstIfAll{T: datatype.Float}
	strResult   = datatype.ConstIfAll{T: datatype.String}
)

func operators() []registry.BasicOpItem {
	two := registry.Fixed(2)
	op := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Operator)
	}

	items := []registry.BasicOpItem{
		op(Add, two).
			Any(registry.Sig(registry.Integers, registry.Integers), intResult, registry.Infix("+")).
			Any(registry.Sig(registry.Numeric, registry.Numeric), floatResult, registry.Infix("+")).
			Any(registry.Sig(registry.Strings, registry.Strings), strResult, registry.Infix("||")).
			Item(),
		op(Sub, two).
			Any(registry.Sig(registry.Integers, registry.Integers), intResult, registry.Infix("-")).
			Any(registry.Sig(registry.Numeric, registry.Numeric), floatResult, registry.Infix("-")).
			Item(),
		op(Sub, registry.Fixed(1)).
			Any(registry.Sig(registry.Integers), intResult, registry.Prefix("-")).
			Any(registry.Sig(registry.Numeric), floatResult, registry.Prefix("-")).
			Item(),
		op(Mul, two).
			Any(registry.Sig(registry.Integers, registry.Integers), intResult, registry.Infix("*")).
			Any(registry.Sig(registry.Numeric, registry.Numeric), floatResult, registry.Infix("*")).
			Item(),
		op(Div, two).
			Any(registry.Sig(registry.Floats, registry.Floats), floatResult, registry.Infix("/")).
			Any(registry.Sig(registry.Integers, registry.Integers), floatResult, FloatDivide{Type: "FLOAT"}).
			Item(),
		op(Mod, two).
			Any(registry.Sig(registry.Integers, registry.Integers), intResult, registry.Infix("%")).
			Item(),

		op(And, registry.AtLeast(2)).Conditions(registry.ConditionAll).
			Any(registry.Repeat(registry.AnyType), boolResult, registry.Infix("AND")).
			Item(),
		op(Or, registry.AtLeast(2)).Conditions(registry.ConditionAll).
			Any(registry.Repeat(registry.AnyType), boolResult, registry.Infix("OR")).
			Item(),
		op(Not, registry.Fixed(1)).Conditions(registry.ConditionAll).
			Any(registry.Sig(registry.AnyType), boolResult, registry.Prefix("NOT")).
			Item(),

		op(IsNull, registry.Fixed(1)).
			Any(registry.Sig(registry.AnyType), datatype.Fixed{T: datatype.Boolean}, registry.Postfix("IS NULL")).
			Item(),
		op(In, registry.AtLeast(2)).
			Any(registry.Repeat(registry.Numeric), boolResult, InList{}).
			Any(registry.Repeat(registry.Strings), boolResult, InList{}).
			Any(registry.Repeat(registry.Dates), boolResult, InList{}).
			Item(),
		op(Like, two).
			Any(registry.Sig(registry.Strings, registry.Strings), boolResult, registry.Infix("LIKE")).
			Item(),
	}

	for _, cmp := range []struct{ name, sql string }{
		{Eq, "="}, {Ne, "<>"}, {Lt, "<"}, {Gt, ">"}, {Le, "<="}, {Ge, ">="},
	} {
		items = append(items, each(op(cmp.name, two), comparableSigs, boolResult, registry.Infix(cmp.sql)).Item())
	}
	return items
}

// FloatDivide divides two integers as floats by casting the dividend.
type FloatDivide struct {
	Type string
}

func (r FloatDivide) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Binary{
		Op:    "/",
		Left:  &render.Cast{Expr: args[0].Expr, Type: r.Type},
		Right: args[1].Expr,
	}, nil
}

// InList renders x IN (a, b, ...).
type InList struct{}

func (InList) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Binary{
		Op:    "IN",
		Left:  args[0].Expr,
		Right: &render.List{Items: registry.Exprs(args[1:])},
	}, nil
}
