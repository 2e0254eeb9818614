package definitions

import (
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

const aggregateCaps = registry.SupportsLOD | registry.SupportsIgnoreDimensions | registry.SupportsBeforeFilterBy

func aggregates() []registry.BasicOpItem {
	agg := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Aggregate).Caps(aggregateCaps)
	}
	one := registry.Fixed(1)
	sameType := datatype.Runtime{Inner: datatype.FromArgs}

	return []registry.BasicOpItem{
		agg("sum", one).
			Any(registry.Sig(registry.Integers), datatype.Fixed{T: datatype.Integer}, registry.Call("SUM")).
			Any(registry.Sig(registry.Numeric), datatype.Fixed{T: datatype.Float}, registry.Call("SUM")).
			Item(),
		agg("avg", one).
			Any(registry.Sig(registry.Numeric), datatype.Fixed{T: datatype.Float}, registry.Call("AVG")).
			Item(),
		agg("min", one).
			Any(registry.Sig(registry.Scalars), sameType, registry.Call("MIN")).
			Item(),
		agg("max", one).
			Any(registry.Sig(registry.Scalars), sameType, registry.Call("MAX")).
			Item(),
		agg("count", registry.Arity{Min: 0, Max: 1}).
			Any(registry.Sig(), datatype.Fixed{T: datatype.Integer}, Count{}).
			Any(registry.Sig(registry.AnyType), datatype.Fixed{T: datatype.Integer}, Count{}).
			Item(),
		agg("countd", one).
			Any(registry.Sig(registry.AnyType), datatype.Fixed{T: datatype.Integer}, Count{Distinct: true}).
			Item(),
	}
}

// Count renders COUNT(*), COUNT(x) or COUNT(DISTINCT x).
type Count struct {
	Distinct bool
}

func (r Count) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	if len(args) == 0 {
		return &render.Func{Name: "COUNT", Star: true}, nil
	}
	return &render.Func{Name: "COUNT", Args: registry.Exprs(args), Distinct: r.Distinct}, nil
}

const windowCaps = registry.SupportsGrouping | registry.SupportsOrdering

func windows() []registry.BasicOpItem {
	win := func(name string) *registry.Translation {
		return registry.Define(name, registry.Fixed(1), registry.Window).Caps(windowCaps)
	}
	return []registry.BasicOpItem{
		win(RSum).
			Any(registry.Sig(registry.Integers), datatype.Fixed{T: datatype.Integer}, RunningSum{}).
			Any(registry.Sig(registry.Numeric), datatype.Fixed{T: datatype.Float}, RunningSum{}).
			Item(),
		win(Rank).
			Any(registry.Sig(registry.Scalars), datatype.Fixed{T: datatype.Integer}, Ranking{}).
			Item(),
	}
}

func requireWindows(ctx *registry.Context, name string) error {
	if !ctx.Features.WindowFunctions {
		return render.UnsupportedFeatureError{
			Kind:    render.FeatureSyntax,
			Feature: "window function " + name,
			Dialect: ctx.Dialect.String(),
		}
	}
	return nil
}

func ascending(exprs []render.Expr) []render.OrderItem {
	out := make([]render.OrderItem, len(exprs))
	for i, e := range exprs {
		out[i] = render.OrderItem{Expr: e}
	}
	return out
}

// RunningSum renders SUM(x) accumulated over the window ordering.
type RunningSum struct{}

func (RunningSum) Render(ctx *registry.Context, args []registry.Arg) (render.Expr, error) {
	if err := requireWindows(ctx, RSum); err != nil {
		return nil, err
	}
	return &render.Over{
		Func:      &render.Func{Name: "SUM", Args: registry.Exprs(args)},
		Partition: ctx.Within,
		Order:     ascending(ctx.Order),
		Frame:     "ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW",
	}, nil
}

// Ranking renders RANK() ordered by the argument, largest first.
type Ranking struct{}

func (Ranking) Render(ctx *registry.Context, args []registry.Arg) (render.Expr, error) {
	if err := requireWindows(ctx, Rank); err != nil {
		return nil, err
	}
	return &render.Over{
		Func:      &render.Func{Name: "RANK"},
		Partition: ctx.Within,
		Order:     []render.OrderItem{{Expr: args[0].Expr, Desc: true}},
	}, nil
}
