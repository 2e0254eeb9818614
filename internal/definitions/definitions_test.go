package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

var deftest = dialect.MustRegister("DEFTEST")

func sealed(t *testing.T, extra ...registry.BasicOpItem) *registry.Registry {
	t.Helper()
	r := registry.New(nil)
	require.NoError(t, r.Register(All()...))
	require.NoError(t, r.Register(extra...))
	require.NoError(t, r.Seal())
	return r
}

func raw(sql string, typ datatype.DataType) registry.Arg {
	return registry.Arg{Expr: &render.Raw{Text: sql}, Type: typ}
}

func renderOp(t *testing.T, r *registry.Registry, name string, class registry.Classification, ctx *registry.Context, args ...registry.Arg) (string, datatype.DataType, error) {
	t.Helper()
	op, err := r.Lookup(name, len(args), class)
	require.NoError(t, err)
	e, typ, err := r.Render(op, ctx, args)
	if err != nil {
		return "", typ, err
	}
	return e.SQL(), typ, nil
}

func ansiCtx() *registry.Context {
	return &registry.Context{
		Dialect:  deftest.Base(),
		Literals: render.ANSILiterals,
		Post:     render.NativeBooleans{},
		Features: render.ANSI,
	}
}

func TestDefaultsSeal(t *testing.T) {
	r := sealed(t)
	for _, info := range r.Catalog() {
		assert.NotEmpty(t, info.Name)
	}
}

func TestDefaultRendering(t *testing.T) {
	r := sealed(t)
	x, y := raw("x", datatype.Integer), raw("y", datatype.Integer)
	f := raw("f", datatype.Float)
	s := raw("s", datatype.String)
	c := raw("(a > 1)", datatype.Boolean)

	tests := []struct {
		name  string
		op    string
		class registry.Classification
		args  []registry.Arg
		sql   string
		typ   datatype.DataType
	}{
		{"int addition", Add, registry.Operator, []registry.Arg{x, y}, "(x + y)", datatype.Integer},
		{"mixed addition widens", Add, registry.Operator, []registry.Arg{x, f}, "(x + f)", datatype.Float},
		{"string addition concatenates", Add, registry.Operator, []registry.Arg{s, s}, "(s || s)", datatype.String},
		{"unary minus", Sub, registry.Operator, []registry.Arg{x}, "(-x)", datatype.Integer},
		{"integer division", Div, registry.Operator, []registry.Arg{x, y}, "(CAST(x AS FLOAT) / y)", datatype.Float},
		{"float division", Div, registry.Operator, []registry.Arg{f, f}, "(f / f)", datatype.Float},
		{"comparison", Ne, registry.Operator, []registry.Arg{x, y}, "(x <> y)", datatype.Boolean},
		{"in list", In, registry.Operator, []registry.Arg{x, raw("1", datatype.ConstInteger), raw("2", datatype.ConstInteger)}, "(x IN (1, 2))", datatype.Boolean},
		{"and chain", And, registry.Operator, []registry.Arg{c, c, c}, "(((a > 1) AND (a > 1)) AND (a > 1))", datatype.Boolean},
		{"isnull", IsNull, registry.Operator, []registry.Arg{x}, "(x IS NULL)", datatype.Boolean},
		{"searched case", If, registry.Function, []registry.Arg{c, x, f}, "CASE WHEN (a > 1) THEN x ELSE f END", datatype.Float},
		{"simple case", Case, registry.Function, []registry.Arg{s, raw("'a'", datatype.ConstString), x, y}, "CASE s WHEN 'a' THEN x ELSE y END", datatype.Integer},
		{"cast", "str", registry.Function, []registry.Arg{x}, "CAST(x AS VARCHAR)", datatype.String},
		{"now", "now", registry.Function, nil, "CURRENT_TIMESTAMP", datatype.Datetime},
		{"year", "year", registry.Function, []registry.Arg{raw("d", datatype.Date)}, "EXTRACT(YEAR FROM d)", datatype.Integer},
		{"trim", "trim", registry.Function, []registry.Arg{s}, "TRIM(s)", datatype.String},
		{"count star", "count", registry.Aggregate, nil, "COUNT(*)", datatype.Integer},
		{"count distinct", "countd", registry.Aggregate, []registry.Arg{s}, "COUNT(DISTINCT s)", datatype.Integer},
		{"sum of ints", "sum", registry.Aggregate, []registry.Arg{x}, "SUM(x)", datatype.Integer},
		{"min keeps runtime type", "min", registry.Aggregate, []registry.Arg{raw("1", datatype.ConstInteger)}, "MIN(1)", datatype.Integer},
		{"unnest", Unnest, registry.Function, []registry.Arg{raw("a", datatype.ArrayStr)}, "UNNEST(a)", datatype.String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, typ, err := renderOp(t, r, tt.op, tt.class, ansiCtx(), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.typ, typ)
		})
	}
}

func TestWindows(t *testing.T) {
	r := sealed(t)
	ctx := ansiCtx()
	ctx.Within = []render.Expr{&render.Raw{Text: "region"}}
	ctx.Order = []render.Expr{&render.Raw{Text: "day"}}

	sql, _, err := renderOp(t, r, RSum, registry.Window, ctx, raw("sales", datatype.Float))
	require.NoError(t, err)
	assert.Equal(t, "SUM(sales) OVER (PARTITION BY region ORDER BY day ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)", sql)

	sql, _, err = renderOp(t, r, Rank, registry.Window, ctx, raw("sales", datatype.Float))
	require.NoError(t, err)
	assert.Equal(t, "RANK() OVER (PARTITION BY region ORDER BY sales DESC)", sql)

	ctx.Features.WindowFunctions = false
	_, _, err = renderOp(t, r, Rank, registry.Window, ctx, raw("sales", datatype.Float))
	var ufe render.UnsupportedFeatureError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, render.FeatureSyntax, ufe.Kind)
}

func TestArraysNeedDialectVariants(t *testing.T) {
	r := sealed(t,
		ArrayFor(deftest.All(), ArrayConstructor{Prefix: "ARRAY", Open: "[", Close: "]"}),
		ContainsFor(deftest.All(), registry.Call("HAS")),
	)
	one, two := raw("1", datatype.ConstInteger), raw("2", datatype.ConstInteger)

	sql, typ, err := renderOp(t, r, Array, registry.Function, ansiCtx(), one, two)
	require.NoError(t, err)
	assert.Equal(t, "ARRAY[1, 2]", sql)
	assert.Equal(t, datatype.ConstArrayInt, typ)

	sql, _, err = renderOp(t, r, Contains, registry.Function, ansiCtx(), raw("a", datatype.ArrayInt), one)
	require.NoError(t, err)
	assert.Equal(t, "HAS(a, 1)", sql)

	bare := sealed(t)
	ctx := ansiCtx()
	ctx.Dialect = dialect.MustRegister("DEFBARE").Base()
	_, _, err = renderOp(t, bare, Array, registry.Function, ctx, one)
	assert.ErrorAs(t, err, new(render.UnsupportedFeatureError))
}

func TestArgumentTypes(t *testing.T) {
	r := sealed(t)
	_, _, err := renderOp(t, r, "len", registry.Function, ansiCtx(), raw("1", datatype.ConstInteger))
	var ate *registry.ArgumentTypeError
	require.ErrorAs(t, err, &ate)
	assert.Equal(t, "len", ate.Name)
}

func TestInverse(t *testing.T) {
	for op, inv := range Inverse {
		assert.Equal(t, op, Inverse[inv])
		assert.True(t, Comparison(op))
	}
	assert.False(t, Comparison(And))
}
