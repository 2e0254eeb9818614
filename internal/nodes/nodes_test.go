package nodes

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/render"
)

func sample() Node {
	return NewIfBlock(
		[]Branch{{When: NewOperator(">", NewField("a"), Integer(0)), Then: String("pos")}},
		String("neg"),
	)
}

func TestLiteralTypesAreConst(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		lit  *Literal
		want datatype.DataType
	}{
		{Integer(1), datatype.ConstInteger},
		{Float(1.5), datatype.ConstFloat},
		{Boolean(true), datatype.ConstBoolean},
		{String("x"), datatype.ConstString},
		{Date(day), datatype.ConstDate},
		{Datetime(day), datatype.ConstDatetime},
		{DatetimeTZ(day), datatype.ConstDatetimeTZ},
		{GenericDatetime(day), datatype.ConstGenericDatetime},
		{Geopoint(orb.Point{1, 2}), datatype.ConstGeopoint},
		{Geopolygon(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}), datatype.ConstGeopolygon},
		{UUID(uuid.New()), datatype.ConstUUID},
		{ArrayInt(1, 2), datatype.ConstArrayInt},
		{ArrayFloat(1), datatype.ConstArrayFloat},
		{ArrayString("a"), datatype.ConstArrayStr},
		{TreeString("a", "b"), datatype.ConstTreeStr},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lit.Type())
		})
	}

	assert.Equal(t, 0, Date(day).Value().(time.Time).Hour())
}

func TestExtractIdentity(t *testing.T) {
	a, b := sample(), sample()
	assert.True(t, Equal(a, b))
	assert.Equal(t, a.Extract().Hash(), b.Extract().Hash())
	assert.Equal(t, 6, a.Extract().Complexity)

	moved := WithMeta(a, Meta{Position: Position{Row: 3, Col: 7}})
	assert.True(t, Equal(a, moved), "position is not identity")
	assert.Equal(t, 3, moved.Meta().Position.Row)

	assert.False(t, Equal(Integer(1), Float(1)))
	assert.False(t, Equal(String("1"), Integer(1)))
	assert.False(t, Equal(NewOperator("-", Integer(1)), NewFunction("-", Integer(1))))
	assert.False(t, Equal(
		DatetimeTZ(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		DatetimeTZ(time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 0))),
	), "timezone is part of a tz-aware literal")
}

func TestExtractKeyDoesNotGrowWithDepth(t *testing.T) {
	chain := func(leaf Node) Node {
		n := leaf
		for i := 0; i < 2000; i++ {
			n = NewOperator("not", n)
		}
		return n
	}
	a, b := chain(NewField("flag")), chain(NewField("flag"))
	other := chain(NewField("other"))

	assert.Less(t, len(a.Extract().Key()), 64)
	assert.Equal(t, 2001, a.Extract().Complexity)
	assert.Equal(t, a.Extract().Key(), b.Extract().Key())
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, other))
	assert.NotEqual(t, a.Extract().Key(), other.Extract().Key())
}

func TestExtractDistinguishesWindowParts(t *testing.T) {
	x, g := NewField("x"), NewField("g")
	within := NewWindow("rsum", []Node{x}, []Node{g}, nil)
	order := NewWindow("rsum", []Node{x}, nil, []Node{g})
	assert.False(t, Equal(within, order))
}

func TestWithChildren(t *testing.T) {
	call := NewOperator("+", Integer(1), Integer(2))
	swapped := WithChildren(call, []Node{Integer(2), Integer(1)})
	assert.Equal(t, "(2 + 1)", Format(swapped))
	assert.Equal(t, "(1 + 2)", Format(call), "original is untouched")

	ifb := sample()
	rebuilt := WithChildren(ifb, ifb.Children())
	assert.True(t, Equal(ifb, rebuilt))

	leaf := NewField("a")
	assert.Same(t, Node(leaf), WithChildren(leaf, nil))

	assert.Panics(t, func() { WithChildren(call, nil) })
}

func TestBeforeFilterByNames(t *testing.T) {
	n := NewBeforeFilterBy(NewField("x"), "b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, n.Names())
	assert.True(t, Equal(n, NewBeforeFilterBy(NewField("x"), "a", "b")))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"if", sample(), "IF ([a] > 0) THEN 'pos' ELSE 'neg' END"},
		{
			"case",
			NewCaseBlock(NewField("c"), []Branch{{When: Integer(1), Then: String("one")}}, nil),
			"CASE [c] WHEN 1 THEN 'one' ELSE NULL END",
		},
		{"paren", NewParen(NewOperator("not", Boolean(true))), "(not(TRUE))"},
		{"float", Float(2), "2.0"},
		{"array", ArrayString("a", "b'c"), "['a', 'b''c']"},
		{"date", Date(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)), "#2024-03-09#"},
		{"window", NewWindow("rsum", []Node{NewField("x")}, []Node{NewField("g")}, []Node{NewField("t")}), "rsum([x] WITHIN [g] ORDER BY [t])"},
		{"scope", NewBeforeFilterBy(NewAggregate("sum", NewField("x")), "city"), "(sum([x]) BEFORE FILTER BY [city])"},
		{"compiled", NewCompiled(&render.Raw{Text: "now()"}, datatype.Datetime), "compiled(now())"},
		{"field escape", NewField("a]b"), "[a]]b]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.node))
		})
	}
}

func TestPretty(t *testing.T) {
	n := WithMeta(NewOperator(">", NewField("a"), Integer(0)), Meta{Position: Position{Row: 1, Col: 2}})
	want := "func > operator @1:2\n  field a\n  literal CONST_INTEGER 0\n"
	assert.Equal(t, want, Pretty(n))
}

func TestWalkAndFields(t *testing.T) {
	tree := NewOperator("and",
		NewOperator(">", NewField("a"), NewField("b")),
		NewOperator("<", NewField("a"), Integer(3)),
	)
	assert.Equal(t, []string{"a", "b"}, Fields(tree))

	depths := map[string]int{}
	Walk(tree, func(n Node, parents []Node) bool {
		if f, ok := n.(*Field); ok {
			depths[f.Name()] = len(parents)
		}
		return true
	})
	assert.Equal(t, 2, depths["a"])

	visited := 0
	Walk(tree, func(n Node, parents []Node) bool {
		visited++
		return len(parents) == 0
	})
	require.Equal(t, 3, visited)
}
