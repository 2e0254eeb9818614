package mutation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/render"
)

func field(name string) nodes.Node { return nodes.NewField(name) }

func op(name string, args ...nodes.Node) nodes.Node { return nodes.NewOperator(name, args...) }

func standard(t *testing.T, features render.Features) []Mutation {
	t.Helper()
	ms, err := Standard(Config{
		Features:   features,
		FieldTypes: map[string]datatype.DataType{"flag": datatype.Boolean, "n": datatype.Integer},
		Scopes:     map[string]string{"region": "geo", "geo": "geo"},
	})
	require.NoError(t, err)
	return ms
}

func TestMutations(t *testing.T) {
	noBools := render.ANSI
	noBools.NativeBoolean = false

	tests := []struct {
		name     string
		features render.Features
		in       nodes.Node
		want     string
	}{
		{
			name: "if block lowers to call",
			in: nodes.NewIfBlock([]nodes.Branch{
				{When: op(">", field("n"), nodes.Integer(0)), Then: nodes.String("pos")},
				{When: op("<", field("n"), nodes.Integer(0)), Then: nodes.String("neg")},
			}, nil),
			want: "if(([n] > 0), 'pos', ([n] < 0), 'neg', NULL)",
		},
		{
			name: "case block lowers to call",
			in: nodes.NewCaseBlock(field("n"), []nodes.Branch{
				{When: nodes.Integer(1), Then: nodes.String("one")},
			}, nodes.String("many")),
			want: "case([n], 1, 'one', 'many')",
		},
		{
			name: "nested parens are dropped",
			in:   nodes.NewParen(nodes.NewParen(op("+", field("a"), field("b")))),
			want: "([a] + [b])",
		},
		{
			name: "double negation",
			in:   op("not", op("not", op("like", field("s"), nodes.String("a%")))),
			want: "([s] like 'a%')",
		},
		{
			name: "triple negation keeps one",
			in:   op("not", op("not", op("not", field("x")))),
			want: "not([x])",
		},
		{
			name: "negated comparison inverts",
			in:   op("not", op("<", field("a"), field("b"))),
			want: "([a] >= [b])",
		},
		{
			name: "negated literal folds",
			in:   op("not", nodes.Boolean(true)),
			want: "FALSE",
		},
		{
			name:     "negated boolean field on native booleans stays",
			features: render.ANSI,
			in:       op("not", field("flag")),
			want:     "not([flag])",
		},
		{
			name:     "negated boolean field without native booleans",
			features: noBools,
			in:       op("not", field("flag")),
			want:     "([flag] == FALSE)",
		},
		{
			name: "scope names are remapped",
			in:   nodes.NewBeforeFilterBy(op("+", field("a"), nodes.Integer(1)), "region", "year"),
			want: "(([a] + 1) BEFORE FILTER BY [geo], [year])",
		},
		{
			name: "constant math",
			in:   op("+", nodes.Integer(2), op("*", nodes.Integer(3), nodes.Integer(4))),
			want: "14",
		},
		{
			name: "division yields float",
			in:   op("/", nodes.Integer(7), nodes.Integer(2)),
			want: "3.5",
		},
		{
			name: "division by zero is kept",
			in:   op("/", nodes.Integer(1), nodes.Integer(0)),
			want: "(1 / 0)",
		},
		{
			name: "string concatenation",
			in:   op("+", nodes.String("a"), nodes.String("b")),
			want: "'ab'",
		},
		{
			name: "unary minus",
			in:   op("-", nodes.Float(1.5)),
			want: "-1.5",
		},
		{
			name: "constant comparison",
			in:   op("<=", nodes.Integer(2), nodes.Float(2.5)),
			want: "TRUE",
		},
		{
			name: "date comparison",
			in: op("==",
				nodes.Date(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
				nodes.Date(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC))),
			want: "TRUE",
		},
		{
			name: "and drops true operands",
			in:   op("and", op(">", field("a"), nodes.Integer(1)), op("==", nodes.Integer(1), nodes.Integer(1))),
			want: "([a] > 1)",
		},
		{
			name: "and with false collapses",
			in:   op("and", field("a"), nodes.Boolean(false)),
			want: "FALSE",
		},
		{
			name: "integer addition overflow is kept",
			in:   op("+", nodes.Integer(math.MaxInt64), nodes.Integer(1)),
			want: "(9223372036854775807 + 1)",
		},
		{
			name: "integer multiplication overflow is kept",
			in:   op("*", nodes.Integer(math.MaxInt64), nodes.Integer(2)),
			want: "(9223372036854775807 * 2)",
		},
		{
			name: "integer subtraction overflow is kept",
			in:   op("-", nodes.Integer(math.MinInt64), nodes.Integer(1)),
			want: "(-9223372036854775808 - 1)",
		},
		{
			name: "negating the smallest integer is kept",
			in:   op("-", nodes.Integer(math.MinInt64)),
			want: "-(-9223372036854775808)",
		},
		{
			name: "integer math stays exact",
			in:   op("+", nodes.Integer(9007199254740992), nodes.Integer(1)),
			want: "9007199254740993",
		},
		{
			name: "modulo by zero is kept",
			in:   op("%", nodes.Integer(7), nodes.Integer(0)),
			want: "(7 % 0)",
		},
		{
			name: "large integer comparison is exact",
			in:   op("==", nodes.Integer(9007199254740993), nodes.Integer(9007199254740992)),
			want: "FALSE",
		},
		{
			name: "folded math feeds comparison",
			in:   op("==", op("+", nodes.Integer(1), nodes.Integer(1)), nodes.Integer(2)),
			want: "TRUE",
		},
		{
			name: "folded logic exposes negated comparison",
			in:   op("not", op("and", nodes.Boolean(true), op(">", field("a"), nodes.Integer(0)))),
			want: "([a] <= 0)",
		},
		{
			name: "negated literal collapses its conjunction",
			in:   op("and", op(">", field("a"), nodes.Integer(0)), op("not", op("or", field("b"), nodes.Boolean(true)))),
			want: "FALSE",
		},
		{
			name: "or keeps a non-predicate operand boolean",
			in:   op("or", field("a"), nodes.Boolean(false), nodes.Boolean(false)),
			want: "([a] or FALSE)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := tt.features
			if features == (render.Features{}) {
				features = render.ANSI
			}
			ms := standard(t, features)
			once := Apply(tt.in, ms...)
			assert.Equal(t, tt.want, nodes.Format(once))

			twice := Apply(once, ms...)
			assert.True(t, nodes.Equal(once, twice), "pipeline is idempotent: %s", nodes.Format(twice))
		})
	}
}

func TestEachMutationIsIdempotent(t *testing.T) {
	tree := nodes.NewIfBlock([]nodes.Branch{{
		When: op("not", op("not", nodes.NewParen(op("==", field("flag"), nodes.Boolean(true))))),
		Then: nodes.NewBeforeFilterBy(nodes.NewAggregate("sum", field("n")), "region"),
	}}, op("-", nodes.Integer(1)))

	noBools := render.ANSI
	noBools.NativeBoolean = false
	for _, m := range standard(t, noBools) {
		t.Run(m.Name(), func(t *testing.T) {
			once := Apply(tree, m)
			assert.True(t, nodes.Equal(once, Apply(once, m)))
		})
	}
}

func TestRemapScopesRejectsChains(t *testing.T) {
	_, err := NewRemapScopes(map[string]string{"a": "b", "b": "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> b -> c")

	_, err = Standard(Config{Scopes: map[string]string{"a": "b", "b": "a"}})
	assert.Error(t, err)

	_, err = NewRemapScopes(map[string]string{"a": "b", "b": "b"})
	assert.NoError(t, err)
}

func TestApplyKeepsPositions(t *testing.T) {
	pos := nodes.Meta{Position: nodes.Position{Row: 3, Col: 7}}
	tree := nodes.WithMeta(op("+", nodes.Integer(1), nodes.Integer(2)), pos)
	out := Apply(tree, FoldConstMath{})
	assert.Equal(t, "3", nodes.Format(out))
	assert.Equal(t, pos.Position, out.Meta().Position)
}

func TestApplyLeavesUntouchedTreesShared(t *testing.T) {
	tree := op("+", field("a"), field("b"))
	assert.Same(t, tree, Apply(tree, DropParens{}, LowerBlocks{}))
}

type recorder struct {
	order []string
	top   bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Order() Order {
	if r.top {
		return TopDown
	}
	return BottomUp
}

func (r *recorder) Match(n nodes.Node, _ []nodes.Node) bool {
	r.order = append(r.order, n.Kind())
	return false
}

func (r *recorder) Replace(n nodes.Node, _ []nodes.Node) nodes.Node { return n }

func TestWalkOrder(t *testing.T) {
	tree := op("not", field("a"))

	up := &recorder{}
	Apply(tree, up)
	assert.Equal(t, []string{"field", "func"}, up.order)

	down := &recorder{top: true}
	Apply(tree, down)
	assert.Equal(t, []string{"func", "field"}, down.order)
}
