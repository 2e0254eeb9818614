package astfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/nodes"
)

func TestParseNode(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"integer scalar", "42", "42"},
		{"string scalar", "hello", `'hello'`},
		{"null scalar", "~", "NULL"},
		{"field", "field: amount", "[amount]"},
		{"operator", "op: +\nargs: [{field: a}, 1]", "([a] + 1)"},
		{"function", "func: len\nargs: [{field: s}]", "len([s])"},
		{"aggregate", "agg: sum\nargs: [{field: a}]", "sum([a])"},
		{
			"window", "window: rsum\nargs: [{field: a}]\nwithin: [{field: g}]\norder: [{field: d}]",
			"rsum([a] WITHIN [g] ORDER BY [d])",
		},
		{
			"if block", "if:\n  - when: {op: '>', args: [{field: a}, 0]}\n    then: pos\nelse: neg",
			`IF ([a] > 0) THEN 'pos' ELSE 'neg' END`,
		},
		{
			"case block", "case: {field: c}\nbranches:\n  - {when: 1, then: one}",
			`CASE [c] WHEN 1 THEN 'one' ELSE NULL END`,
		},
		{"paren", "paren: {field: a}", "([a])"},
		{"scope", "scope: [year]\nexpr: {agg: sum, args: [{field: a}]}", "(sum([a]) BEFORE FILTER BY [year])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNode([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, nodes.Format(n))
		})
	}
}

func TestLiteralKinds(t *testing.T) {
	tests := []struct {
		yaml string
		typ  datatype.DataType
	}{
		{"1.5", datatype.ConstFloat},
		{"true", datatype.ConstBoolean},
		{"2024-03-01", datatype.Date.Const()},
		{"date: '2024-03-01'", datatype.Date.Const()},
		{"datetime: '2024-03-01 10:30:00'", datatype.Datetime.Const()},
		{"datetimetz: '2024-03-01T10:30:00+02:00'", datatype.DatetimeTZ.Const()},
		{"uuid: 6ba7b810-9dad-11d1-80b4-00c04fd430c8", datatype.UUID.Const()},
		{"point: POINT(1 2)", datatype.Geopoint.Const()},
		{"ints: [1, 2, 3]", datatype.ArrayInt.Const()},
		{"floats: [1.5]", datatype.ArrayFloat.Const()},
		{"strs: [a, b]", datatype.ArrayStr.Const()},
		{"tree: [a, b]", datatype.TreeStr.Const()},
		{"str: '12'", datatype.ConstString},
		{"int: 7", datatype.ConstInteger},
	}
	for _, tt := range tests {
		t.Run(tt.yaml, func(t *testing.T) {
			n, err := ParseNode([]byte(tt.yaml))
			require.NoError(t, err)
			lit, ok := n.(*nodes.Literal)
			require.True(t, ok, "got %T", n)
			assert.Equal(t, tt.typ, lit.Type())
		})
	}
}

func TestPositions(t *testing.T) {
	n, err := ParseNode([]byte("op: +\nargs:\n  - field: a\n  - 1\n"))
	require.NoError(t, err)
	assert.Equal(t, nodes.Position{Row: 1, Col: 1}, n.Meta().Position)

	args := n.(*nodes.FuncCall).Args()
	assert.Equal(t, nodes.Position{Row: 3, Col: 5}, args[0].Meta().Position)
	assert.Equal(t, nodes.Position{Row: 4, Col: 5}, args[1].Meta().Position)
}

func TestParseNodeErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		line int
	}{
		{"two kinds", "field: a\nop: +", 1},
		{"unknown key", "field: a\nargs: []", 2},
		{"no kind", "args: []", 1},
		{"bad branch", "if: [{when: 1}]", 1},
		{"bad uuid", "uuid: nope", 1},
		{"args not a list", "func: f\nargs: 1", 2},
		{"case without branches", "case: 1", 1},
		{"sequence", "- 1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNode([]byte(tt.yaml))
			require.Error(t, err)
			var e *Error
			require.True(t, errors.As(err, &e), "err = %v", err)
			assert.Equal(t, tt.line, e.Line)
		})
	}
}

func TestParseDocument(t *testing.T) {
	doc, err := Parse([]byte(`
dialect: MSSQL_2022
condition: true
fields:
  a: INTEGER
names:
  a: [t, a]
formulas:
  second: {op: '>', args: [{field: a}, 1]}
  first: {field: a}
`))
	require.NoError(t, err)
	assert.Equal(t, "MSSQL_2022", doc.Dialect)
	assert.True(t, doc.Condition)
	assert.Equal(t, "INTEGER", doc.Fields["a"])
	require.Len(t, doc.Formulas, 2)
	assert.Equal(t, "second", doc.Formulas[0].Name)
	assert.Equal(t, "first", doc.Formulas[1].Name)

	single, err := Parse([]byte("formula: {field: a}\n"))
	require.NoError(t, err)
	require.Len(t, single.Formulas, 1)
	assert.Equal(t, "formula", single.Formulas[0].Name)
}

func TestParseDocumentErrors(t *testing.T) {
	for name, src := range map[string]string{
		"no formula":    "dialect: ANY\n",
		"both forms":    "formula: 1\nformulas: {a: 1}\n",
		"unknown key":   "formula: 1\nextra: 2\n",
		"formulas list": "formulas: [1]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}
