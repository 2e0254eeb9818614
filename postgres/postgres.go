// Package postgres provides the PostgreSQL dialect connector for formula.
package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Family is the POSTGRESQL dialect family. 9.5 added array_position.
var Family = dialect.MustRegister("POSTGRESQL", "9.4", "9.5", "13", "16")

const tzLayout = "2006-01-02 15:04:05.999999-07:00"

// Renderer implements PostgreSQL literal and column rendering.
type Renderer struct {
	render.ANSILiteralizer
}

// New creates a new PostgreSQL renderer.
func New() *Renderer {
	return &Renderer{ANSILiteralizer: render.ANSILiterals}
}

// LiteralDatetimeTZ renders a TIMESTAMPTZ constructor keeping the offset.
func (r *Renderer) LiteralDatetimeTZ(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Literal{Text: "TIMESTAMPTZ " + render.QuoteString(v.Format(tzLayout))}, nil
}

func (r *Renderer) LiteralUUID(_ dialect.Combo, v uuid.UUID) (render.Expr, error) {
	return &render.Literal{Text: render.QuoteString(v.String()) + "::UUID"}, nil
}

// MakeColumn quotes every name part with pgx's identifier sanitizer.
func (r *Renderer) MakeColumn(name string, names render.FieldNames) *render.Column {
	parts := names.Parts(name)
	return &render.Column{Parts: parts, Text: pgx.Identifier(parts).Sanitize()}
}

func (r *Renderer) MakeUnprefixedColumn(name string, names render.FieldNames) *render.Column {
	parts := names.Parts(name)
	last := parts[len(parts)-1]
	return &render.Column{Parts: []string{last}, Text: r.quoteIdentifier(last)}
}

// quoteIdentifier quotes a PostgreSQL identifier to handle reserved words and special characters.
func (r *Renderer) quoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Features returns the expression features supported by PostgreSQL.
func (r *Renderer) Features() render.Features {
	f := render.ANSI
	f.NativeArrays = true
	return f
}

// ArrayContains renders contains(a, v) as v = ANY(a), or as a NULL scan
// when v is the NULL literal.
type ArrayContains struct{}

func (ArrayContains) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	arr, v := args[0], args[1]
	if v.Type == datatype.Null {
		return &render.Binary{
			Op:    "<>",
			Left:  arr.Expr,
			Right: &render.Func{Name: "array_remove", Args: []render.Expr{arr.Expr, v.Expr}},
		}, nil
	}
	return &render.Binary{Op: "=", Left: v.Expr, Right: &render.Func{Name: "ANY", Args: []render.Expr{arr.Expr}}}, nil
}

// IndexOf renders the 1-based position of v in a, or 0. Before 9.5 the
// position is found by scanning generate_subscripts.
type IndexOf struct {
	Legacy bool
}

func (r IndexOf) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	arr, v := args[0].Expr.SQL(), args[1].Expr.SQL()
	var pos render.Expr
	if r.Legacy {
		pos = &render.Raw{Text: fmt.Sprintf(
			"(SELECT i FROM generate_subscripts(%s, 1) AS i WHERE (%s)[i] = %s ORDER BY i LIMIT 1)", arr, arr, v)}
	} else {
		pos = &render.Func{Name: "array_position", Args: []render.Expr{args[0].Expr, args[1].Expr}}
	}
	return &render.Func{Name: "COALESCE", Args: []render.Expr{pos, &render.Literal{Text: "0"}}}, nil
}

func ops() []registry.BasicOpItem {
	all := Family.All()
	integer := datatype.Fixed{T: datatype.Integer}
	return []registry.BasicOpItem{
		registry.Define(definitions.Div, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Integers, registry.Integers), datatype.ConstIfAll{T: datatype.Float},
				definitions.FloatDivide{Type: "DOUBLE PRECISION"}).
			Item(),
		registry.Define("float", registry.Fixed(1), registry.Function).
			ForDialect(all, registry.Sig(registry.Scalars), datatype.ConstIfAll{T: datatype.Float}, registry.Cast("DOUBLE PRECISION")).
			Item(),
		registry.Define("str", registry.Fixed(1), registry.Function).
			ForDialect(all, registry.Sig(registry.AnyType), datatype.ConstIfAll{T: datatype.String}, registry.Cast("TEXT")).
			Item(),
		registry.Define("int", registry.Fixed(1), registry.Function).
			ForDialect(all, registry.Sig(registry.Scalars), datatype.ConstIfAll{T: datatype.Integer}, registry.Cast("BIGINT")).
			Item(),
		definitions.ArrayFor(all, definitions.ArrayConstructor{Prefix: "ARRAY", Open: "[", Close: "]"}),
		definitions.ContainsFor(all, ArrayContains{}),
		registry.Define("index_of", registry.Fixed(2), registry.Function).
			ForDialect(all, definitions.ContainsSig, integer, IndexOf{Legacy: true}).
			ForDialect(Family.AtLeast("9.5"), definitions.ContainsSig, integer, IndexOf{}).
			Item(),
		registry.Define("uuid", registry.Fixed(0), registry.Function).
			ForDialect(Family.AtLeast("13"), registry.Sig(), datatype.Fixed{T: datatype.UUID}, registry.Call("gen_random_uuid")).
			Item(),
	}
}

// Connector returns the PostgreSQL connector.
func Connector() connector.Connector {
	r := New()
	all := Family.All()
	return connector.Connector{
		Family:   Family,
		Literals: connector.For[render.Literalizer](all, r),
		Columns:  connector.For[render.ColumnRenderer](all, r),
		Features: connector.For(all, r.Features()),
		Ops:      ops(),
	}
}
