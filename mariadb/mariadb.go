// Package mariadb provides the MariaDB dialect connector for formula.
package mariadb

import (
	"strings"

	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Family is the MARIADB dialect family. Window functions arrived in 10.2.
var Family = dialect.MustRegister("MARIADB", "10.1", "10.6", "11.4")

// Renderer implements MariaDB literal rendering. Timezone-aware datetimes
// are normalized to UTC because DATETIME carries no zone.
type Renderer struct {
	render.ANSILiteralizer
}

// New creates a new MariaDB renderer.
func New() *Renderer {
	return &Renderer{ANSILiteralizer: render.ANSILiteralizer{
		True:      "TRUE",
		False:     "FALSE",
		Timezones: render.TimezoneNone,
	}}
}

// LiteralString escapes backslashes, which MariaDB treats as escape
// characters inside string literals.
func (r *Renderer) LiteralString(_ dialect.Combo, v string) (render.Expr, error) {
	return &render.Literal{Text: render.QuoteString(strings.ReplaceAll(v, `\`, `\\`))}, nil
}

// Features returns the expression features of MariaDB versions with window
// functions.
func (r *Renderer) Features() render.Features {
	return render.Features{
		NativeBoolean:    true,
		WindowFunctions:  true,
		QualifiedColumns: true,
		Timezones:        render.TimezoneNone,
	}
}

func ops() []registry.BasicOpItem {
	all := Family.All()
	one := registry.Fixed(1)
	fn := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Function)
	}
	str := datatype.ConstIfAll{T: datatype.String}

	return []registry.BasicOpItem{
		// || is logical OR unless PIPES_AS_CONCAT is set.
		registry.Define(definitions.Add, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Strings, registry.Strings), str, registry.Call("CONCAT")).
			Item(),
		registry.Define(definitions.Div, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Integers, registry.Integers), datatype.ConstIfAll{T: datatype.Float}, registry.Infix("/")).
			Item(),
		fn("str", one).
			ForDialect(all, registry.Sig(registry.AnyType), str, registry.Cast("CHAR")).
			Item(),
		fn("int", one).
			ForDialect(all, registry.Sig(registry.Scalars), datatype.ConstIfAll{T: datatype.Integer}, registry.Cast("SIGNED")).
			Item(),
		fn("float", one).
			ForDialect(all, registry.Sig(registry.Scalars), datatype.ConstIfAll{T: datatype.Float}, registry.Cast("DOUBLE")).
			Item(),
		fn("len", one).
			ForDialect(all, registry.Sig(registry.Strings), datatype.ConstIfAll{T: datatype.Integer}, registry.Call("CHAR_LENGTH")).
			Item(),
		fn("now", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Datetime}, registry.Call("NOW")).
			Item(),
		fn("today", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Date}, registry.Call("CURDATE")).
			Item(),
		fn("uuid", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.UUID}, registry.Call("UUID")).
			Item(),
	}
}

// Connector returns the MariaDB connector.
func Connector() connector.Connector {
	r := New()
	all := Family.All()
	legacy := Family.Version("10.1")
	noWindows := r.Features()
	noWindows.WindowFunctions = false

	return connector.Connector{
		Family:   Family,
		Literals: connector.For[render.Literalizer](all, r),
		Columns:  connector.For[render.ColumnRenderer](all, render.Backticked),
		Features: []dialect.Candidate[render.Features]{
			{Dialects: all, Value: r.Features()},
			{Dialects: legacy, Value: noWindows},
		},
		Ops: ops(),
		Overrides: []registry.Override{
			registry.Exclude(definitions.Unnest, registry.Fixed(1), all, "MariaDB has no array type"),
			registry.Exclude(definitions.RSum, registry.Fixed(1), legacy, "window functions arrived in 10.2"),
			registry.Exclude(definitions.Rank, registry.Fixed(1), legacy, "window functions arrived in 10.2"),
		},
	}
}
