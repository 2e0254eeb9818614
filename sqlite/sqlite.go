// Package sqlite provides the SQLite dialect connector for formula.
package sqlite

import (
	"time"

	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Family is the SQLITE dialect family. Window functions arrived in 3.25 and
// CONCAT in 3.44.
var Family = dialect.MustRegister("SQLITE", "3.22", "3.30", "3.44")

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.999"
)

// Renderer implements SQLite literal rendering. Dates and datetimes are
// ISO-8601 text, which is what SQLite's date functions read.
type Renderer struct {
	render.ANSILiteralizer
}

// New creates a new SQLite renderer.
func New() *Renderer {
	return &Renderer{ANSILiteralizer: render.ANSILiteralizer{
		True:      "1",
		False:     "0",
		Timezones: render.TimezoneNone,
	}}
}

func (r *Renderer) LiteralDate(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Literal{Text: render.QuoteString(v.Format(dateLayout))}, nil
}

func (r *Renderer) LiteralDatetime(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Literal{Text: render.QuoteString(v.Format(datetimeLayout))}, nil
}

func (r *Renderer) LiteralDatetimeTZ(d dialect.Combo, v time.Time) (render.Expr, error) {
	return r.LiteralDatetime(d, v.UTC())
}

func (r *Renderer) LiteralGenericDatetime(d dialect.Combo, v time.Time) (render.Expr, error) {
	return r.LiteralDatetime(d, v)
}

// Features returns the expression features of SQLite versions with window
// functions.
func (r *Renderer) Features() render.Features {
	return render.Features{
		NativeBoolean:    true,
		WindowFunctions:  true,
		QualifiedColumns: true,
		Timezones:        render.TimezoneNone,
	}
}

// Strftime renders CAST(STRFTIME(format, arg) AS INTEGER).
type Strftime struct {
	Format string
}

func (r Strftime) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Cast{
		Expr: &render.Func{Name: "STRFTIME", Args: []render.Expr{&render.Literal{Text: render.QuoteString(r.Format)}, args[0].Expr}},
		Type: "INTEGER",
	}, nil
}

func ops() []registry.BasicOpItem {
	all := Family.All()
	one := registry.Fixed(1)
	fn := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Function)
	}
	str := datatype.ConstIfAll{T: datatype.String}
	integer := datatype.ConstIfAll{T: datatype.Integer}

	items := []registry.BasicOpItem{
		registry.Define(definitions.Div, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Integers, registry.Integers), datatype.ConstIfAll{T: datatype.Float},
				definitions.FloatDivide{Type: "REAL"}).
			Item(),
		fn("str", one).
			ForDialect(all, registry.Sig(registry.AnyType), str, registry.Cast("TEXT")).
			Item(),
		fn("float", one).
			ForDialect(all, registry.Sig(registry.Scalars), datatype.ConstIfAll{T: datatype.Float}, registry.Cast("REAL")).
			Item(),
		fn("concat", registry.AtLeast(1)).
			ForDialect(all, registry.Repeat(registry.Strings), str, registry.Infix("||")).
			ForDialect(Family.AtLeast("3.44"), registry.Repeat(registry.Strings), str, registry.Call("CONCAT")).
			Item(),
		fn("now", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Datetime}, registry.Keyword("DATETIME('now')")).
			Item(),
		fn("today", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Date}, registry.Keyword("DATE('now')")).
			Item(),
	}
	for _, p := range []struct{ name, format string }{{"year", "%Y"}, {"month", "%m"}, {"day", "%d"}} {
		items = append(items, fn(p.name, one).
			ForDialect(all, registry.Sig(registry.Dates), integer, Strftime{Format: p.format}).
			Item())
	}
	return items
}

// Connector returns the SQLite connector.
func Connector() connector.Connector {
	r := New()
	all := Family.All()
	legacy := Family.Version("3.22")
	noWindows := r.Features()
	noWindows.WindowFunctions = false

	return connector.Connector{
		Family:   Family,
		Literals: connector.For[render.Literalizer](all, r),
		Columns:  connector.For[render.ColumnRenderer](all, render.DoubleQuoted),
		Features: []dialect.Candidate[render.Features]{
			{Dialects: all, Value: r.Features()},
			{Dialects: legacy, Value: noWindows},
		},
		Ops: ops(),
		Overrides: []registry.Override{
			registry.Exclude(definitions.Unnest, registry.Fixed(1), all, "SQLite has no array type"),
		},
	}
}
