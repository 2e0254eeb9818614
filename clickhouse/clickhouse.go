// Package clickhouse provides the ClickHouse dialect connector for formula.
package clickhouse

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Family is the CLICKHOUSE dialect family. 21.8 is the first version with
// window functions and named-zone datetime constructors.
var Family = dialect.MustRegister("CLICKHOUSE", "19.13", "21.8")

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// Renderer implements ClickHouse literal rendering.
type Renderer struct {
	render.ANSILiteralizer
}

// New creates a renderer for ClickHouse versions whose constructors accept
// a time zone.
func New() *Renderer {
	return &Renderer{ANSILiteralizer: render.ANSILiteralizer{
		True:       "1",
		False:      "0",
		ArrayOpen:  "[",
		ArrayClose: "]",
		Timezones:  render.TimezoneNamed,
	}}
}

// NewLegacy creates a renderer for versions without zone-aware constructors.
func NewLegacy() *Renderer {
	r := New()
	r.Timezones = render.TimezoneNone
	return r
}

func quote(s string) string {
	return render.QuoteString(strings.ReplaceAll(s, `\`, `\\`))
}

func (r *Renderer) LiteralString(_ dialect.Combo, v string) (render.Expr, error) {
	return &render.Literal{Text: quote(v)}, nil
}

func (r *Renderer) LiteralArrayString(d dialect.Combo, v []string) (render.Expr, error) {
	items := make([]render.Expr, len(v))
	for i, x := range v {
		items[i], _ = r.LiteralString(d, x)
	}
	return r.Array(d, items)
}

func (r *Renderer) LiteralDate(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Func{Name: "toDate", Args: []render.Expr{&render.Literal{Text: quote(v.Format(dateLayout))}}}, nil
}

func (r *Renderer) LiteralDatetime(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Func{Name: "toDateTime", Args: []render.Expr{&render.Literal{Text: quote(v.Format(datetimeLayout))}}}, nil
}

func (r *Renderer) LiteralGenericDatetime(d dialect.Combo, v time.Time) (render.Expr, error) {
	return r.LiteralDatetime(d, v)
}

// LiteralDatetimeTZ keeps the value's named zone when the version supports
// it. Offsets without a zone name, and legacy versions, use UTC.
func (r *Renderer) LiteralDatetimeTZ(d dialect.Combo, v time.Time) (render.Expr, error) {
	if r.Timezones != render.TimezoneNamed {
		return r.LiteralDatetime(d, v.UTC())
	}
	zone := v.Location().String()
	if zone == "" || zone == "Local" || strings.HasPrefix(zone, "+") || strings.HasPrefix(zone, "-") {
		v, zone = v.UTC(), "UTC"
	}
	return &render.Func{Name: "toDateTime", Args: []render.Expr{
		&render.Literal{Text: quote(v.Format(datetimeLayout))},
		&render.Literal{Text: quote(zone)},
	}}, nil
}

func (r *Renderer) LiteralUUID(_ dialect.Combo, v uuid.UUID) (render.Expr, error) {
	return &render.Func{Name: "toUUID", Args: []render.Expr{&render.Literal{Text: quote(v.String())}}}, nil
}

// Features returns the expression features of r's versions.
func (r *Renderer) Features() render.Features {
	return render.Features{
		NativeBoolean:    true,
		NativeArrays:     true,
		WindowFunctions:  r.Timezones == render.TimezoneNamed,
		QualifiedColumns: true,
		Timezones:        r.Timezones,
	}
}

func ops() []registry.BasicOpItem {
	all := Family.All()
	one := registry.Fixed(1)
	fn := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Function)
	}
	str := datatype.ConstIfAll{T: datatype.String}
	integer := datatype.ConstIfAll{T: datatype.Integer}
	float := datatype.ConstIfAll{T: datatype.Float}

	items := []registry.BasicOpItem{
		registry.Define(definitions.Add, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Strings, registry.Strings), str, registry.Call("concat")).
			Item(),
		registry.Define(definitions.Div, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Integers, registry.Integers), float, registry.Infix("/")).
			Item(),
		fn("str", one).ForDialect(all, registry.Sig(registry.AnyType), str, registry.Call("toString")).Item(),
		fn("int", one).ForDialect(all, registry.Sig(registry.Scalars), integer, registry.Call("toInt64")).Item(),
		fn("float", one).ForDialect(all, registry.Sig(registry.Scalars), float, registry.Call("toFloat64")).Item(),
		fn("len", one).ForDialect(all, registry.Sig(registry.Strings), integer, registry.Call("lengthUTF8")).Item(),
		fn("year", one).ForDialect(all, registry.Sig(registry.Dates), integer, registry.Call("toYear")).Item(),
		fn("month", one).ForDialect(all, registry.Sig(registry.Dates), integer, registry.Call("toMonth")).Item(),
		fn("day", one).ForDialect(all, registry.Sig(registry.Dates), integer, registry.Call("toDayOfMonth")).Item(),
		fn("now", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Datetime}, registry.Call("now")).
			Item(),
		fn("today", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Date}, registry.Call("today")).
			Item(),
		fn("uuid", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.UUID}, registry.Call("generateUUIDv4")).
			Item(),
		fn("index_of", registry.Fixed(2)).
			ForDialect(all, definitions.ContainsSig, datatype.Fixed{T: datatype.Integer}, registry.Call("indexOf")).
			Item(),
		definitions.ArrayFor(all, definitions.ArrayConstructor{Open: "[", Close: "]"}),
		definitions.ContainsFor(all, registry.Call("has")),
	}
	return items
}

// Connector returns the ClickHouse connector.
func Connector() connector.Connector {
	all := Family.All()
	modern := Family.AtLeast("21.8")
	current, legacy := New(), NewLegacy()

	return connector.Connector{
		Family: Family,
		Literals: []dialect.Candidate[render.Literalizer]{
			{Dialects: all, Value: legacy},
			{Dialects: modern, Value: current},
		},
		Columns: connector.For[render.ColumnRenderer](all, render.Backticked),
		Features: []dialect.Candidate[render.Features]{
			{Dialects: all, Value: legacy.Features()},
			{Dialects: modern, Value: current.Features()},
		},
		Ops: ops(),
		Overrides: []registry.Override{
			registry.Replace(
				registry.Define(definitions.Unnest, registry.Fixed(1), registry.Function).
					ForDialect(all, registry.Sig(registry.Arrays), datatype.Runtime{Inner: datatype.ItemOf{Index: 0}}, registry.Call("arrayJoin")).
					Item(),
				all, "arrayJoin expands arrays in ClickHouse"),
		},
	}
}
