// Package mssql provides the SQL Server dialect connector for formula.
package mssql

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

// Family is the MSSQL dialect family. TRIM arrived in 2017.
var Family = dialect.MustRegister("MSSQL", "2012", "2017", "2022")

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.9999999"
)

// Renderer implements SQL Server literal rendering. Strings holding
// non-ASCII text get the N prefix; booleans are BIT values.
type Renderer struct {
	render.ANSILiteralizer
}

// New creates a new SQL Server renderer.
func New() *Renderer {
	return &Renderer{ANSILiteralizer: render.ANSILiteralizer{
		True:       "1",
		False:      "0",
		WidePrefix: "N",
		Timezones:  render.TimezoneOffset,
	}}
}

func cast(text, typ string) render.Expr {
	return &render.Cast{Expr: &render.Literal{Text: render.QuoteString(text)}, Type: typ}
}

func (r *Renderer) LiteralDate(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return cast(v.Format(dateLayout), "DATE"), nil
}

func (r *Renderer) LiteralDatetime(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return cast(v.Format(datetimeLayout), "DATETIME2"), nil
}

func (r *Renderer) LiteralGenericDatetime(d dialect.Combo, v time.Time) (render.Expr, error) {
	return r.LiteralDatetime(d, v)
}

func (r *Renderer) LiteralDatetimeTZ(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return cast(v.Format(datetimeLayout+" -07:00"), "DATETIMEOFFSET"), nil
}

func (r *Renderer) LiteralUUID(_ dialect.Combo, v uuid.UUID) (render.Expr, error) {
	return cast(v.String(), "UNIQUEIDENTIFIER"), nil
}

// Features returns the expression features supported by SQL Server.
func (r *Renderer) Features() render.Features {
	return render.Features{
		NativeBoolean:    false,
		NativeArrays:     false,
		WideStrings:      true,
		WindowFunctions:  true,
		QualifiedColumns: true,
		Timezones:        render.TimezoneOffset,
	}
}

// Columns quotes identifiers with square brackets.
var Columns = render.QuotedColumns{Open: "[", Close: "]"}

// LegacyTrim renders trim on versions without TRIM.
type LegacyTrim struct{}

func (LegacyTrim) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Func{Name: "LTRIM", Args: []render.Expr{&render.Func{Name: "RTRIM", Args: registry.Exprs(args)}}}, nil
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
		registry.Define(definitions.Add, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Strings, registry.Strings), str, registry.Infix("+")).
			Item(),
		fn("len", one).
			ForDialect(all, registry.Sig(registry.Strings), integer, registry.Call("LEN")).
			Item(),
		fn("trim", one).
			ForDialect(all, registry.Sig(registry.Strings), str, LegacyTrim{}).
			ForDialect(Family.AtLeast("2017"), registry.Sig(registry.Strings), str, registry.Call("TRIM")).
			Item(),
		fn("str", one).
			ForDialect(all, registry.Sig(registry.AnyType), str, registry.Cast("NVARCHAR(MAX)")).
			Item(),
		fn("int", one).
			ForDialect(all, registry.Sig(registry.Scalars), integer, registry.Cast("BIGINT")).
			Item(),
		fn("now", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Datetime}, registry.Call("GETDATE")).
			Item(),
		fn("today", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.Date}, registry.Keyword("CAST(GETDATE() AS DATE)")).
			Item(),
		fn("uuid", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.UUID}, registry.Call("NEWID")).
			Item(),
	}
	for _, part := range []string{"year", "month", "day"} {
		items = append(items, fn(part, one).
			ForDialect(all, registry.Sig(registry.Dates), integer, registry.Call(strings.ToUpper(part))).
			Item())
	}
	return items
}

// Connector returns the SQL Server connector.
func Connector() connector.Connector {
	r := New()
	all := Family.All()
	return connector.Connector{
		Family:   Family,
		Literals: connector.For[render.Literalizer](all, r),
		Columns:  connector.For[render.ColumnRenderer](all, Columns),
		Post:     connector.For[render.ContextPostprocessor](all, render.NumericBools),
		Features: connector.For(all, r.Features()),
		Ops:      ops(),
		Overrides: []registry.Override{
			registry.Exclude(definitions.Unnest, registry.Fixed(1), all, "SQL Server has no array type"),
		},
	}
}
