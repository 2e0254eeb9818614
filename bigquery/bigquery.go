// Package bigquery provides the BigQuery dialect connector for formula.
package bigquery

import (
	"strings"
	"time"

	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Family is the BIGQUERY dialect family.
var Family = dialect.MustRegister("BIGQUERY")

const datetimeLayout = "2006-01-02 15:04:05.999999"

var escaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Renderer implements BigQuery literal rendering. String literals use
// backslash escapes; a doubled quote is not an escape in BigQuery.
type Renderer struct {
	render.ANSILiteralizer
}

// New creates a new BigQuery renderer.
func New() *Renderer {
	return &Renderer{ANSILiteralizer: render.ANSILiteralizer{
		True:       "TRUE",
		False:      "FALSE",
		ArrayOpen:  "[",
		ArrayClose: "]",
		Timezones:  render.TimezoneOffset,
	}}
}

func quote(s string) string { return "'" + escaper.Replace(s) + "'" }

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

func (r *Renderer) LiteralDatetime(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Literal{Text: "DATETIME " + quote(v.Format(datetimeLayout))}, nil
}

func (r *Renderer) LiteralGenericDatetime(d dialect.Combo, v time.Time) (render.Expr, error) {
	return r.LiteralDatetime(d, v)
}

// LiteralDatetimeTZ renders a TIMESTAMP in UTC.
func (r *Renderer) LiteralDatetimeTZ(_ dialect.Combo, v time.Time) (render.Expr, error) {
	return &render.Literal{Text: "TIMESTAMP " + quote(v.UTC().Format(datetimeLayout)+" UTC")}, nil
}

// Features returns the expression features supported by BigQuery.
func (r *Renderer) Features() render.Features {
	return render.Features{
		NativeBoolean:    true,
		NativeArrays:     true,
		WindowFunctions:  true,
		QualifiedColumns: true,
		Timezones:        render.TimezoneOffset,
	}
}

// InUnnest renders contains(a, v) as v IN UNNEST(a).
type InUnnest struct{}

func (InUnnest) Render(_ *registry.Context, args []registry.Arg) (render.Expr, error) {
	return &render.Binary{
		Op:    "IN",
		Left:  args[1].Expr,
		Right: &render.Func{Name: "UNNEST", Args: []render.Expr{args[0].Expr}},
	}, nil
}

func ops() []registry.BasicOpItem {
	all := Family.All()
	one := registry.Fixed(1)
	fn := func(name string, arity registry.Arity) *registry.Translation {
		return registry.Define(name, arity, registry.Function)
	}
	integer := datatype.ConstIfAll{T: datatype.Integer}
	float := datatype.ConstIfAll{T: datatype.Float}

	return []registry.BasicOpItem{
		registry.Define(definitions.Div, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Integers, registry.Integers), float, registry.Infix("/")).
			Item(),
		registry.Define(definitions.Mod, registry.Fixed(2), registry.Operator).
			ForDialect(all, registry.Sig(registry.Integers, registry.Integers), integer, registry.Call("MOD")).
			Item(),
		fn("str", one).ForDialect(all, registry.Sig(registry.AnyType), datatype.ConstIfAll{T: datatype.String}, registry.Cast("STRING")).Item(),
		fn("int", one).ForDialect(all, registry.Sig(registry.Scalars), integer, registry.Cast("INT64")).Item(),
		fn("float", one).ForDialect(all, registry.Sig(registry.Scalars), float, registry.Cast("FLOAT64")).Item(),
		fn("uuid", registry.Fixed(0)).
			ForDialect(all, registry.Sig(), datatype.Fixed{T: datatype.UUID}, registry.Call("GENERATE_UUID")).
			Item(),
		definitions.ArrayFor(all, definitions.ArrayConstructor{Open: "[", Close: "]"}),
		definitions.ContainsFor(all, InUnnest{}),
	}
}

// Connector returns the BigQuery connector. UNNEST is a table operator in
// BigQuery, so the scalar unnest mapping is removed for it.
func Connector() connector.Connector {
	r := New()
	all := Family.All()
	return connector.Connector{
		Family:   Family,
		Literals: connector.For[render.Literalizer](all, r),
		Columns:  connector.For[render.ColumnRenderer](all, render.Backticked),
		Features: connector.For(all, r.Features()),
		Ops:      ops(),
		Overrides: []registry.Override{
			registry.Exclude(definitions.Unnest, registry.Fixed(1), all, "UNNEST is a table operator in BigQuery"),
		},
	}
}
