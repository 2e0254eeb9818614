// Package connectortest compiles trees against a single loaded connector.
package connectortest

import (
	"testing"

	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/mutation"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/render"
	"github.com/zoobzio/formula/internal/translate"
)

// Env is the field set used by connector tests.
var Env = translate.Env{
	Types: map[string]datatype.DataType{
		"n":    datatype.Integer,
		"x":    datatype.Float,
		"s":    datatype.String,
		"flag": datatype.Boolean,
		"day":  datatype.Date,
		"ts":   datatype.Datetime,
		"ids":  datatype.ArrayInt,
		"tags": datatype.ArrayStr,
	},
	Names:          render.FieldNames{"n": {"t", "n"}},
	RestrictFields: true,
}

// Harness holds one loaded connector.
type Harness struct {
	Loaded *connector.Loaded
}

// Load loads c on top of the default operations.
func Load(t testing.TB, c connector.Connector) *Harness {
	t.Helper()
	loaded, err := connector.Load(nil, c)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return &Harness{Loaded: loaded}
}

// Compile runs the standard pipeline and the translator for d.
func (h *Harness) Compile(t testing.TB, d dialect.Combo, tree nodes.Node, opts translate.Options) *translate.Output {
	t.Helper()
	resolved, err := h.Loaded.Strategies.Resolve(d)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", d, err)
	}
	ms, err := mutation.Standard(mutation.Config{Features: resolved.Features, FieldTypes: Env.Types})
	if err != nil {
		t.Fatalf("Standard() error = %v", err)
	}
	out, err := translate.New(h.Loaded.Registry, resolved, Env, opts, nil).Translate(mutation.Apply(tree, ms...))
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	return out
}

// SQL compiles tree and fails the test on any diagnostic.
func (h *Harness) SQL(t testing.TB, d dialect.Combo, tree nodes.Node) string {
	t.Helper()
	out := h.Compile(t, d, tree, translate.Options{})
	if len(out.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics for %s: %v", nodes.Format(tree), out.Diagnostics)
	}
	return out.Expr.SQL()
}

// Literal renders a single value with the literalizer resolved for d.
func (h *Harness) Literal(t testing.TB, d dialect.Combo, typ datatype.DataType, v any) (string, error) {
	t.Helper()
	resolved, err := h.Loaded.Strategies.Resolve(d)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", d, err)
	}
	e, err := render.Literalize(resolved.Literals, d, typ, v)
	if err != nil {
		return "", err
	}
	return e.SQL(), nil
}
