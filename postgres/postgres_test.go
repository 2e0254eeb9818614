package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zoobzio/formula/internal/connector/connectortest"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/diag"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/translate"
)

func f(name string) nodes.Node { return nodes.NewField(name) }

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New() returned nil")
	}
	if !r.Features().NativeArrays {
		t.Error("PostgreSQL has native arrays")
	}
}

func TestCompile(t *testing.T) {
	h := connectortest.Load(t, Connector())

	tests := []struct {
		name    string
		version string
		tree    nodes.Node
		want    string
	}{
		{"integer division casts", "16", nodes.NewOperator("/", f("n"), f("n")), `(CAST("t"."n" AS DOUBLE PRECISION) / "t"."n")`},
		{"float cast", "16", nodes.NewFunction("float", f("s")), `CAST("s" AS DOUBLE PRECISION)`},
		{"string concatenation", "16", nodes.NewOperator("+", f("s"), nodes.String("!")), `("s" || '!')`},
		{"array constructor", "16", nodes.NewFunction("array", f("n"), nodes.Integer(2)), `ARRAY["t"."n", 2]`},
		{"array literal", "16", nodes.ArrayInt(1, 2, 3), `ARRAY[1, 2, 3]`},
		{"contains", "16", nodes.NewFunction("contains", f("ids"), nodes.Integer(3)), `(3 = ANY("ids"))`},
		{"contains null", "16", nodes.NewFunction("contains", f("ids"), nodes.NewNull()), `("ids" <> array_remove("ids", NULL))`},
		{"index of", "16", nodes.NewFunction("index_of", f("ids"), nodes.Integer(2)), `COALESCE(array_position("ids", 2), 0)`},
		{
			"index of before 9.5", "9.4",
			nodes.NewFunction("index_of", f("ids"), nodes.Integer(2)),
			`COALESCE((SELECT i FROM generate_subscripts("ids", 1) AS i WHERE ("ids")[i] = 2 ORDER BY i LIMIT 1), 0)`,
		},
		{"random uuid", "13", nodes.NewFunction("uuid"), `gen_random_uuid()`},
		{"unnest", "9.4", nodes.NewFunction("unnest", f("tags")), `UNNEST("tags")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.SQL(t, Family.Version(tt.version), tt.tree)
			if got != tt.want {
				t.Errorf("SQL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnavailableBeforeVersion(t *testing.T) {
	h := connectortest.Load(t, Connector())
	out := h.Compile(t, Family.Version("9.5"), nodes.NewFunction("uuid"), translate.Options{})
	if len(out.Diagnostics) != 1 || out.Diagnostics[0].Code != diag.CodeUnavailable {
		t.Fatalf("diagnostics = %v, want one %s", out.Diagnostics, diag.CodeUnavailable)
	}
	if out.Expr != nil {
		t.Errorf("Expr = %q, want nil", out.Expr.SQL())
	}
}

func TestLiterals(t *testing.T) {
	h := connectortest.Load(t, Connector())
	d := Family.Base()
	berlin := time.FixedZone("", 2*60*60)

	tests := []struct {
		name string
		typ  datatype.DataType
		v    any
		want string
	}{
		{"timestamptz", datatype.DatetimeTZ, time.Date(2024, 3, 1, 10, 30, 0, 0, berlin), `TIMESTAMPTZ '2024-03-01 10:30:00+02:00'`},
		{"uuid", datatype.UUID, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), `'6ba7b810-9dad-11d1-80b4-00c04fd430c8'::UUID`},
		{"string", datatype.String, "it's", `'it''s'`},
		{"unicode string has no prefix", datatype.String, "héllo", `'héllo'`},
		{"string array", datatype.ArrayStr, []string{"a", "b"}, `ARRAY['a', 'b']`},
		{"boolean", datatype.Boolean, true, `TRUE`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Literal(t, d, tt.typ, tt.v)
			if err != nil {
				t.Fatalf("Literal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Literal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	r := New()
	if got := r.quoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("quoteIdentifier() = %q", got)
	}
	col := r.MakeUnprefixedColumn("n", map[string][]string{"n": {"orders", "n"}})
	if col.SQL() != `"n"` {
		t.Errorf("MakeUnprefixedColumn() = %q", col.SQL())
	}
}
