package mariadb

import (
	"testing"
	"time"

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
}

func TestCompile(t *testing.T) {
	h := connectortest.Load(t, Connector())

	tests := []struct {
		name    string
		version string
		tree    nodes.Node
		want    string
	}{
		{"backticked columns", "10.6", nodes.NewOperator("+", f("n"), nodes.Integer(1)), "(`t`.`n` + 1)"},
		{"string concatenation", "10.6", nodes.NewOperator("+", f("s"), nodes.String("x")), "CONCAT(`s`, 'x')"},
		{"integer division", "10.6", nodes.NewOperator("/", f("n"), nodes.Integer(2)), "(`t`.`n` / 2)"},
		{"length", "10.6", nodes.NewFunction("len", f("s")), "CHAR_LENGTH(`s`)"},
		{"signed cast", "10.6", nodes.NewFunction("int", f("s")), "CAST(`s` AS SIGNED)"},
		{"double cast", "10.6", nodes.NewFunction("float", f("n")), "CAST(`t`.`n` AS DOUBLE)"},
		{"today", "10.1", nodes.NewFunction("today"), "CURDATE()"},
		{"native boolean", "10.6", nodes.NewOperator("and", f("flag"), nodes.NewOperator(">", f("x"), nodes.Float(1))), "(`flag` AND (`x` > 1.0))"},
		{
			"running sum", "11.4",
			nodes.NewWindow("rsum", []nodes.Node{f("x")}, nil, []nodes.Node{f("day")}),
			"SUM(`x`) OVER (ORDER BY `day` ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)",
		},
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

func TestWindowsUnavailableOnLegacy(t *testing.T) {
	h := connectortest.Load(t, Connector())
	for _, name := range []string{"rsum", "rank"} {
		t.Run(name, func(t *testing.T) {
			tree := nodes.NewWindow(name, []nodes.Node{f("x")}, nil, nil)
			out := h.Compile(t, Family.Version("10.1"), tree, translate.Options{})
			if len(out.Diagnostics) != 1 || out.Diagnostics[0].Code != diag.CodeUnavailable {
				t.Fatalf("diagnostics = %v, want one %s", out.Diagnostics, diag.CodeUnavailable)
			}
		})
	}
}

func TestLiterals(t *testing.T) {
	h := connectortest.Load(t, Connector())
	d := Family.Base()
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("", 2*60*60))

	tests := []struct {
		name string
		typ  datatype.DataType
		v    any
		want string
	}{
		{"backslash", datatype.String, `a\b'c`, `'a\\b''c'`},
		{"timezone normalized to utc", datatype.DatetimeTZ, at, `TIMESTAMP '2024-03-01 08:30:00'`},
		{"date", datatype.Date, at, `DATE '2024-03-01'`},
		{"true", datatype.Boolean, true, `TRUE`},
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
