package mssql

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
	if r.Features().NativeBoolean {
		t.Error("SQL Server has no native boolean")
	}
}

func TestCompile(t *testing.T) {
	h := connectortest.Load(t, Connector())

	positive := nodes.NewOperator(">", f("n"), nodes.Integer(0))
	tests := []struct {
		name    string
		version string
		tree    nodes.Node
		want    string
	}{
		{
			"if block with a comparison", "2022",
			nodes.NewIfBlock([]nodes.Branch{{When: positive, Then: nodes.String("pos")}}, nodes.String("neg")),
			`CASE WHEN ([t].[n] > 0) THEN 'pos' ELSE 'neg' END`,
		},
		{
			"boolean field as condition", "2022",
			nodes.NewFunction("if", f("flag"), nodes.Integer(1), nodes.Integer(0)),
			`CASE WHEN ([flag] = 1) THEN 1 ELSE 0 END`,
		},
		{"comparison as value", "2022", positive, `CASE WHEN ([t].[n] > 0) THEN 1 ELSE 0 END`},
		{"true literal as value", "2022", nodes.Boolean(true), `1`},
		{"narrow string", "2022", nodes.String("abc"), `'abc'`},
		{"wide string", "2022", nodes.String("héllo"), `N'héllo'`},
		{"string concatenation", "2022", nodes.NewOperator("+", f("s"), nodes.String("x")), `([s] + 'x')`},
		{"length", "2012", nodes.NewFunction("len", f("s")), `LEN([s])`},
		{"legacy trim", "2012", nodes.NewFunction("trim", f("s")), `LTRIM(RTRIM([s]))`},
		{"trim", "2017", nodes.NewFunction("trim", f("s")), `TRIM([s])`},
		{"today", "2012", nodes.NewFunction("today"), `CAST(GETDATE() AS DATE)`},
		{"now", "2012", nodes.NewFunction("now"), `GETDATE()`},
		{"year", "2012", nodes.NewFunction("year", f("day")), `YEAR([day])`},
		{"string cast", "2012", nodes.NewFunction("str", f("n")), `CAST([t].[n] AS NVARCHAR(MAX))`},
		{"new id", "2012", nodes.NewFunction("uuid"), `NEWID()`},
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

func TestCondition(t *testing.T) {
	h := connectortest.Load(t, Connector())
	out := h.Compile(t, Family.Base(), f("flag"), translate.Options{Condition: true})
	if len(out.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics: %v", out.Diagnostics)
	}
	if got := out.Expr.SQL(); got != `([flag] = 1)` {
		t.Errorf("SQL = %q, want %q", got, `([flag] = 1)`)
	}
}

func TestUnnestExcluded(t *testing.T) {
	h := connectortest.Load(t, Connector())
	out := h.Compile(t, Family.Base(), nodes.NewFunction("unnest", f("tags")), translate.Options{})
	if len(out.Diagnostics) != 1 || out.Diagnostics[0].Code != diag.CodeUnavailable {
		t.Fatalf("diagnostics = %v, want one %s", out.Diagnostics, diag.CodeUnavailable)
	}
}

func TestLiterals(t *testing.T) {
	h := connectortest.Load(t, Connector())
	d := Family.Base()
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("", -5*60*60))

	tests := []struct {
		name string
		typ  datatype.DataType
		v    any
		want string
	}{
		{"date", datatype.Date, at, `CAST('2024-03-01' AS DATE)`},
		{"datetime", datatype.Datetime, at, `CAST('2024-03-01 10:30:00' AS DATETIME2)`},
		{"datetimeoffset", datatype.DatetimeTZ, at, `CAST('2024-03-01 10:30:00 -05:00' AS DATETIMEOFFSET)`},
		{"uuid", datatype.UUID, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), `CAST('6ba7b810-9dad-11d1-80b4-00c04fd430c8' AS UNIQUEIDENTIFIER)`},
		{"false", datatype.Boolean, false, `0`},
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

	if _, err := h.Literal(t, d, datatype.ArrayInt, []int64{1, 2}); err == nil {
		t.Error("array literals are not available on SQL Server")
	}
}

func TestColumns(t *testing.T) {
	col := Columns.MakeColumn("odd", map[string][]string{"odd": {"t", "a]b"}})
	if col.SQL() != "[t].[a]]b]" {
		t.Errorf("MakeColumn() = %q", col.SQL())
	}
}
