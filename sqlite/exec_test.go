package sqlite

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zoobzio/formula/internal/connector/connectortest"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/translate"
)

// openDB creates an in-memory database holding one row of the test fields.
func openDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database: %v", err)
		}
	})
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE t (n INTEGER, x REAL, s TEXT, flag INTEGER, day TEXT, ts TEXT)`,
		`INSERT INTO t VALUES (7, 1.5, 'hi', 1, '2024-03-01', '2024-03-01 10:30:00')`,
		`INSERT INTO t VALUES (2, 2.5, 'yo', 0, '2024-03-02', '2024-03-02 08:00:00')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to execute SQL: %v\nSQL: %s", err, stmt)
		}
	}
	return db
}

// TestExecute runs compiled expressions against a real SQLite engine and
// checks the value they produce for the first row.
func TestExecute(t *testing.T) {
	h := connectortest.Load(t, Connector())
	db := openDB(t)
	march1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		version string
		tree    nodes.Node
		want    string
	}{
		{"integer division keeps the fraction", "3.30", nodes.NewOperator("/", f("n"), nodes.Integer(2)), "3.5"},
		{"concat with pipes", "3.30", nodes.NewFunction("concat", f("s"), nodes.String("!")), "hi!"},
		{"concat function", "3.44", nodes.NewFunction("concat", f("s"), nodes.String("!")), "hi!"},
		{"year", "3.30", nodes.NewFunction("year", f("day")), "2024"},
		{"month", "3.30", nodes.NewFunction("month", f("day")), "3"},
		{"boolean condition", "3.30", nodes.NewFunction("if", f("flag"), nodes.String("yes"), nodes.String("no")), "yes"},
		{"date comparison", "3.30", nodes.NewOperator("==", f("day"), nodes.Date(march1)), "1"},
		{"length", "3.30", nodes.NewFunction("len", f("s")), "2"},
		{"null coalescing", "3.30", nodes.NewFunction("ifnull", nodes.NewNull(), f("n")), "7"},
		{"running sum", "3.30", nodes.NewWindow("rsum", []nodes.Node{f("x")}, nil, []nodes.Node{f("day")}), "1.5"},
		{"rank", "3.30", nodes.NewWindow("rank", []nodes.Node{f("x")}, nil, nil), "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := h.SQL(t, Family.Version(tt.version), tt.tree)
			query := "SELECT " + expr + " FROM t ORDER BY n DESC LIMIT 1"

			var got any
			if err := db.QueryRow(query).Scan(&got); err != nil {
				t.Fatalf("QueryRow() error = %v\nSQL: %s", err, query)
			}
			if s := fmt.Sprint(got); s != tt.want {
				t.Errorf("%s = %s, want %s", expr, s, tt.want)
			}
		})
	}
}

// TestExecuteCondition uses a compiled predicate as a WHERE clause.
func TestExecuteCondition(t *testing.T) {
	h := connectortest.Load(t, Connector())
	db := openDB(t)

	tree := nodes.NewOperator("and", f("flag"), nodes.NewOperator(">", f("x"), nodes.Float(1)))
	out := h.Compile(t, Family.Version("3.44"), tree, translate.Options{Condition: true})
	if len(out.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics: %v", out.Diagnostics)
	}

	query := "SELECT COUNT(*) FROM t WHERE " + out.Expr.SQL()
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("QueryRow() error = %v\nSQL: %s", err, query)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
