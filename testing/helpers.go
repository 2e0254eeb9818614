// Package testing provides test utilities for formula.
package testing

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/zoobzio/dbml"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/schema"
)

// QuietLogger returns a logger that discards everything.
func QuietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// TestEngine creates an engine with every shipped connector and a quiet
// logger.
func TestEngine(t *testing.T, opts ...formula.Option) *formula.Engine {
	t.Helper()
	engine, err := formula.NewEngine(append([]formula.Option{formula.WithLogger(QuietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("Failed to create test engine: %v", err)
	}
	return engine
}

// TestProject returns a DBML project with users, orders and products
// tables.
func TestProject() *dbml.Project {
	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	users.AddColumn(dbml.NewColumn("created_at", "timestamp"))
	users.AddColumn(dbml.NewColumn("tags", "text[]"))
	project.AddTable(users)

	orders := dbml.NewTable("orders")
	orders.AddColumn(dbml.NewColumn("id", "bigint"))
	orders.AddColumn(dbml.NewColumn("user_id", "bigint"))
	orders.AddColumn(dbml.NewColumn("total", "numeric"))
	orders.AddColumn(dbml.NewColumn("status", "varchar"))
	orders.AddColumn(dbml.NewColumn("placed_on", "date"))
	project.AddTable(orders)

	products := dbml.NewTable("products")
	products.AddColumn(dbml.NewColumn("id", "bigint"))
	products.AddColumn(dbml.NewColumn("name", "varchar"))
	products.AddColumn(dbml.NewColumn("price", "numeric"))
	products.AddColumn(dbml.NewColumn("sku", "uuid"))
	project.AddTable(products)

	return project
}

// TestEnv returns the environment of TestProject.
func TestEnv(t *testing.T) formula.Env {
	t.Helper()
	env, err := schema.FromDBML(TestProject())
	if err != nil {
		t.Fatalf("Failed to build test environment: %v", err)
	}
	return env
}

// AssertSQL compares expected and actual SQL, reporting detailed differences.
func AssertSQL(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertCompiles compiles tree for d and compares the SQL.
func AssertCompiles(t *testing.T, engine *formula.Engine, d formula.Combo, env formula.Env, tree formula.Node, expected string) {
	t.Helper()
	res, err := engine.Compile(formula.Request{Formula: tree, Dialect: d, Env: env})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	AssertSQL(t, expected, res.SQL)
}

// AssertDiagnostic checks that err is a formula error carrying a diagnostic
// with the given code or one of its sub-codes.
func AssertDiagnostic(t *testing.T, err error, code formula.Code) {
	t.Helper()
	var fe *formula.FormulaError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected a formula error with %s, got: %v", code, err)
	}
	var have []string
	for _, d := range fe.Diagnostics {
		if d.Code.Is(code) {
			return
		}
		have = append(have, string(d.Code))
	}
	t.Errorf("Expected diagnostic %s, got %v", code, have)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertErrorContains checks that error message contains substring.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}

// AssertPanics verifies that a function panics.
func AssertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic but function completed normally")
		}
	}()
	fn()
}
