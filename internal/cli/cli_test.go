package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGoldenOutput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"translate_scenario_a", []string{"translate", "testdata/scenario_a.yaml"}},
		{"translate_arrays", []string{"translate", "testdata/arrays.yaml"}},
		{"translate_condition", []string{"translate", "testdata/condition.yaml"}},
		{"translate_age_postgresql", []string{"translate", "--dialect", "POSTGRESQL_16", "testdata/age.yaml"}},
		{"translate_age_mssql", []string{"translate", "-d", "MSSQL_2022", "testdata/age.yaml"}},
		{
			"translate_fields_suppressed",
			[]string{"translate", "--config", "testdata/strict.yaml", "--suppress-errors", "testdata/fields.yaml"},
		},
		{"parse_tree", []string{"parse", "testdata/tree.yaml"}},
		{"graph_tree", []string{"graph", "testdata/tree.yaml"}},
		{"dialects", []string{"dialects"}},
	}
	g := golden(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, tt.args...)
			require.NoError(t, err, "stderr: %s", stderr)
			g.Assert(t, tt.name, []byte(stdout))
		})
	}
}

func TestTranslateFailure(t *testing.T) {
	stdout, stderr, err := execute(t, "translate", "--config", "testdata/strict.yaml", "testdata/fields.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "double: (\"a\" * 2)\n", stdout)
	assert.Contains(t, stderr, "broken:")
	assert.Contains(t, stderr, `unknown field "missing"`)
}

func TestTranslateSuppressedReportsDiagnostics(t *testing.T) {
	_, stderr, err := execute(t, "translate", "--config", "testdata/strict.yaml", "--suppress-errors", "testdata/fields.yaml")
	require.NoError(t, err)
	assert.Contains(t, stderr, `unknown field "missing"`)
}

func TestTranslateJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "translate", "testdata/arrays.yaml")
	require.NoError(t, err)

	var out []Translation
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "formula", out[0].Name)
	assert.Equal(t, "ARRAY[1, 2, 3]", out[0].SQL)
	assert.Equal(t, "CONST_ARRAY_INT", out[0].Type)
}

func TestTranslateCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"translate", "testdata/nope.yaml"}},
		{"no dialect", []string{"translate", "testdata/age.yaml"}},
		{"unknown dialect", []string{"translate", "-d", "ORACLE_19", "testdata/age.yaml"}},
		{"missing config", []string{"translate", "--config", "testdata/nope.yaml", "testdata/age.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestTranslateUsesConfigDialect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: POSTGRESQL_16\nconnectors: [POSTGRESQL]\n"), 0o600))

	stdout, _, err := execute(t, "translate", "--config", path, "testdata/age.yaml")
	require.NoError(t, err)
	assert.Equal(t, "(\"age\" > 21)\n", stdout)
}

func TestParseJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "parse", "testdata/tree.yaml")
	require.NoError(t, err)

	var trees map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &trees))
	assert.Equal(t, "([a] + 1)", trees["formula"])
}

func TestRegistry(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "registry", "--dialect", "POSTGRESQL_16")
	require.NoError(t, err)

	var entries []CatalogEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.NotEmpty(t, entries)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["sum"])
	assert.True(t, names["+"])

	text, _, err := execute(t, "registry")
	require.NoError(t, err)
	assert.Contains(t, text, "aggregate")
}

func TestDialectsWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connectors: [BIGQUERY]\n"), 0o600))

	stdout, _, err := execute(t, "dialects", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "BIGQUERY: BIGQUERY\n", stdout)
}

func TestWatchTranslatesOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout, _, err := executeContext(t, ctx, "watch", "-d", "POSTGRESQL_16", "testdata/age.yaml")
	require.NoError(t, err)
	assert.Equal(t, "(\"age\" > 21)\n", stdout)
}
