package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula/internal/nodes"
)

func TestCodeHierarchy(t *testing.T) {
	assert.Equal(t, Code("ERR.FORMULA.TRANSLATION.DIALECT.UNAVAILABLE"), CodeUnavailable)
	assert.True(t, CodeUnavailable.Is(CodeTranslation))
	assert.True(t, CodeUnavailable.Is(CodeFormula))
	assert.False(t, CodeTranslation.Is(CodeUnavailable))
	assert.False(t, Code("ERR.FORMULAX").Is(CodeFormula))
	assert.Equal(t, CodeArgumentTypes+".COUNT", CodeArgumentTypes.Sub("COUNT"))
}

func TestDiagnosticString(t *testing.T) {
	n := nodes.WithMeta(nodes.NewField("a"), nodes.Meta{Position: nodes.Position{Row: 2, Col: 5}})
	d := New(CodeUnknownField, n, "unknown field %q", "a")
	d.Unit = "profit"
	assert.Equal(t, `profit: error ERR.FORMULA.TRANSLATION.FIELD.UNKNOWN: unknown field "a" (at 2:5)`, d.String())

	w := Warn(CodeConstantCondition, nil, "always true")
	assert.Equal(t, SeverityWarning, w.Severity)
	assert.False(t, HasErrors([]Diagnostic{w}))
	assert.True(t, HasErrors([]Diagnostic{w, d}))
}

func TestCollector(t *testing.T) {
	var c Collector

	err := c.Run("first", func() error {
		return &FormulaError{Diagnostics: []Diagnostic{New(CodeUnknownField, nil, "unknown field")}}
	})
	require.NoError(t, err)

	err = c.Run("second", func() error {
		return fmt.Errorf("wrapped: %w", &FormulaError{Diagnostics: []Diagnostic{
			Warn(CodeConstantCondition, nil, "always true"),
		}})
	})
	require.NoError(t, err)

	require.NoError(t, c.Run("third", func() error { return nil }))

	fatal := errors.New("unknown operation")
	err = c.Run("fourth", func() error { return fatal })
	assert.Same(t, fatal, err, "non-formula errors propagate")

	ds := c.Diagnostics()
	require.Len(t, ds, 2)
	assert.Equal(t, "first", ds[0].Unit)
	assert.Equal(t, "second", ds[1].Unit)
	assert.True(t, c.Failed())
	assert.Len(t, c.ByUnit()["second"], 1)
}

func TestFormulaErrorMessage(t *testing.T) {
	one := New(CodeUnavailable, nil, "x")
	assert.Equal(t, one.String(), (&FormulaError{Diagnostics: []Diagnostic{one}}).Error())
	assert.Contains(t, (&FormulaError{Diagnostics: []Diagnostic{one, one}}).Error(), "(and 1 more)")
}
