// Package diag holds user-facing translation diagnostics and the collector
// that gathers them across independently compiled formulas.
package diag

import (
	"fmt"
	"strings"

	"github.com/zoobzio/formula/internal/nodes"
)

// Code is a hierarchical, dot-separated error code.
type Code string

// Base codes.
const (
	CodeFormula     Code = "ERR.FORMULA"
	CodeTranslation Code = CodeFormula + ".TRANSLATION"
)

// Translation codes.
const (
	CodeUnavailable         = CodeTranslation + ".DIALECT.UNAVAILABLE"
	CodeArgumentTypes       = CodeTranslation + ".ARGUMENTS.TYPE"
	CodeUnknownField        = CodeTranslation + ".FIELD.UNKNOWN"
	CodeScopeUnsupported    = CodeTranslation + ".SCOPE.UNSUPPORTED"
	CodeGroupingUnsupported = CodeTranslation + ".WINDOW.GROUPING"
	CodeConstantCondition   = CodeTranslation + ".CONDITION.CONSTANT"
	CodeLiteralUnsupported  = CodeTranslation + ".LITERAL.UNSUPPORTED"
)

// Sub appends suffix parts to c.
func (c Code) Sub(parts ...string) Code {
	if len(parts) == 0 {
		return c
	}
	return Code(string(c) + "." + strings.Join(parts, "."))
}

// Is reports whether c equals parent or is nested under it.
func (c Code) Is(parent Code) bool {
	return c == parent || strings.HasPrefix(string(c), string(parent)+".")
}

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single user-facing message about a formula.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Position nodes.Position
	Unit     string // the field or formula the diagnostic belongs to
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Unit != "" {
		b.WriteString(d.Unit)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s", d.Severity, d.Code, d.Message)
	if !d.Position.IsZero() {
		fmt.Fprintf(&b, " (at %d:%d)", d.Position.Row, d.Position.Col)
	}
	return b.String()
}

// New creates an error diagnostic located at n. n may be nil.
func New(code Code, n nodes.Node, format string, args ...any) Diagnostic {
	d := Diagnostic{Code: code, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		d.Position = n.Meta().Position
	}
	return d
}

// Warn creates a warning diagnostic located at n. n may be nil.
func Warn(code Code, n nodes.Node, format string, args ...any) Diagnostic {
	d := New(code, n, format, args...)
	d.Severity = SeverityWarning
	return d
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// FormulaError is the only error class that carries diagnostics. It reports
// problems with the formula itself, as opposed to engine or registry faults.
type FormulaError struct {
	Diagnostics []Diagnostic
}

func (e *FormulaError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "formula error"
	case 1:
		return e.Diagnostics[0].String()
	}
	return fmt.Sprintf("%s (and %d more)", e.Diagnostics[0], len(e.Diagnostics)-1)
}
