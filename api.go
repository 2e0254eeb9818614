// Package formula compiles formula expression trees into native SQL
// expressions for many database dialects.
//
// An Engine is built once from an ordered list of dialect connectors. Each
// connector contributes operation variants, literal and column rendering
// strategies, and edits of the default operation set. Once built the engine
// is read-only and safe for concurrent use.
//
// # Basic Usage
//
//	engine, err := formula.NewEngine()
//	if err != nil {
//		return err
//	}
//
//	tree := nodes.NewOperator(">", nodes.NewField("age"), nodes.Integer(21))
//	res, err := engine.Compile(formula.Request{
//		Formula: tree,
//		Dialect: mssql.Family.Latest(),
//		Env:     formula.Env{Types: map[string]formula.DataType{"age": datatype.Integer}},
//	})
//	// res.SQL: CASE WHEN ([age] > 21) THEN 1 ELSE 0 END
//
// # Dialects
//
// Dialects are requested as combos: a single family version, a whole family,
// or a union. Every operation, literalizer and column renderer is resolved to
// the most specific registered candidate containing the requested combo.
//
//	d, err := formula.ParseDialect("POSTGRESQL_16")
//
// # Errors
//
// Problems with a formula are reported as diagnostics and, when any of them
// is an error, as a *FormulaError. Engine faults such as an unknown
// operation are returned as plain errors and match the exported sentinels
// with errors.Is.
package formula

import (
	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/diag"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Node is a formula tree node.
// This is re-exported from internal/nodes for use by consumers.
type Node = nodes.Node

// DataType is a formula value type.
type DataType = datatype.DataType

// Combo is a set of dialects.
type Combo = dialect.Combo

// Expr is a rendered target expression.
type Expr = render.Expr

// FieldNames maps a field name to its qualified name parts.
type FieldNames = render.FieldNames

// Features is a dialect's expression capability table.
type Features = render.Features

// Diagnostic is a single user-facing message about a formula.
type Diagnostic = diag.Diagnostic

// FormulaError carries the diagnostics of a failed compile.
type FormulaError = diag.FormulaError

// Code is a hierarchical diagnostic code.
type Code = diag.Code

// Re-export diagnostic codes for public API.
const (
	CodeFormula             = diag.CodeFormula
	CodeTranslation         = diag.CodeTranslation
	CodeUnavailable         = diag.CodeUnavailable
	CodeArgumentTypes       = diag.CodeArgumentTypes
	CodeUnknownField        = diag.CodeUnknownField
	CodeScopeUnsupported    = diag.CodeScopeUnsupported
	CodeGroupingUnsupported = diag.CodeGroupingUnsupported
	CodeConstantCondition   = diag.CodeConstantCondition
	CodeLiteralUnsupported  = diag.CodeLiteralUnsupported
)

// Connector is the bundle a dialect package contributes to an engine.
type Connector = connector.Connector

// OpInfo describes a registered operation.
type OpInfo = registry.OpInfo

// Re-export registry error sentinels for public API.
var (
	ErrUnknownOperation = registry.ErrUnknownOperation
	ErrConflict         = registry.ErrConflict
	ErrAmbiguous        = registry.ErrAmbiguous
	ErrSealed           = registry.ErrSealed
)

// ParseDialect resolves dialect names such as POSTGRESQL_16, MSSQL or ANY,
// joined with | or commas, into a combo.
func ParseDialect(text string) (Combo, error) {
	return dialect.Parse(text)
}
