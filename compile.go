package formula

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/diag"
	"github.com/zoobzio/formula/internal/mutation"
	"github.com/zoobzio/formula/internal/render"
	"github.com/zoobzio/formula/internal/translate"
)

// Env describes the fields a formula may reference.
type Env struct {
	// Types are the runtime types of the fields.
	Types map[string]DataType
	// Names maps a field to its qualified column name parts. Fields without
	// an entry render as a single unqualified identifier.
	Names FieldNames
	// Scopes renames BEFORE FILTER BY scope names.
	Scopes map[string]string
	// RestrictFields makes references to fields missing from Types an error.
	RestrictFields bool
}

// Request is one formula to compile.
type Request struct {
	Formula Node
	Dialect Combo
	Env     Env
	// Condition renders the result as a predicate, as for a filter.
	Condition bool
	// Unprefixed renders columns without their table qualifier.
	Unprefixed bool
}

// Result is a compiled formula. Expr is nil when Diagnostics holds an error.
type Result struct {
	Expr        Expr
	SQL         string
	Type        DataType
	Diagnostics []Diagnostic
	// Scopes are the BEFORE FILTER BY scopes the formula uses.
	Scopes []string
}

// Compile runs the standard mutation pipeline and translates the formula.
// When any error diagnostic is produced the result is returned together
// with a *FormulaError carrying the diagnostics. Every other error is an
// engine fault.
func (e *Engine) Compile(req Request) (*Result, error) {
	if req.Formula == nil {
		return nil, fmt.Errorf("formula: no formula to compile")
	}
	if req.Dialect.IsEmpty() {
		return nil, fmt.Errorf("formula: no dialect requested")
	}

	d, err := e.loaded.Strategies.Resolve(req.Dialect)
	if err != nil {
		return nil, fmt.Errorf("formula: %w", err)
	}
	ms, err := mutation.Standard(mutation.Config{
		Features:   d.Features,
		FieldTypes: req.Env.Types,
		Scopes:     req.Env.Scopes,
	})
	if err != nil {
		return nil, fmt.Errorf("formula: %w", err)
	}
	tree := mutation.Apply(req.Formula, ms...)

	env := translate.Env{Types: req.Env.Types, Names: req.Env.Names, RestrictFields: req.Env.RestrictFields}
	opts := translate.Options{Condition: req.Condition, Unprefixed: req.Unprefixed}
	out, err := translate.New(e.loaded.Registry, d, env, opts, e.log).Translate(tree)
	if err != nil {
		return nil, err
	}

	res := &Result{Expr: out.Expr, Type: out.Type, Diagnostics: out.Diagnostics, Scopes: out.Scopes}
	if out.Expr != nil {
		res.SQL = out.Expr.SQL()
	}
	e.log.WithFields(logrus.Fields{
		"dialect":     req.Dialect.String(),
		"type":        res.Type.String(),
		"diagnostics": len(res.Diagnostics),
	}).Debug("compiled formula")
	if diag.HasErrors(res.Diagnostics) {
		return res, &FormulaError{Diagnostics: res.Diagnostics}
	}
	return res, nil
}

// Field is a named formula compiled by CompileFields.
type Field struct {
	Name    string
	Formula Node
}

// FieldResult is the outcome of one field. Result is nil when the field's
// formula failed.
type FieldResult struct {
	Name   string
	Result *Result
}

// CompileFields compiles independent formulas for the same dialect and
// environment. Formula problems in one field do not stop the others; their
// diagnostics are returned tagged with the field name. An engine fault
// aborts the whole batch.
func (e *Engine) CompileFields(d Combo, env Env, fields []Field) ([]FieldResult, []Diagnostic, error) {
	var c diag.Collector
	out := make([]FieldResult, 0, len(fields))
	for _, f := range fields {
		fr := FieldResult{Name: f.Name}
		err := c.Run(f.Name, func() error {
			res, err := e.Compile(Request{Formula: f.Formula, Dialect: d, Env: env})
			if err != nil {
				return err
			}
			fr.Result = res
			c.Add(f.Name, res.Diagnostics...)
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out = append(out, fr)
	}
	return out, c.Diagnostics(), nil
}

// RenderLiteral renders a single typed value as a literal of dialect d. A
// value the dialect cannot express is a *FormulaError.
func (e *Engine) RenderLiteral(d Combo, t DataType, v any) (string, error) {
	lits, err := e.loaded.Strategies.Literals.Resolve(d)
	if err != nil {
		return "", fmt.Errorf("formula: %w", err)
	}
	expr, err := render.Literalize(lits, d, t, v)
	if err != nil {
		var ufe render.UnsupportedFeatureError
		if errors.As(err, &ufe) {
			return "", &FormulaError{Diagnostics: []Diagnostic{
				diag.New(diag.CodeLiteralUnsupported, nil, "%v", ufe),
			}}
		}
		return "", fmt.Errorf("formula: %s literal: %w", t.NonConst(), err)
	}
	return expr.SQL(), nil
}

// TypeOf compiles the formula and returns only its inferred type. A formula
// that fails reports Unsupported together with the error.
func (e *Engine) TypeOf(req Request) (DataType, error) {
	res, err := e.Compile(req)
	if err != nil {
		return datatype.Unsupported, err
	}
	return res.Type, nil
}
