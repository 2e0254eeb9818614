package render

import "github.com/zoobzio/formula/internal/datatype"

// ContextPostprocessor converts between value and predicate forms of an
// expression for dialects whose truth representation differs.
type ContextPostprocessor interface {
	// Booleanize turns a value of type t into a predicate.
	Booleanize(t datatype.DataType, e Expr) Expr
	// Debooleanize turns a predicate back into the dialect's value form.
	Debooleanize(t datatype.DataType, e Expr) Expr
}

// NativeBooleans is the postprocessor for dialects where predicates and
// boolean values are interchangeable.
type NativeBooleans struct{}

func (NativeBooleans) Booleanize(_ datatype.DataType, e Expr) Expr   { return e }
func (NativeBooleans) Debooleanize(_ datatype.DataType, e Expr) Expr { return e }

// BoolCoercer is the postprocessor for dialects that store truth as 0/1 and
// cannot use a value where a predicate is expected.
type BoolCoercer struct {
	True, False *BoolLiteral
}

// NumericBools renders TRUE as 1 and FALSE as 0.
var NumericBools = BoolCoercer{
	True:  &BoolLiteral{Value: true, Text: "1"},
	False: &BoolLiteral{Value: false, Text: "0"},
}

func (c BoolCoercer) truth(v bool) *TruthConst {
	if v {
		return &TruthConst{Value: true, Text: "(1 = 1)"}
	}
	return &TruthConst{Value: false, Text: "(1 = 0)"}
}

func (c BoolCoercer) Booleanize(t datatype.DataType, e Expr) Expr {
	if IsCondition(e) {
		return e
	}
	if b, ok := e.(*BoolLiteral); ok {
		return c.truth(b.Value)
	}
	switch {
	case t.IsNumeric():
		return &Binary{Op: "<>", Left: e, Right: &Literal{Text: "0"}}
	case t.NonConst() == datatype.String:
		return &Unary{Op: "IS NOT NULL", Operand: e, Postfix: true}
	case t.IsDateLike():
		return c.truth(true)
	}
	return &Binary{Op: "=", Left: e, Right: c.True}
}

func (c BoolCoercer) Debooleanize(_ datatype.DataType, e Expr) Expr {
	if tc, ok := e.(*TruthConst); ok {
		if tc.Value {
			return c.True
		}
		return c.False
	}
	if IsCondition(e) {
		return &Case{Whens: []When{{Cond: e, Then: c.True}}, Else: c.False}
	}
	return e
}
