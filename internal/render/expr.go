package render

import (
	"strings"
)

// Expr is a rendered target expression. Every dialect decision has already
// been taken when an Expr is built, so SQL is deterministic.
type Expr interface {
	SQL() string
}

// Literal is a rendered literal token.
type Literal struct {
	Text string
}

func (e *Literal) SQL() string { return e.Text }

// BoolLiteral is a dialect's canonical rendering of a boolean value.
type BoolLiteral struct {
	Value bool
	Text  string
}

func (e *BoolLiteral) SQL() string { return e.Text }

// TruthConst is a condition with a value fixed at compile time, such as
// 1 = 1 on dialects that cannot use a boolean literal as a predicate.
type TruthConst struct {
	Value bool
	Text  string
}

func (e *TruthConst) SQL() string { return e.Text }

// Raw is verbatim SQL.
type Raw struct {
	Text string
}

func (e *Raw) SQL() string { return e.Text }

// Column is a quoted, possibly qualified, column reference.
type Column struct {
	Parts []string
	Text  string
}

func (e *Column) SQL() string { return e.Text }

// Func is a function call.
type Func struct {
	Name     string
	Args     []Expr
	Distinct bool
	Star     bool
}

func (e *Func) SQL() string {
	if e.Star {
		return e.Name + "(*)"
	}
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('(')
	if e.Distinct {
		b.WriteString("DISTINCT ")
	}
	writeList(&b, e.Args)
	b.WriteByte(')')
	return b.String()
}

// Binary is an infix operation, always parenthesized.
type Binary struct {
	Op          string
	Left, Right Expr
}

func (e *Binary) SQL() string {
	return "(" + e.Left.SQL() + " " + e.Op + " " + e.Right.SQL() + ")"
}

// Unary is a prefix or postfix operation, always parenthesized.
type Unary struct {
	Op      string
	Operand Expr
	Postfix bool
}

func (e *Unary) SQL() string {
	if e.Postfix {
		return "(" + e.Operand.SQL() + " " + e.Op + ")"
	}
	if e.Op == "-" {
		return "(-" + e.Operand.SQL() + ")"
	}
	return "(" + e.Op + " " + e.Operand.SQL() + ")"
}

// When is one branch of a Case.
type When struct {
	Cond Expr
	Then Expr
}

// Case is a CASE expression. A nil Subject renders the searched form.
type Case struct {
	Subject Expr
	Whens   []When
	Else    Expr
}

func (e *Case) SQL() string {
	var b strings.Builder
	b.WriteString("CASE")
	if e.Subject != nil {
		b.WriteString(" ")
		b.WriteString(e.Subject.SQL())
	}
	for _, w := range e.Whens {
		b.WriteString(" WHEN ")
		b.WriteString(w.Cond.SQL())
		b.WriteString(" THEN ")
		b.WriteString(w.Then.SQL())
	}
	if e.Else != nil {
		b.WriteString(" ELSE ")
		b.WriteString(e.Else.SQL())
	}
	b.WriteString(" END")
	return b.String()
}

// Cast is CAST(expr AS type).
type Cast struct {
	Expr Expr
	Type string
}

func (e *Cast) SQL() string {
	return "CAST(" + e.Expr.SQL() + " AS " + e.Type + ")"
}

// Array is a native array constructor such as ARRAY[1, 2] or [1, 2].
type Array struct {
	Prefix      string
	Open, Close string
	Items       []Expr
}

func (e *Array) SQL() string {
	var b strings.Builder
	b.WriteString(e.Prefix)
	b.WriteString(e.Open)
	writeList(&b, e.Items)
	b.WriteString(e.Close)
	return b.String()
}

// List is a parenthesized expression list, as used by IN.
type List struct {
	Items []Expr
}

func (e *List) SQL() string {
	var b strings.Builder
	b.WriteByte('(')
	writeList(&b, e.Items)
	b.WriteByte(')')
	return b.String()
}

// OrderItem is one ORDER BY entry of a window.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// Over applies a window to a function.
type Over struct {
	Func      Expr
	Partition []Expr
	Order     []OrderItem
	Frame     string
}

func (e *Over) SQL() string {
	var parts []string
	if len(e.Partition) > 0 {
		var b strings.Builder
		b.WriteString("PARTITION BY ")
		writeList(&b, e.Partition)
		parts = append(parts, b.String())
	}
	if len(e.Order) > 0 {
		items := make([]string, len(e.Order))
		for i, o := range e.Order {
			items[i] = o.Expr.SQL()
			if o.Desc {
				items[i] += " DESC"
			}
		}
		parts = append(parts, "ORDER BY "+strings.Join(items, ", "))
	}
	if e.Frame != "" {
		parts = append(parts, e.Frame)
	}
	return e.Func.SQL() + " OVER (" + strings.Join(parts, " ") + ")"
}

// Cond marks an arbitrary expression as a predicate.
type Cond struct {
	Expr Expr
}

func (e *Cond) SQL() string { return e.Expr.SQL() }

func writeList(b *strings.Builder, items []Expr) {
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.SQL())
	}
}

var conditionOps = map[string]bool{
	"=": true, "<>": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"AND": true, "OR": true, "NOT": true, "LIKE": true, "NOT LIKE": true,
	"IN": true, "NOT IN": true, "IS NULL": true, "IS NOT NULL": true,
}

// IsCondition reports whether e is a predicate rather than a value.
func IsCondition(e Expr) bool {
	switch x := e.(type) {
	case *TruthConst, *Cond:
		return true
	case *Binary:
		return conditionOps[x.Op]
	case *Unary:
		return conditionOps[x.Op]
	}
	return false
}
