package mutation

import (
	"math"
	"strings"
	"time"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/nodes"
)

// FoldConstComparison evaluates comparisons between two literals of the same
// kind.
type FoldConstComparison struct{}

func (FoldConstComparison) Name() string { return "fold_const_comparison" }

func (f FoldConstComparison) Match(n nodes.Node, _ []nodes.Node) bool {
	return f.fold(n) != nil
}

func (f FoldConstComparison) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	return f.fold(n)
}

func (FoldConstComparison) fold(n nodes.Node) nodes.Node {
	fc, ok := n.(*nodes.FuncCall)
	if !ok || !fc.IsOperator() || !definitions.Comparison(fc.Name()) {
		return nil
	}
	lits, ok := literals(fc)
	if !ok || len(lits) != 2 {
		return nil
	}
	c, ok := compare(lits[0], lits[1])
	if !ok {
		return nil
	}
	var v bool
	switch fc.Name() {
	case definitions.Eq:
		v = c == 0
	case definitions.Ne:
		v = c != 0
	case definitions.Lt:
		v = c < 0
	case definitions.Gt:
		v = c > 0
	case definitions.Le:
		v = c <= 0
	case definitions.Ge:
		v = c >= 0
	}
	return nodes.Boolean(v)
}

func compare(a, b *nodes.Literal) (int, bool) {
	ia, aInt := a.Value().(int64)
	ib, bInt := b.Value().(int64)
	if aInt && bInt {
		switch {
		case ia < ib:
			return -1, true
		case ia > ib:
			return 1, true
		}
		return 0, true
	}
	if x, y, ok := numbers(a, b); ok {
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if a.Type() != b.Type() {
		return 0, false
	}
	switch x := a.Value().(type) {
	case string:
		return strings.Compare(x, b.Value().(string)), true
	case bool:
		y := b.Value().(bool)
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		return x.Compare(b.Value().(time.Time)), true
	}
	return 0, false
}

func numbers(a, b *nodes.Literal) (float64, float64, bool) {
	x, ok := number(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := number(b)
	return x, y, ok
}

func number(l *nodes.Literal) (float64, bool) {
	switch v := l.Value().(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// FoldConstMath evaluates arithmetic on numeric literals and concatenation
// of string literals. Division always yields a float; division or modulo by
// zero and integer overflow are left for the database to report.
type FoldConstMath struct{}

func (FoldConstMath) Name() string { return "fold_const_math" }

func (f FoldConstMath) Match(n nodes.Node, _ []nodes.Node) bool {
	return f.fold(n) != nil
}

func (f FoldConstMath) Replace(n nodes.Node, _ []nodes.Node) nodes.Node {
	return f.fold(n)
}

func (FoldConstMath) fold(n nodes.Node) nodes.Node {
	fc, ok := n.(*nodes.FuncCall)
	if !ok || !fc.IsOperator() {
		return nil
	}
	lits, ok := literals(fc)
	if !ok {
		return nil
	}

	if len(lits) == 1 && fc.Name() == definitions.Sub {
		switch v := lits[0].Value().(type) {
		case int64:
			if v == math.MinInt64 {
				return nil
			}
			return nodes.Integer(-v)
		case float64:
			return nodes.Float(-v)
		}
		return nil
	}
	if len(lits) != 2 {
		return nil
	}
	a, b := lits[0], lits[1]

	if fc.Name() == definitions.Add && a.Type() == datatype.ConstString && b.Type() == datatype.ConstString {
		return nodes.String(a.Value().(string) + b.Value().(string))
	}

	ia, aInt := a.Value().(int64)
	ib, bInt := b.Value().(int64)
	if aInt && bInt && fc.Name() != definitions.Div {
		return foldInt(fc.Name(), ia, ib)
	}

	x, y, ok := numbers(a, b)
	if !ok {
		return nil
	}
	switch fc.Name() {
	case definitions.Add:
		return nodes.Float(x + y)
	case definitions.Sub:
		return nodes.Float(x - y)
	case definitions.Mul:
		return nodes.Float(x * y)
	case definitions.Div:
		if y == 0 {
			return nil
		}
		return nodes.Float(x / y)
	}
	return nil
}

// foldInt evaluates integer arithmetic. Overflow and modulo by zero leave
// the node unfolded.
func foldInt(op string, a, b int64) nodes.Node {
	var (
		v  int64
		ok bool
	)
	switch op {
	case definitions.Add:
		v, ok = addInt(a, b)
	case definitions.Sub:
		v, ok = subInt(a, b)
	case definitions.Mul:
		v, ok = mulInt(a, b)
	case definitions.Mod:
		if b != 0 {
			v, ok = a%b, true
		}
	}
	if !ok {
		return nil
	}
	return nodes.Integer(v)
}

func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (a^c)&(b^c) >= 0
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (a^b)&(a^c) >= 0
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}
