package nodes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Format renders n as a single line of formula-like text.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case *Literal:
		b.WriteString(formatValue(x.value))
	case *Null:
		b.WriteString("NULL")
	case *Field:
		b.WriteString("[" + strings.ReplaceAll(x.name, "]", "]]") + "]")
	case *FuncCall:
		formatCall(b, x)
	case *IfBlock:
		for i, br := range x.branches {
			if i == 0 {
				b.WriteString("IF ")
			} else {
				b.WriteString(" ELSEIF ")
			}
			format(b, br.When)
			b.WriteString(" THEN ")
			format(b, br.Then)
		}
		b.WriteString(" ELSE ")
		format(b, x.otherwise)
		b.WriteString(" END")
	case *CaseBlock:
		b.WriteString("CASE ")
		format(b, x.subject)
		for _, br := range x.branches {
			b.WriteString(" WHEN ")
			format(b, br.When)
			b.WriteString(" THEN ")
			format(b, br.Then)
		}
		b.WriteString(" ELSE ")
		format(b, x.otherwise)
		b.WriteString(" END")
	case *Paren:
		b.WriteByte('(')
		format(b, x.expr)
		b.WriteByte(')')
	case *BeforeFilterBy:
		b.WriteByte('(')
		format(b, x.expr)
		b.WriteString(" BEFORE FILTER BY ")
		for i, name := range x.names {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("[" + name + "]")
		}
		b.WriteByte(')')
	case *Compiled:
		b.WriteString("compiled(" + x.expr.SQL() + ")")
	default:
		fmt.Fprintf(b, "<%s>", n.Kind())
	}
}

func formatCall(b *strings.Builder, x *FuncCall) {
	if x.IsOperator() && len(x.args) == 2 {
		b.WriteByte('(')
		format(b, x.args[0])
		b.WriteString(" " + x.name + " ")
		format(b, x.args[1])
		b.WriteByte(')')
		return
	}
	b.WriteString(x.name)
	b.WriteByte('(')
	formatList(b, x.args)
	if len(x.within) > 0 {
		b.WriteString(" WITHIN ")
		formatList(b, x.within)
	}
	if len(x.order) > 0 {
		b.WriteString(" ORDER BY ")
		formatList(b, x.order)
	}
	b.WriteByte(')')
}

func formatList(b *strings.Builder, ns []Node) {
	for i, n := range ns {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, n)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 && x.Location() == time.UTC {
			return "#" + x.Format("2006-01-02") + "#"
		}
		return "#" + x.Format("2006-01-02 15:04:05.999999Z07:00") + "#"
	case uuid.UUID:
		return "'" + x.String() + "'"
	case orb.Point:
		return wkt.MarshalString(x)
	case orb.Polygon:
		return wkt.MarshalString(x)
	case []int64:
		items := make([]string, len(x))
		for i, it := range x {
			items[i] = formatValue(it)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []float64:
		items := make([]string, len(x))
		for i, it := range x {
			items[i] = formatValue(it)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []string:
		items := make([]string, len(x))
		for i, it := range x {
			items[i] = formatValue(it)
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return fmt.Sprint(v)
}

// Pretty renders n as an indented tree, one node per line.
func Pretty(n Node) string {
	var b strings.Builder
	pretty(&b, n, 0)
	return b.String()
}

func pretty(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind())
	switch x := n.(type) {
	case *Literal:
		b.WriteString(" " + x.typ.String() + " " + formatValue(x.value))
	case *Field:
		b.WriteString(" " + x.name)
	case *FuncCall:
		b.WriteString(" " + x.name)
		if x.IsOperator() {
			b.WriteString(" operator")
		}
		if x.IsAggregate() {
			b.WriteString(" aggregate")
		}
		if x.IsWindow() {
			b.WriteString(" window")
		}
	case *BeforeFilterBy:
		b.WriteString(" " + strings.Join(x.names, ", "))
	case *Compiled:
		b.WriteString(" " + x.typ.String() + " " + x.expr.SQL())
	}
	if p := n.Meta().Position; !p.IsZero() {
		fmt.Fprintf(b, " @%d:%d", p.Row, p.Col)
	}
	b.WriteByte('\n')
	for _, c := range n.Children() {
		pretty(b, c, depth+1)
	}
}
