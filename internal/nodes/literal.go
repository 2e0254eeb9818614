package nodes

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/zoobzio/formula/internal/datatype"
)

// Literal is a compile-time constant. Its type is always a CONST variant.
type Literal struct {
	base
	typ   datatype.DataType
	value any
}

func newLiteral(t datatype.DataType, v any) *Literal {
	n := &Literal{typ: t.Const(), value: v}
	n.extract = newExtract(n.Kind(), []any{uint8(n.typ), normalize(v)}, nil)
	return n
}

func (n *Literal) Kind() string            { return "literal" }
func (n *Literal) Children() []Node        { return nil }
func (n *Literal) Type() datatype.DataType { return n.typ }
func (n *Literal) Value() any              { return n.value }

// Integer creates an integer literal.
func Integer(v int64) *Literal { return newLiteral(datatype.Integer, v) }

// Float creates a float literal.
func Float(v float64) *Literal { return newLiteral(datatype.Float, v) }

// Boolean creates a boolean literal.
func Boolean(v bool) *Literal { return newLiteral(datatype.Boolean, v) }

// String creates a string literal.
func String(v string) *Literal { return newLiteral(datatype.String, v) }

// Date creates a date literal; the clock part is dropped.
func Date(v time.Time) *Literal {
	y, m, d := v.Date()
	return newLiteral(datatype.Date, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// Datetime creates a timezone-naive datetime literal.
func Datetime(v time.Time) *Literal { return newLiteral(datatype.Datetime, v) }

// DatetimeTZ creates a timezone-aware datetime literal.
func DatetimeTZ(v time.Time) *Literal { return newLiteral(datatype.DatetimeTZ, v) }

// GenericDatetime creates a datetime literal of unspecified timezone handling.
func GenericDatetime(v time.Time) *Literal { return newLiteral(datatype.GenericDatetime, v) }

// Geopoint creates a point literal (longitude, latitude).
func Geopoint(v orb.Point) *Literal { return newLiteral(datatype.Geopoint, v) }

// Geopolygon creates a polygon literal.
func Geopolygon(v orb.Polygon) *Literal { return newLiteral(datatype.Geopolygon, v) }

// UUID creates a UUID literal.
func UUID(v uuid.UUID) *Literal { return newLiteral(datatype.UUID, v) }

// ArrayInt creates an integer array literal.
func ArrayInt(v ...int64) *Literal {
	return newLiteral(datatype.ArrayInt, append([]int64{}, v...))
}

// ArrayFloat creates a float array literal.
func ArrayFloat(v ...float64) *Literal {
	return newLiteral(datatype.ArrayFloat, append([]float64{}, v...))
}

// ArrayString creates a string array literal.
func ArrayString(v ...string) *Literal {
	return newLiteral(datatype.ArrayStr, append([]string{}, v...))
}

// TreeString creates a tree path literal.
func TreeString(v ...string) *Literal {
	return newLiteral(datatype.TreeStr, append([]string{}, v...))
}

// IsTrue reports whether n is the TRUE literal.
func IsTrue(n Node) bool {
	l, ok := n.(*Literal)
	if !ok || l.typ != datatype.ConstBoolean {
		return false
	}
	v, _ := l.value.(bool)
	return v
}

// IsFalse reports whether n is the FALSE literal.
func IsFalse(n Node) bool {
	l, ok := n.(*Literal)
	if !ok || l.typ != datatype.ConstBoolean {
		return false
	}
	v, _ := l.value.(bool)
	return !v
}
