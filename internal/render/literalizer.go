package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/shopspring/decimal"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/dialect"
)

// Literalizer renders compile-time values for a dialect. Each method receives
// the concrete requested dialect so version-dependent quirks can be applied.
type Literalizer interface {
	LiteralInteger(d dialect.Combo, v int64) (Expr, error)
	LiteralFloat(d dialect.Combo, v float64) (Expr, error)
	LiteralBoolean(d dialect.Combo, v bool) (Expr, error)
	LiteralString(d dialect.Combo, v string) (Expr, error)
	LiteralDate(d dialect.Combo, v time.Time) (Expr, error)
	LiteralDatetime(d dialect.Combo, v time.Time) (Expr, error)
	LiteralDatetimeTZ(d dialect.Combo, v time.Time) (Expr, error)
	LiteralGenericDatetime(d dialect.Combo, v time.Time) (Expr, error)
	LiteralGeopoint(d dialect.Combo, v orb.Point) (Expr, error)
	LiteralGeopolygon(d dialect.Combo, v orb.Polygon) (Expr, error)
	LiteralUUID(d dialect.Combo, v uuid.UUID) (Expr, error)
	LiteralMarkup(d dialect.Combo, v string) (Expr, error)
	LiteralArrayInteger(d dialect.Combo, v []int64) (Expr, error)
	LiteralArrayFloat(d dialect.Combo, v []float64) (Expr, error)
	LiteralArrayString(d dialect.Combo, v []string) (Expr, error)
	LiteralTreeString(d dialect.Combo, v []string) (Expr, error)
	LiteralNull(d dialect.Combo) (Expr, error)
}

// DecimalLiteralizer is implemented by literalizers that render exact
// decimals. Literalize hands other literalizers the nearest float.
type DecimalLiteralizer interface {
	LiteralDecimal(d dialect.Combo, v decimal.Decimal) (Expr, error)
}

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.999999"
)

// ANSILiteralizer renders standard SQL literals. Dialects embed it and
// override the methods whose rendering differs.
type ANSILiteralizer struct {
	True, False string

	// WidePrefix is prepended to string literals holding non-ASCII text.
	// Empty means the dialect has a single string literal type.
	WidePrefix string

	// Array constructor syntax. An empty ArrayOpen means no array literals.
	ArrayPrefix, ArrayOpen, ArrayClose string

	Timezones TimezoneSupport
}

// ANSI literal defaults.
var ANSILiterals = ANSILiteralizer{
	True:        "TRUE",
	False:       "FALSE",
	ArrayPrefix: "ARRAY",
	ArrayOpen:   "[",
	ArrayClose:  "]",
	Timezones:   TimezoneOffset,
}

func (l ANSILiteralizer) LiteralInteger(_ dialect.Combo, v int64) (Expr, error) {
	return &Literal{Text: strconv.FormatInt(v, 10)}, nil
}

func (l ANSILiteralizer) LiteralFloat(d dialect.Combo, v float64) (Expr, error) {
	text, err := FloatText(v)
	if err != nil {
		return nil, NewUnsupportedLiteralError(d.String(), "float", err.Error())
	}
	return &Literal{Text: text}, nil
}

func (l ANSILiteralizer) LiteralDecimal(_ dialect.Combo, v decimal.Decimal) (Expr, error) {
	return &Literal{Text: DecimalText(v)}, nil
}

func (l ANSILiteralizer) LiteralBoolean(_ dialect.Combo, v bool) (Expr, error) {
	if v {
		return &BoolLiteral{Value: true, Text: l.True}, nil
	}
	return &BoolLiteral{Value: false, Text: l.False}, nil
}

func (l ANSILiteralizer) LiteralString(_ dialect.Combo, v string) (Expr, error) {
	text := QuoteString(v)
	if l.WidePrefix != "" && !IsASCII(v) {
		text = l.WidePrefix + text
	}
	return &Literal{Text: text}, nil
}

func (l ANSILiteralizer) LiteralDate(_ dialect.Combo, v time.Time) (Expr, error) {
	return &Literal{Text: "DATE " + QuoteString(v.Format(dateLayout))}, nil
}

func (l ANSILiteralizer) LiteralDatetime(_ dialect.Combo, v time.Time) (Expr, error) {
	return &Literal{Text: "TIMESTAMP " + QuoteString(v.Format(datetimeLayout))}, nil
}

func (l ANSILiteralizer) LiteralDatetimeTZ(d dialect.Combo, v time.Time) (Expr, error) {
	if l.Timezones == TimezoneNone {
		return l.LiteralDatetime(d, v.UTC())
	}
	return &Literal{Text: "TIMESTAMP WITH TIME ZONE " + QuoteString(v.Format(datetimeLayout+"-07:00"))}, nil
}

func (l ANSILiteralizer) LiteralGenericDatetime(d dialect.Combo, v time.Time) (Expr, error) {
	return l.LiteralDatetime(d, v)
}

func (l ANSILiteralizer) LiteralGeopoint(_ dialect.Combo, v orb.Point) (Expr, error) {
	return &Literal{Text: QuoteString(wkt.MarshalString(v))}, nil
}

func (l ANSILiteralizer) LiteralGeopolygon(_ dialect.Combo, v orb.Polygon) (Expr, error) {
	return &Literal{Text: QuoteString(wkt.MarshalString(v))}, nil
}

func (l ANSILiteralizer) LiteralUUID(_ dialect.Combo, v uuid.UUID) (Expr, error) {
	return &Literal{Text: QuoteString(v.String())}, nil
}

func (l ANSILiteralizer) LiteralMarkup(d dialect.Combo, _ string) (Expr, error) {
	return nil, NewUnsupportedLiteralError(d.String(), "markup")
}

func (l ANSILiteralizer) LiteralArrayInteger(d dialect.Combo, v []int64) (Expr, error) {
	items := make([]Expr, len(v))
	for i, x := range v {
		items[i], _ = l.LiteralInteger(d, x)
	}
	return l.array(d, "array", items)
}

func (l ANSILiteralizer) LiteralArrayFloat(d dialect.Combo, v []float64) (Expr, error) {
	items := make([]Expr, len(v))
	for i, x := range v {
		item, err := l.LiteralFloat(d, x)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return l.array(d, "array", items)
}

func (l ANSILiteralizer) LiteralArrayString(d dialect.Combo, v []string) (Expr, error) {
	items := make([]Expr, len(v))
	for i, x := range v {
		items[i], _ = l.LiteralString(d, x)
	}
	return l.array(d, "array", items)
}

func (l ANSILiteralizer) LiteralTreeString(d dialect.Combo, v []string) (Expr, error) {
	items := make([]Expr, len(v))
	for i, x := range v {
		items[i], _ = l.LiteralString(d, x)
	}
	return l.array(d, "tree", items)
}

func (l ANSILiteralizer) LiteralNull(dialect.Combo) (Expr, error) {
	return &Literal{Text: "NULL"}, nil
}

// Array builds a constructor over already rendered items.
func (l ANSILiteralizer) Array(d dialect.Combo, items []Expr) (Expr, error) {
	return l.array(d, "array", items)
}

func (l ANSILiteralizer) array(d dialect.Combo, kind string, items []Expr) (Expr, error) {
	if l.ArrayOpen == "" {
		return nil, NewUnsupportedLiteralError(d.String(), kind, "the dialect has no array type")
	}
	return &Array{Prefix: l.ArrayPrefix, Open: l.ArrayOpen, Close: l.ArrayClose, Items: items}, nil
}

// QuoteString renders s as a single-quoted SQL string.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsASCII reports whether s holds only ASCII characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// FloatText renders a finite float in its shortest exact decimal form,
// always with a fractional part so it is never read back as an integer.
func FloatText(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%v has no literal form", v)
	}
	text := decimal.NewFromFloat(v).String()
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text, nil
}

// DecimalText renders v in plain notation with every digit kept, always
// with a fractional part.
func DecimalText(v decimal.Decimal) string {
	text := v.String()
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

// Literalize dispatches a typed compile-time value to the matching
// Literalizer method.
func Literalize(l Literalizer, d dialect.Combo, t datatype.DataType, v any) (Expr, error) {
	if v == nil || t == datatype.Null {
		return l.LiteralNull(d)
	}
	bad := func() (Expr, error) {
		return nil, fmt.Errorf("value of type %T is not a %s", v, t)
	}
	switch t.NonConst() {
	case datatype.Integer:
		if x, ok := v.(int64); ok {
			return l.LiteralInteger(d, x)
		}
	case datatype.Float:
		switch x := v.(type) {
		case float64:
			return l.LiteralFloat(d, x)
		case decimal.Decimal:
			if dl, ok := l.(DecimalLiteralizer); ok {
				return dl.LiteralDecimal(d, x)
			}
			return l.LiteralFloat(d, x.InexactFloat64())
		}
	case datatype.Boolean:
		if x, ok := v.(bool); ok {
			return l.LiteralBoolean(d, x)
		}
	case datatype.String:
		if x, ok := v.(string); ok {
			return l.LiteralString(d, x)
		}
	case datatype.Date:
		if x, ok := v.(time.Time); ok {
			return l.LiteralDate(d, x)
		}
	case datatype.Datetime:
		if x, ok := v.(time.Time); ok {
			return l.LiteralDatetime(d, x)
		}
	case datatype.DatetimeTZ:
		if x, ok := v.(time.Time); ok {
			return l.LiteralDatetimeTZ(d, x)
		}
	case datatype.GenericDatetime:
		if x, ok := v.(time.Time); ok {
			return l.LiteralGenericDatetime(d, x)
		}
	case datatype.Geopoint:
		if x, ok := v.(orb.Point); ok {
			return l.LiteralGeopoint(d, x)
		}
	case datatype.Geopolygon:
		if x, ok := v.(orb.Polygon); ok {
			return l.LiteralGeopolygon(d, x)
		}
	case datatype.UUID:
		if x, ok := v.(uuid.UUID); ok {
			return l.LiteralUUID(d, x)
		}
	case datatype.Markup:
		if x, ok := v.(string); ok {
			return l.LiteralMarkup(d, x)
		}
	case datatype.ArrayInt:
		if x, ok := v.([]int64); ok {
			return l.LiteralArrayInteger(d, x)
		}
	case datatype.ArrayFloat:
		if x, ok := v.([]float64); ok {
			return l.LiteralArrayFloat(d, x)
		}
	case datatype.ArrayStr:
		if x, ok := v.([]string); ok {
			return l.LiteralArrayString(d, x)
		}
	case datatype.TreeStr:
		if x, ok := v.([]string); ok {
			return l.LiteralTreeString(d, x)
		}
	default:
		return nil, NewUnsupportedLiteralError(d.String(), strings.ToLower(t.NonConst().String()))
	}
	return bad()
}
