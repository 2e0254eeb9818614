// Package paramsql renders ad-hoc SQL templates by substituting typed
// parameter values as dialect literals.
//
// Placeholders are written {{name}}. Names start with a letter, contain only
// letters, digits and underscores, and are not SQL keywords.
package paramsql

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/shopspring/decimal"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/internal/datatype"
)

// Param is one named, typed parameter. Value, when set, is used as is;
// otherwise Raw is parsed according to Type.
type Param struct {
	Name  string
	Type  formula.DataType
	Raw   string
	Value any
}

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]*)\s*\}\}`)

// Placeholders returns the distinct placeholder names of query in order of
// first appearance.
func Placeholders(query string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(query, -1) {
		name := m[1]
		if !isValidParamName(name) {
			return nil, fmt.Errorf("invalid parameter name '%s': must be alphanumeric with underscores, starting with letter", name)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// Substitute replaces every placeholder of query with the literal rendering
// of its parameter for dialect d. Every placeholder must have a parameter.
func Substitute(e *formula.Engine, d formula.Combo, query string, params []Param) (string, error) {
	names, err := Placeholders(query)
	if err != nil {
		return "", err
	}
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		if !isValidParamName(p.Name) {
			return "", fmt.Errorf("invalid parameter name '%s': must be alphanumeric with underscores, starting with letter", p.Name)
		}
		if _, dup := byName[p.Name]; dup {
			return "", fmt.Errorf("parameter '%s' given twice", p.Name)
		}
		byName[p.Name] = p
	}

	rendered := make(map[string]string, len(names))
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return "", fmt.Errorf("missing parameter '%s'", name)
		}
		v := p.Value
		if v == nil {
			if v, err = Parse(p.Type, p.Raw); err != nil {
				return "", fmt.Errorf("parameter '%s': %w", name, err)
			}
		}
		lit, err := e.RenderLiteral(d, p.Type, v)
		if err != nil {
			return "", fmt.Errorf("parameter '%s': %w", name, err)
		}
		rendered[name] = lit
	}

	return placeholder.ReplaceAllStringFunc(query, func(m string) string {
		return rendered[placeholder.FindStringSubmatch(m)[1]]
	}), nil
}

var (
	datetimeLayouts   = []string{"2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05.999999999", "2006-01-02"}
	datetimeTZLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999 MST"}
)

func parseTime(raw string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", raw)
}

// Parse converts the text form of a value of type t into the Go value the
// literalizers expect. Array items are comma separated and may be quoted.
func Parse(t formula.DataType, raw string) (any, error) {
	if t.IsArray() || t.NonConst() == datatype.TreeStr {
		return parseArray(t.NonConst(), raw)
	}
	raw = strings.TrimSpace(raw)
	switch t.NonConst() {
	case datatype.Null:
		return nil, nil
	case datatype.Integer:
		return strconv.ParseInt(raw, 10, 64)
	case datatype.Float:
		return decimal.NewFromString(raw)
	case datatype.Boolean:
		return strconv.ParseBool(raw)
	case datatype.String, datatype.Markup:
		return raw, nil
	case datatype.Date:
		return time.Parse("2006-01-02", raw)
	case datatype.Datetime, datatype.GenericDatetime:
		return parseTime(raw, datetimeLayouts)
	case datatype.DatetimeTZ:
		return parseTime(raw, datetimeTZLayouts)
	case datatype.UUID:
		return uuid.Parse(raw)
	case datatype.Geopoint:
		return wkt.UnmarshalPoint(raw)
	case datatype.Geopolygon:
		return wkt.UnmarshalPolygon(raw)
	}
	return nil, fmt.Errorf("parameters of type %s are not supported", t)
}

func parseArray(t formula.DataType, raw string) (any, error) {
	var items []string
	if strings.TrimSpace(raw) != "" {
		r := csv.NewReader(strings.NewReader(raw))
		r.TrimLeadingSpace = true
		record, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as a list: %w", raw, err)
		}
		items = record
	}

	switch t {
	case datatype.ArrayInt:
		out := make([]int64, len(items))
		for i, s := range items {
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case datatype.ArrayFloat:
		out := make([]float64, len(items))
		for i, s := range items {
			v, err := decimal.NewFromString(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = v.InexactFloat64()
		}
		return out, nil
	case datatype.ArrayStr, datatype.TreeStr:
		if items == nil {
			items = []string{}
		}
		return items, nil
	}
	return nil, fmt.Errorf("parameters of type %s are not supported", t)
}

// Only allows alphanumeric characters and underscores, must start with letter.
func isValidParamName(name string) bool {
	if name == "" {
		return false
	}

	// Must start with letter (not underscore for params)
	first := name[0]
	if !((first >= 'a' && first <= 'z') ||
		(first >= 'A' && first <= 'Z')) {
		return false
	}

	// Rest must be alphanumeric or underscore
	for i := 1; i < len(name); i++ {
		ch := name[i]
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '_') {
			return false
		}
	}

	// Reject SQL keywords that could be confusing
	switch strings.ToLower(name) {
	case "select", "insert", "update", "delete", "drop",
		"create", "alter", "table", "from", "where",
		"and", "or", "not", "null", "true", "false",
		"union", "join", "having", "group", "order":
		return false
	}
	return true
}
