package render

import "strings"

// FieldNames maps a logical field name to its qualified name parts, for
// example "total" -> ["orders", "total"].
type FieldNames map[string][]string

// Parts returns the name parts for a field, defaulting to the bare name.
func (n FieldNames) Parts(name string) []string {
	if parts, ok := n[name]; ok && len(parts) > 0 {
		return parts
	}
	return []string{name}
}

// ColumnRenderer renders field references for a dialect.
type ColumnRenderer interface {
	// MakeColumn renders the fully qualified reference.
	MakeColumn(name string, names FieldNames) *Column
	// MakeUnprefixedColumn renders only the last name part.
	MakeUnprefixedColumn(name string, names FieldNames) *Column
}

// QuotedColumns quotes every name part with a per-dialect quoting rule and
// joins them with dots.
type QuotedColumns struct {
	Open, Close string
	// Escape replaces Close inside an identifier. Defaults to Close doubled.
	Escape string
}

// DoubleQuoted is the ANSI quoting rule.
var DoubleQuoted = QuotedColumns{Open: `"`, Close: `"`}

// Backticked is the MySQL-style quoting rule.
var Backticked = QuotedColumns{Open: "`", Close: "`"}

// Quote quotes a single identifier.
func (q QuotedColumns) Quote(ident string) string {
	esc := q.Escape
	if esc == "" {
		esc = q.Close + q.Close
	}
	return q.Open + strings.ReplaceAll(ident, q.Close, esc) + q.Close
}

func (q QuotedColumns) MakeColumn(name string, names FieldNames) *Column {
	parts := names.Parts(name)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = q.Quote(p)
	}
	return &Column{Parts: parts, Text: strings.Join(quoted, ".")}
}

func (q QuotedColumns) MakeUnprefixedColumn(name string, names FieldNames) *Column {
	parts := names.Parts(name)
	last := parts[len(parts)-1]
	return &Column{Parts: []string{last}, Text: q.Quote(last)}
}
