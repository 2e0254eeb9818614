// Package astfile reads formula trees written as YAML documents.
//
// A node is either a plain scalar (integer, float, boolean, string or null)
// or a mapping with one discriminating key:
//
//	field: name
//	op: "+"                  args: [...]
//	func: name               args: [...]
//	agg: name                args: [...]
//	window: name             args: [...]  within: [...]  order: [...]
//	if: [{when: x, then: y}] else: z
//	case: subject            branches: [{when: v, then: y}]  else: z
//	paren: x
//	scope: [names]           expr: x
//	int | float | bool | str | date | datetime | datetimetz | uuid: value
//	point | polygon: WKT
//	ints | floats | strs | tree: [values]
//	null: ~
//
// Every node carries the line and column of its YAML source.
package astfile

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/wkt"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/formula/internal/nodes"
)

// Document is a YAML file holding one or more formulas and, optionally,
// the environment and dialect to compile them for.
type Document struct {
	Dialect    string
	Condition  bool
	Unprefixed bool
	Fields     map[string]string
	Names      map[string][]string
	Scopes     map[string]string
	// Formulas in document order. A document with a single top-level
	// "formula" key holds one entry named "formula".
	Formulas []Formula
}

// Formula is one named tree of a document.
type Formula struct {
	Name string
	Tree nodes.Node
}

// Error locates a problem in the YAML source.
type Error struct {
	Line, Column int
	Msg          string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func errorf(n *yaml.Node, format string, args ...any) error {
	return &Error{Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

// ReadFile parses the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formula file: %w", err)
	}
	return Parse(data)
}

type header struct {
	Dialect    string              `yaml:"dialect"`
	Condition  bool                `yaml:"condition"`
	Unprefixed bool                `yaml:"unprefixed"`
	Fields     map[string]string   `yaml:"fields"`
	Names      map[string][]string `yaml:"names"`
	Scopes     map[string]string   `yaml:"scopes"`
	Formula    yaml.Node           `yaml:"formula"`
	Formulas   yaml.Node           `yaml:"formulas"`
}

// Parse decodes a document. Unknown top-level keys are rejected.
func Parse(data []byte) (*Document, error) {
	var h header
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	doc := &Document{
		Dialect:    h.Dialect,
		Condition:  h.Condition,
		Unprefixed: h.Unprefixed,
		Fields:     h.Fields,
		Names:      h.Names,
		Scopes:     h.Scopes,
	}
	hasOne, hasMany := h.Formula.Kind != 0, h.Formulas.Kind != 0
	switch {
	case hasOne && hasMany:
		return nil, errorf(&h.Formulas, "use either formula or formulas")
	case hasOne:
		tree, err := Decode(&h.Formula)
		if err != nil {
			return nil, err
		}
		doc.Formulas = []Formula{{Name: "formula", Tree: tree}}
	case hasMany:
		if h.Formulas.Kind != yaml.MappingNode {
			return nil, errorf(&h.Formulas, "formulas must be a mapping of names to trees")
		}
		for i := 0; i+1 < len(h.Formulas.Content); i += 2 {
			key, value := h.Formulas.Content[i], h.Formulas.Content[i+1]
			tree, err := Decode(value)
			if err != nil {
				return nil, err
			}
			doc.Formulas = append(doc.Formulas, Formula{Name: key.Value, Tree: tree})
		}
	default:
		return nil, fmt.Errorf("document has no formula")
	}
	return doc, nil
}

// ParseNode decodes a single tree.
func ParseNode(data []byte) (nodes.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	return Decode(root.Content[0])
}

// Decode converts a YAML node into a tree.
func Decode(y *yaml.Node) (nodes.Node, error) {
	n, err := decode(y)
	if err != nil {
		return nil, err
	}
	return nodes.WithMeta(n, nodes.Meta{Position: nodes.Position{Row: y.Line, Col: y.Column}}), nil
}

func decode(y *yaml.Node) (nodes.Node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return decode(y.Alias)
	case yaml.ScalarNode:
		return scalar(y)
	case yaml.MappingNode:
		return mapping(y)
	}
	return nil, errorf(y, "expected a scalar or a mapping")
}

func scalar(y *yaml.Node) (nodes.Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return nodes.NewNull(), nil
	case "!!int":
		v, err := strconv.ParseInt(y.Value, 0, 64)
		if err != nil {
			return nil, errorf(y, "%v", err)
		}
		return nodes.Integer(v), nil
	case "!!float":
		v, err := strconv.ParseFloat(y.Value, 64)
		if err != nil {
			return nil, errorf(y, "%v", err)
		}
		return nodes.Float(v), nil
	case "!!bool":
		var v bool
		if err := y.Decode(&v); err != nil {
			return nil, errorf(y, "%v", err)
		}
		return nodes.Boolean(v), nil
	case "!!str":
		return nodes.String(y.Value), nil
	case "!!timestamp":
		if t, err := time.Parse("2006-01-02", y.Value); err == nil {
			return nodes.Date(t), nil
		}
		t, err := parseTime(y.Value)
		if err != nil {
			return nil, errorf(y, "%v", err)
		}
		return nodes.Datetime(t), nil
	}
	return nil, errorf(y, "unsupported scalar tag %s", y.ShortTag())
}

func fields(y *yaml.Node) (map[string]*yaml.Node, error) {
	out := make(map[string]*yaml.Node, len(y.Content)/2)
	for i := 0; i+1 < len(y.Content); i += 2 {
		k := y.Content[i]
		if _, dup := out[k.Value]; dup {
			return nil, errorf(k, "duplicate key %q", k.Value)
		}
		out[k.Value] = y.Content[i+1]
	}
	return out, nil
}

// allowed lists, per discriminating key, the other keys its mapping may hold.
var allowed = map[string][]string{
	"field": nil, "paren": nil, "null": nil,
	"op": {"args"}, "func": {"args"}, "agg": {"args"},
	"window": {"args", "within", "order"},
	"if":     {"else"},
	"case":   {"branches", "else"},
	"scope":  {"expr"},
	"int":    nil, "float": nil, "bool": nil, "str": nil,
	"date": nil, "datetime": nil, "datetimetz": nil, "generic_datetime": nil,
	"uuid": nil, "point": nil, "polygon": nil,
	"ints": nil, "floats": nil, "strs": nil, "tree": nil,
}

func mapping(y *yaml.Node) (nodes.Node, error) {
	kv, err := fields(y)
	if err != nil {
		return nil, err
	}
	kind := ""
	for k := range kv {
		if _, ok := allowed[k]; ok {
			if kind != "" {
				return nil, errorf(y, "node has both %q and %q", kind, k)
			}
			kind = k
		}
	}
	if kind == "" {
		keys := make([]string, 0, len(allowed))
		for k := range allowed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, errorf(y, "node needs one of %v", keys)
	}
	for k, v := range kv {
		if k != kind && !contains(allowed[kind], k) {
			return nil, errorf(v, "unexpected key %q in %s node", k, kind)
		}
	}
	v := kv[kind]

	switch kind {
	case "field":
		return nodes.NewField(v.Value), nil
	case "null":
		return nodes.NewNull(), nil
	case "paren":
		inner, err := Decode(v)
		if err != nil {
			return nil, err
		}
		return nodes.NewParen(inner), nil
	case "op", "func", "agg", "window":
		args, err := list(kv["args"])
		if err != nil {
			return nil, err
		}
		switch kind {
		case "op":
			return nodes.NewOperator(v.Value, args...), nil
		case "func":
			return nodes.NewFunction(v.Value, args...), nil
		case "agg":
			return nodes.NewAggregate(v.Value, args...), nil
		}
		within, err := list(kv["within"])
		if err != nil {
			return nil, err
		}
		order, err := list(kv["order"])
		if err != nil {
			return nil, err
		}
		return nodes.NewWindow(v.Value, args, within, order), nil
	case "if":
		branches, err := branchList(v)
		if err != nil {
			return nil, err
		}
		otherwise, err := optional(kv["else"])
		if err != nil {
			return nil, err
		}
		return nodes.NewIfBlock(branches, otherwise), nil
	case "case":
		subject, err := Decode(v)
		if err != nil {
			return nil, err
		}
		b, ok := kv["branches"]
		if !ok {
			return nil, errorf(y, "case node needs branches")
		}
		branches, err := branchList(b)
		if err != nil {
			return nil, err
		}
		otherwise, err := optional(kv["else"])
		if err != nil {
			return nil, err
		}
		return nodes.NewCaseBlock(subject, branches, otherwise), nil
	case "scope":
		var names []string
		if err := v.Decode(&names); err != nil {
			return nil, errorf(v, "scope names: %v", err)
		}
		e, ok := kv["expr"]
		if !ok {
			return nil, errorf(y, "scope node needs expr")
		}
		inner, err := Decode(e)
		if err != nil {
			return nil, err
		}
		return nodes.NewBeforeFilterBy(inner, names...), nil
	}
	return literal(kind, v)
}

func literal(kind string, v *yaml.Node) (nodes.Node, error) {
	fail := func(err error) (nodes.Node, error) { return nil, errorf(v, "%s: %v", kind, err) }
	switch kind {
	case "int":
		var x int64
		if err := v.Decode(&x); err != nil {
			return fail(err)
		}
		return nodes.Integer(x), nil
	case "float":
		var x float64
		if err := v.Decode(&x); err != nil {
			return fail(err)
		}
		return nodes.Float(x), nil
	case "bool":
		var x bool
		if err := v.Decode(&x); err != nil {
			return fail(err)
		}
		return nodes.Boolean(x), nil
	case "str":
		return nodes.String(v.Value), nil
	case "date":
		t, err := time.Parse("2006-01-02", v.Value)
		if err != nil {
			return fail(err)
		}
		return nodes.Date(t), nil
	case "datetime", "generic_datetime":
		t, err := parseTime(v.Value)
		if err != nil {
			return fail(err)
		}
		if kind == "generic_datetime" {
			return nodes.GenericDatetime(t), nil
		}
		return nodes.Datetime(t), nil
	case "datetimetz":
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return fail(err)
		}
		return nodes.DatetimeTZ(t), nil
	case "uuid":
		u, err := uuid.Parse(v.Value)
		if err != nil {
			return fail(err)
		}
		return nodes.UUID(u), nil
	case "point":
		p, err := wkt.UnmarshalPoint(v.Value)
		if err != nil {
			return fail(err)
		}
		return nodes.Geopoint(p), nil
	case "polygon":
		p, err := wkt.UnmarshalPolygon(v.Value)
		if err != nil {
			return fail(err)
		}
		return nodes.Geopolygon(p), nil
	case "ints":
		var xs []int64
		if err := v.Decode(&xs); err != nil {
			return fail(err)
		}
		return nodes.ArrayInt(xs...), nil
	case "floats":
		var xs []float64
		if err := v.Decode(&xs); err != nil {
			return fail(err)
		}
		return nodes.ArrayFloat(xs...), nil
	case "strs", "tree":
		var xs []string
		if err := v.Decode(&xs); err != nil {
			return fail(err)
		}
		if kind == "tree" {
			return nodes.TreeString(xs...), nil
		}
		return nodes.ArrayString(xs...), nil
	}
	return nil, errorf(v, "unknown node kind %q", kind)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a datetime", s)
}

func list(y *yaml.Node) ([]nodes.Node, error) {
	if y == nil {
		return nil, nil
	}
	if y.Kind != yaml.SequenceNode {
		return nil, errorf(y, "expected a list")
	}
	out := make([]nodes.Node, len(y.Content))
	for i, c := range y.Content {
		n, err := Decode(c)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func optional(y *yaml.Node) (nodes.Node, error) {
	if y == nil {
		return nil, nil
	}
	return Decode(y)
}

func branchList(y *yaml.Node) ([]nodes.Branch, error) {
	if y.Kind != yaml.SequenceNode {
		return nil, errorf(y, "expected a list of branches")
	}
	out := make([]nodes.Branch, len(y.Content))
	for i, c := range y.Content {
		if c.Kind != yaml.MappingNode {
			return nil, errorf(c, "a branch is a mapping with when and then")
		}
		kv, err := fields(c)
		if err != nil {
			return nil, err
		}
		when, ok1 := kv["when"]
		then, ok2 := kv["then"]
		if !ok1 || !ok2 || len(kv) != 2 {
			return nil, errorf(c, "a branch is a mapping with when and then")
		}
		if out[i].When, err = Decode(when); err != nil {
			return nil, err
		}
		if out[i].Then, err = Decode(then); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
