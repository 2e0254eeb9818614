// Package definitions is the default operation set every dialect starts
// from. Connectors add more specific variants and overrides on top.
package definitions

import (
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/registry"
)

// Operation names referenced outside the registry.
const (
	If       = "if"
	Case     = "case"
	Not      = "not"
	And      = "and"
	Or       = "or"
	Eq       = "=="
	Ne       = "!="
	Lt       = "<"
	Gt       = ">"
	Le       = "<="
	Ge       = ">="
	Add      = "+"
	Sub      = "-"
	Mul      = "*"
	Div      = "/"
	Mod      = "%"
	IsNull   = "isnull"
	In       = "in"
	Like     = "like"
	Array    = "array"
	Unnest   = "unnest"
	Contains = "contains"
	RSum     = "rsum"
	Rank     = "rank"
)

// Inverse maps each comparison to its negation.
var Inverse = map[string]string{
	Eq: Ne, Ne: Eq,
	Lt: Ge, Ge: Lt,
	Gt: Le, Le: Gt,
}

// Comparison reports whether name is a comparison operator.
func Comparison(name string) bool {
	_, ok := Inverse[name]
	return ok
}

// All returns the default operations.
func All() []registry.BasicOpItem {
	var out []registry.BasicOpItem
	out = append(out, operators()...)
	out = append(out, functions()...)
	out = append(out, aggregates()...)
	out = append(out, windows()...)
	return out
}

// comparableSigs are the argument pairs that may be compared.
var comparableSigs = []registry.Signature{
	registry.Sig(registry.Numeric, registry.Numeric),
	registry.Sig(registry.Strings, registry.Strings),
	registry.Sig(registry.Dates, registry.Dates),
	registry.Sig(registry.Bools, registry.Bools),
	registry.Sig(registry.Types(datatype.UUID), registry.Types(datatype.UUID)),
}

// each adds one variant per signature sharing returns and fn.
func each(t *registry.Translation, sigs []registry.Signature, returns datatype.Strategy, fn registry.Renderer) *registry.Translation {
	for _, sig := range sigs {
		t = t.Any(sig, returns, fn)
	}
	return t
}
