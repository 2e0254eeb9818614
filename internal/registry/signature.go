package registry

import (
	"reflect"
	"strings"

	"github.com/zoobzio/formula/internal/datatype"
)

// ArgType describes the argument types accepted at one position.
type ArgType struct {
	// Kinds lists accepted runtime kinds. Empty accepts anything.
	Kinds []datatype.DataType
	// ConstOnly requires a compile-time value.
	ConstOnly bool
}

// AnyType accepts every argument.
var AnyType = ArgType{}

// Types accepts the given kinds, constant or not.
func Types(kinds ...datatype.DataType) ArgType {
	out := make([]datatype.DataType, len(kinds))
	for i, k := range kinds {
		out[i] = k.NonConst()
	}
	return ArgType{Kinds: out}
}

// Const restricts a to compile-time values.
func (a ArgType) Const() ArgType {
	a.ConstOnly = true
	return a
}

// Common argument types.
var (
	Numeric  = Types(datatype.Integer, datatype.Float)
	Integers = Types(datatype.Integer)
	Floats   = Types(datatype.Float)
	Strings  = Types(datatype.String)
	Bools    = Types(datatype.Boolean)
	Dates    = Types(datatype.Date, datatype.Datetime, datatype.DatetimeTZ, datatype.GenericDatetime)
	Arrays   = Types(datatype.ArrayInt, datatype.ArrayFloat, datatype.ArrayStr)
	Scalars  = Types(datatype.Integer, datatype.Float, datatype.Boolean, datatype.String,
		datatype.Date, datatype.Datetime, datatype.DatetimeTZ, datatype.GenericDatetime, datatype.UUID)
)

func (a ArgType) match(t datatype.DataType) (exact, ok bool) {
	if a.ConstOnly && !t.IsConst() && t != datatype.Null {
		return false, false
	}
	if len(a.Kinds) == 0 {
		return false, true
	}
	for _, k := range a.Kinds {
		if t.NonConst() == k {
			return true, true
		}
	}
	for _, k := range a.Kinds {
		if t.CastsTo(k) {
			return false, true
		}
	}
	return false, false
}

func (a ArgType) String() string {
	var s string
	if len(a.Kinds) == 0 {
		s = "ANY"
	} else {
		names := make([]string, len(a.Kinds))
		for i, k := range a.Kinds {
			names[i] = k.String()
		}
		s = strings.Join(names, "|")
	}
	if a.ConstOnly {
		s = "CONST " + s
	}
	return s
}

// Signature is the per-position argument types of a variant. Rest, when
// set, applies to every argument past Args.
type Signature struct {
	Args []ArgType
	Rest *ArgType
}

// Sig builds a fixed-length signature.
func Sig(args ...ArgType) Signature {
	return Signature{Args: args}
}

// WithRest returns s accepting any number of trailing rest arguments.
func (s Signature) WithRest(rest ArgType) Signature {
	s.Rest = &rest
	return s
}

// Repeat is a signature of only rest arguments.
func Repeat(rest ArgType) Signature {
	return Signature{Rest: &rest}
}

// Match scores types against s: the number of arguments matching a kind
// exactly rather than through widening. ok is false on any mismatch.
func (s Signature) Match(types []datatype.DataType) (score int, ok bool) {
	if len(types) < len(s.Args) || (len(types) > len(s.Args) && s.Rest == nil) {
		return 0, false
	}
	for i, t := range types {
		at := s.Rest
		if i < len(s.Args) {
			at = &s.Args[i]
		}
		exact, ok := at.match(t)
		if !ok {
			return 0, false
		}
		if exact {
			score++
		}
	}
	return score, true
}

// Equal reports structural equality.
func (s Signature) Equal(o Signature) bool {
	return reflect.DeepEqual(s, o)
}

func (s Signature) String() string {
	parts := make([]string, 0, len(s.Args)+1)
	for _, a := range s.Args {
		parts = append(parts, a.String())
	}
	if s.Rest != nil {
		parts = append(parts, s.Rest.String()+"...")
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
