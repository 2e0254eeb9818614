// Package datatype defines the formula type lattice with its compile-time
// constant variants.
package datatype

import (
	"fmt"
	"strings"
)

// DataType is a runtime kind, optionally flagged as known at compile time.
type DataType uint8

const constFlag DataType = 0x80

// Runtime kinds.
const (
	Null DataType = iota
	Integer
	Float
	Boolean
	String
	Date
	Datetime
	DatetimeTZ
	GenericDatetime
	Geopoint
	Geopolygon
	UUID
	Markup
	ArrayInt
	ArrayFloat
	ArrayStr
	TreeStr
	Unsupported
)

// Constant variants.
const (
	ConstInteger         = Integer | constFlag
	ConstFloat           = Float | constFlag
	ConstBoolean         = Boolean | constFlag
	ConstString          = String | constFlag
	ConstDate            = Date | constFlag
	ConstDatetime        = Datetime | constFlag
	ConstDatetimeTZ      = DatetimeTZ | constFlag
	ConstGenericDatetime = GenericDatetime | constFlag
	ConstGeopoint        = Geopoint | constFlag
	ConstGeopolygon      = Geopolygon | constFlag
	ConstUUID            = UUID | constFlag
	ConstMarkup          = Markup | constFlag
	ConstArrayInt        = ArrayInt | constFlag
	ConstArrayFloat      = ArrayFloat | constFlag
	ConstArrayStr        = ArrayStr | constFlag
	ConstTreeStr         = TreeStr | constFlag
	ConstUnsupported     = Unsupported | constFlag
)

var names = [...]string{
	Null:            "NULL",
	Integer:         "INTEGER",
	Float:           "FLOAT",
	Boolean:         "BOOLEAN",
	String:          "STRING",
	Date:            "DATE",
	Datetime:        "DATETIME",
	DatetimeTZ:      "DATETIMETZ",
	GenericDatetime: "GENERICDATETIME",
	Geopoint:        "GEOPOINT",
	Geopolygon:      "GEOPOLYGON",
	UUID:            "UUID",
	Markup:          "MARKUP",
	ArrayInt:        "ARRAY_INT",
	ArrayFloat:      "ARRAY_FLOAT",
	ArrayStr:        "ARRAY_STR",
	TreeStr:         "TREE_STR",
	Unsupported:     "UNSUPPORTED",
}

// Kinds returns every non-constant kind, NULL included.
func Kinds() []DataType {
	out := make([]DataType, 0, len(names))
	for k := range names {
		out = append(out, DataType(k))
	}
	return out
}

// IsConst reports whether the value is known at compile time.
func (t DataType) IsConst() bool { return t&constFlag != 0 && t != Null }

// NonConst strips the constant flag.
func (t DataType) NonConst() DataType { return t &^ constFlag }

// Const returns the constant variant. NULL has none and is returned as is.
func (t DataType) Const() DataType {
	if t == Null {
		return Null
	}
	return t | constFlag
}

// Valid reports whether t is a known kind.
func (t DataType) Valid() bool { return int(t.NonConst()) < len(names) }

func (t DataType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
	if t.IsConst() {
		return "CONST_" + names[t.NonConst()]
	}
	return names[t]
}

// Parse resolves a type name such as "integer" or "CONST_STRING".
func Parse(s string) (DataType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	isConst := strings.HasPrefix(s, "CONST_")
	s = strings.TrimPrefix(s, "CONST_")
	for k, n := range names {
		if n == s {
			t := DataType(k)
			if isConst {
				t = t.Const()
			}
			return t, nil
		}
	}
	return Unsupported, fmt.Errorf("unknown data type %q", s)
}

// IsNumeric reports INTEGER or FLOAT, constant or not.
func (t DataType) IsNumeric() bool {
	k := t.NonConst()
	return k == Integer || k == Float
}

// IsDateLike reports any date or datetime kind.
func (t DataType) IsDateLike() bool {
	switch t.NonConst() {
	case Date, Datetime, DatetimeTZ, GenericDatetime:
		return true
	}
	return false
}

// IsArray reports any array kind.
func (t DataType) IsArray() bool {
	switch t.NonConst() {
	case ArrayInt, ArrayFloat, ArrayStr:
		return true
	}
	return false
}

// ItemType returns the element type of an array kind, preserving constness.
func (t DataType) ItemType() DataType {
	var item DataType
	switch t.NonConst() {
	case ArrayInt:
		item = Integer
	case ArrayFloat:
		item = Float
	case ArrayStr, TreeStr:
		item = String
	default:
		return Unsupported
	}
	if t.IsConst() {
		return item.Const()
	}
	return item
}

// ArrayOf returns the array kind holding items of t, preserving constness.
func ArrayOf(t DataType) DataType {
	var arr DataType
	switch t.NonConst() {
	case Integer:
		arr = ArrayInt
	case Float:
		arr = ArrayFloat
	case String:
		arr = ArrayStr
	default:
		return Unsupported
	}
	if t.IsConst() {
		return arr.Const()
	}
	return arr
}

var widenings = map[DataType][]DataType{
	Integer:    {Float},
	Date:       {GenericDatetime},
	Datetime:   {GenericDatetime},
	DatetimeTZ: {GenericDatetime},
	ArrayInt:   {ArrayFloat},
}

// CastsTo reports whether a value of type t is acceptable where target is
// expected. Constant types widen to their runtime kind; the reverse never
// holds.
func (t DataType) CastsTo(target DataType) bool {
	if t == target || t == Null {
		return true
	}
	if target.IsConst() && !t.IsConst() {
		return false
	}
	from, to := t.NonConst(), target.NonConst()
	if from == to {
		return true
	}
	for _, w := range widenings[from] {
		if w == to {
			return true
		}
	}
	return false
}

// Common returns the narrowest type every input casts to. NULL inputs are
// ignored. The result is constant only if all non-null inputs are constant.
func Common(types ...DataType) (DataType, bool) {
	result := Null
	allConst := true
	for _, t := range types {
		if t == Null {
			continue
		}
		if !t.IsConst() {
			allConst = false
		}
		k := t.NonConst()
		switch {
		case result == Null, k.CastsTo(result):
		case result.CastsTo(k):
			result = k
		default:
			return Unsupported, false
		}
		if result == Null {
			result = k
		}
	}
	if result != Null && allConst {
		result = result.Const()
	}
	return result, true
}
