package datatype

import "fmt"

// Strategy infers the result type of an operation from its argument types.
// Implementations are plain comparable values so definitions can be compared.
type Strategy interface {
	Infer(args []DataType) DataType
	String() string
}

// Fixed always returns T.
type Fixed struct{ T DataType }

func (s Fixed) Infer([]DataType) DataType { return s.T }
func (s Fixed) String() string            { return s.T.String() }

// ConstIfAll returns T, promoted to its constant variant when every argument
// is constant.
type ConstIfAll struct{ T DataType }

func (s ConstIfAll) Infer(args []DataType) DataType {
	for _, a := range args {
		if !a.IsConst() {
			return s.T
		}
	}
	if len(args) == 0 {
		return s.T
	}
	return s.T.Const()
}

func (s ConstIfAll) String() string { return fmt.Sprintf("const-if-all(%s)", s.T) }

// FromArg returns the common type of the arguments at positions Start,
// Start+Step, ... plus the last argument when Last is set. Step 0 means only
// Start.
type FromArg struct {
	Start, Step int
	Last        bool
}

// FromArgs is the common type of every argument.
var FromArgs = FromArg{Start: 0, Step: 1}

func (s FromArg) Infer(args []DataType) DataType {
	var picked []DataType
	for i := s.Start; i < len(args); i++ {
		if s.Step == 0 {
			if i == s.Start {
				picked = append(picked, args[i])
			}
			break
		}
		if (i-s.Start)%s.Step == 0 {
			picked = append(picked, args[i])
		}
	}
	if s.Last && len(args) > 0 {
		picked = append(picked, args[len(args)-1])
	}
	t, ok := Common(picked...)
	if !ok {
		return Unsupported
	}
	return t
}

func (s FromArg) String() string {
	return fmt.Sprintf("from-args(%d,%d,%t)", s.Start, s.Step, s.Last)
}

// ItemOf returns the element type of the array argument at Index.
type ItemOf struct{ Index int }

func (s ItemOf) Infer(args []DataType) DataType {
	if s.Index >= len(args) {
		return Unsupported
	}
	return args[s.Index].ItemType()
}

func (s ItemOf) String() string { return fmt.Sprintf("item-of(%d)", s.Index) }

// ArrayOfArgs returns the array type holding the common type of every argument.
type ArrayOfArgs struct{}

func (ArrayOfArgs) Infer(args []DataType) DataType {
	t, ok := Common(args...)
	if !ok {
		return Unsupported
	}
	return ArrayOf(t)
}

func (ArrayOfArgs) String() string { return "array-of-args" }

// Runtime returns Inner's result without constness, as for aggregates whose
// value is only known at query time.
type Runtime struct{ Inner Strategy }

func (s Runtime) Infer(args []DataType) DataType { return s.Inner.Infer(args).NonConst() }
func (s Runtime) String() string                 { return "runtime(" + s.Inner.String() + ")" }

// Strict returns Inner's result, constant only when every argument is
// constant. Conditionals use it: a constant branch does not make the result
// known at compile time.
type Strict struct{ Inner Strategy }

func (s Strict) Infer(args []DataType) DataType {
	t := s.Inner.Infer(args)
	for _, a := range args {
		if !a.IsConst() && a != Null {
			return t.NonConst()
		}
	}
	return t
}

func (s Strict) String() string { return "strict(" + s.Inner.String() + ")" }
