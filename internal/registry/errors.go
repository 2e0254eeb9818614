package registry

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zoobzio/formula/internal/datatype"
)

// ErrorKind classifies fatal registry errors.
type ErrorKind int

const (
	KindUnknownOperation ErrorKind = iota + 1
	KindConflict
	KindAmbiguous
	KindSealed
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownOperation:
		return "unknown operation"
	case KindConflict:
		return "conflicting definition"
	case KindAmbiguous:
		return "ambiguous variants"
	case KindSealed:
		return "registry sealed"
	case KindInvalid:
		return "invalid definition"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a fatal registry fault: a coverage gap or an inconsistent set of
// definitions. It never carries diagnostics.
type Error struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnknownOperation = &Error{Kind: KindUnknownOperation}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrAmbiguous        = &Error{Kind: KindAmbiguous}
	ErrSealed           = &Error{Kind: KindSealed}
	ErrInvalid          = &Error{Kind: KindInvalid}
)

func newError(kind ErrorKind, op string, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)})
}

func wrapError(kind ErrorKind, op string, err error) error {
	return errors.WithStack(&Error{Kind: kind, Op: op, Err: err})
}

// ArgumentTypeError reports that no signature of an operation accepts the
// argument types. It concerns the formula, not the registry.
type ArgumentTypeError struct {
	Name     string
	Types    []datatype.DataType
	Expected []string
}

func (e *ArgumentTypeError) Error() string {
	got := make([]string, len(e.Types))
	for i, t := range e.Types {
		got[i] = t.String()
	}
	return fmt.Sprintf("%s does not accept (%s); expected one of %s",
		e.Name, strings.Join(got, ", "), strings.Join(e.Expected, ", "))
}
