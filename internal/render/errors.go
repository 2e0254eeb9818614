package render

import "fmt"

// FeatureKind classifies what a dialect is missing.
type FeatureKind int

const (
	FeatureOther FeatureKind = iota
	FeatureFunction
	FeatureLiteral
	FeatureSyntax
)

// UnsupportedFeatureError indicates a feature not available on the dialect.
// It is a property of the requested dialect, not of the engine's coverage,
// so translators surface it to the formula author.
type UnsupportedFeatureError struct {
	Kind    FeatureKind
	Feature string
	Dialect string
	Hint    string
}

func (e UnsupportedFeatureError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s is not available: %s", e.Dialect, e.Feature, e.Hint)
	}
	return fmt.Sprintf("%s: %s is not available", e.Dialect, e.Feature)
}

// NewUnsupportedFeatureError creates a new unsupported feature error.
func NewUnsupportedFeatureError(dialect, feature string, hint ...string) error {
	err := UnsupportedFeatureError{Feature: feature, Dialect: dialect}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}

// NewUnavailableFunctionError reports an operation with no variant for the
// dialect.
func NewUnavailableFunctionError(dialect, name string, arity int) error {
	return UnsupportedFeatureError{
		Kind:    FeatureFunction,
		Feature: fmt.Sprintf("function %s/%d", name, arity),
		Dialect: dialect,
	}
}

// NewUnsupportedLiteralError reports a literal kind the dialect cannot render.
func NewUnsupportedLiteralError(dialect, kind string, hint ...string) error {
	err := UnsupportedFeatureError{Kind: FeatureLiteral, Feature: kind + " literal", Dialect: dialect}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}
