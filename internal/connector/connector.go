// Package connector defines the bundle a dialect package contributes to an
// engine and loads bundles into a sealed registry and strategy tables.
package connector

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zoobzio/formula/internal/definitions"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
	"github.com/zoobzio/formula/internal/translate"
)

// Connector is everything one dialect family contributes: per-combo
// strategies, operation variants, and edits of the default operations.
type Connector struct {
	Family *dialect.Family

	Literals []dialect.Candidate[render.Literalizer]
	Columns  []dialect.Candidate[render.ColumnRenderer]
	Post     []dialect.Candidate[render.ContextPostprocessor]
	Features []dialect.Candidate[render.Features]

	Ops       []registry.BasicOpItem
	Overrides []registry.Override
}

// Name is the family name.
func (c Connector) Name() string { return c.Family.Name() }

func (c Connector) validate() error {
	if c.Family == nil {
		return fmt.Errorf("connector without a dialect family")
	}
	all := c.Family.All()
	check := func(what string, d dialect.Combo) error {
		if !all.Contains(d) {
			return fmt.Errorf("connector %s registers %s for %s outside its family", c.Name(), what, d)
		}
		return nil
	}
	for _, e := range c.Literals {
		if err := check("a literalizer", e.Dialects); err != nil {
			return err
		}
	}
	for _, e := range c.Columns {
		if err := check("a column renderer", e.Dialects); err != nil {
			return err
		}
	}
	for _, e := range c.Post {
		if err := check("a postprocessor", e.Dialects); err != nil {
			return err
		}
	}
	for _, e := range c.Features {
		if err := check("features", e.Dialects); err != nil {
			return err
		}
	}
	return nil
}

// Strategies holds the per-dialect strategy tables. Every table starts with
// an ANSI default for ANY dialect.
type Strategies struct {
	Literals *dialect.Table[render.Literalizer]
	Columns  *dialect.Table[render.ColumnRenderer]
	Post     *dialect.Table[render.ContextPostprocessor]
	Features *dialect.Table[render.Features]
}

// NewStrategies creates tables holding the ANSI defaults.
func NewStrategies() (*Strategies, error) {
	s := &Strategies{
		Literals: dialect.NewTable[render.Literalizer]("literalizer"),
		Columns:  dialect.NewTable[render.ColumnRenderer]("column renderer"),
		Post:     dialect.NewTable[render.ContextPostprocessor]("postprocessor"),
		Features: dialect.NewTable[render.Features]("features"),
	}
	all := dialect.Any()
	defaults := Connector{
		Literals: For[render.Literalizer](all, render.ANSILiterals),
		Columns:  For[render.ColumnRenderer](all, render.DoubleQuoted),
		Post:     For[render.ContextPostprocessor](all, render.NativeBooleans{}),
		Features: For(all, render.ANSI),
	}
	if err := s.Add(defaults); err != nil {
		return nil, fmt.Errorf("ANSI defaults: %w", err)
	}
	return s, nil
}

func addAll[T any](t *dialect.Table[T], entries []dialect.Candidate[T]) error {
	for _, e := range entries {
		if err := t.Add(e.Dialects, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Add registers a connector's strategies.
func (s *Strategies) Add(c Connector) error {
	if err := addAll(s.Literals, c.Literals); err != nil {
		return err
	}
	if err := addAll(s.Columns, c.Columns); err != nil {
		return err
	}
	if err := addAll(s.Post, c.Post); err != nil {
		return err
	}
	return addAll(s.Features, c.Features)
}

// Seal freezes every table, rejecting ties.
func (s *Strategies) Seal() error {
	for _, seal := range []func() error{s.Literals.Seal, s.Columns.Seal, s.Post.Seal, s.Features.Seal} {
		if err := seal(); err != nil {
			return err
		}
	}
	return nil
}

// Resolve picks the most specific strategy of each kind for d.
func (s *Strategies) Resolve(d dialect.Combo) (translate.Dialect, error) {
	lits, err := s.Literals.Resolve(d)
	if err != nil {
		return translate.Dialect{}, err
	}
	cols, err := s.Columns.Resolve(d)
	if err != nil {
		return translate.Dialect{}, err
	}
	post, err := s.Post.Resolve(d)
	if err != nil {
		return translate.Dialect{}, err
	}
	features, err := s.Features.Resolve(d)
	if err != nil {
		return translate.Dialect{}, err
	}
	return translate.Dialect{Combo: d, Literals: lits, Columns: cols, Post: post, Features: features}, nil
}

// Loaded is the sealed result of loading connectors.
type Loaded struct {
	Registry   *registry.Registry
	Strategies *Strategies
	Connectors []Connector
}

// Load registers the default operations, then each connector's operations
// and strategies in order, then every connector's overrides in order, and
// seals everything.
func Load(log logrus.FieldLogger, cs ...Connector) (*Loaded, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	reg := registry.New(log)
	if err := reg.Register(definitions.All()...); err != nil {
		return nil, fmt.Errorf("default operations: %w", err)
	}

	strategies, err := NewStrategies()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if seen[c.Name()] {
			return nil, fmt.Errorf("connector %s loaded twice", c.Name())
		}
		seen[c.Name()] = true

		if err := reg.Register(c.Ops...); err != nil {
			return nil, fmt.Errorf("connector %s: %w", c.Name(), err)
		}
		if err := strategies.Add(c); err != nil {
			return nil, fmt.Errorf("connector %s: %w", c.Name(), err)
		}
		log.WithFields(logrus.Fields{
			"connector": c.Name(),
			"dialects":  c.Family.Dialects(),
			"ops":       len(c.Ops),
		}).Debug("loaded connector")
	}
	for _, c := range cs {
		if err := reg.Apply(c.Name(), c.Overrides...); err != nil {
			return nil, fmt.Errorf("connector %s: %w", c.Name(), err)
		}
	}

	if err := reg.Seal(); err != nil {
		return nil, err
	}
	if err := strategies.Seal(); err != nil {
		return nil, err
	}
	return &Loaded{Registry: reg, Strategies: strategies, Connectors: cs}, nil
}

// For returns a single-entry candidate list, the common case for strategies
// that do not vary by version.
func For[T any](d dialect.Combo, v T) []dialect.Candidate[T] {
	return []dialect.Candidate[T]{{Dialects: d, Value: v}}
}
