package formula

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zoobzio/formula/connectors"
	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/internal/dialect"
)

// Engine compiles formulas against a sealed operation registry and the
// strategy tables of its connectors.
type Engine struct {
	loaded *connector.Loaded
	log    logrus.FieldLogger
}

// Option configures NewEngine.
type Option func(*options)

type options struct {
	connectors []connector.Connector
	set        bool
	log        logrus.FieldLogger
}

// WithConnectors selects the connectors to load, in order. Without this
// option every shipped connector is loaded.
func WithConnectors(cs ...Connector) Option {
	return func(o *options) {
		o.connectors = append(o.connectors, cs...)
		o.set = true
	}
}

// WithLogger sets the logger used while loading and compiling.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// NewEngine loads the default operations and each connector, applies the
// connectors' overrides and seals the result.
func NewEngine(opts ...Option) (*Engine, error) {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.set {
		o.connectors = connectors.All()
	}

	loaded, err := connector.Load(o.log, o.connectors...)
	if err != nil {
		return nil, fmt.Errorf("formula: %w", err)
	}
	o.log.WithFields(logrus.Fields{
		"connectors": len(loaded.Connectors),
		"ops":        loaded.Registry.Len(),
	}).Debug("engine ready")
	return &Engine{loaded: loaded, log: o.log}, nil
}

// MustNewEngine is like NewEngine but panics on error.
func MustNewEngine(opts ...Option) *Engine {
	e, err := NewEngine(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Connectors returns the family names of the loaded connectors, in load
// order.
func (e *Engine) Connectors() []string {
	out := make([]string, len(e.loaded.Connectors))
	for i, c := range e.loaded.Connectors {
		out[i] = c.Name()
	}
	return out
}

// Dialects lists the dialect names served by the loaded connectors.
func (e *Engine) Dialects() []string {
	var out []string
	for _, c := range e.loaded.Connectors {
		out = append(out, c.Family.Dialects()...)
	}
	return out
}

// Features returns the capability table resolved for d.
func (e *Engine) Features(d Combo) (Features, error) {
	return e.loaded.Strategies.Features.Resolve(d)
}

// Catalog lists every registered operation and the dialects it serves.
func (e *Engine) Catalog() []OpInfo {
	return e.loaded.Registry.Catalog()
}

// Family looks up a loaded dialect family by name.
func (e *Engine) Family(name string) (*dialect.Family, bool) {
	for _, c := range e.loaded.Connectors {
		if c.Name() == name {
			return c.Family, true
		}
	}
	return nil, false
}
