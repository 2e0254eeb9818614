// Package config loads engine configuration from YAML and rebuilds the
// engine when the file changes.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/connectors"
	"github.com/zoobzio/formula/internal/datatype"
)

// Config is the on-disk engine configuration.
type Config struct {
	// Connectors lists the dialect families to load. Empty loads
	// every shipped connector.
	Connectors []string `yaml:"connectors,omitempty"`

	// Dialect is the default dialect for compiles, e.g. "POSTGRESQL_16".
	Dialect string `yaml:"dialect,omitempty"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level,omitempty"`

	// Fields maps field names to type names such as INTEGER or ARRAY_STR.
	Fields map[string]string `yaml:"fields,omitempty"`

	// Names maps field names to qualified column name parts.
	Names map[string][]string `yaml:"names,omitempty"`

	// Scopes renames BEFORE FILTER BY scopes.
	Scopes map[string]string `yaml:"scopes,omitempty"`

	// RestrictFields rejects references to fields missing from Fields.
	RestrictFields bool `yaml:"restrict_fields,omitempty"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every name in the configuration.
func (c *Config) Validate() error {
	if len(c.Connectors) > 0 {
		if _, ok := connectors.ByName(c.Connectors...); !ok {
			return fmt.Errorf("unknown connector in %v, have %v", c.Connectors, connectors.Names())
		}
	}
	if c.Dialect != "" {
		if _, err := formula.ParseDialect(c.Dialect); err != nil {
			return err
		}
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	for name, typ := range c.Fields {
		if _, err := datatype.Parse(typ); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	for name, parts := range c.Names {
		if len(parts) == 0 {
			return fmt.Errorf("field %s has an empty name", name)
		}
	}
	return nil
}

// Env returns the compile environment described by the configuration.
func (c *Config) Env() (formula.Env, error) {
	env := formula.Env{
		Types:          make(map[string]formula.DataType, len(c.Fields)),
		Names:          make(formula.FieldNames, len(c.Names)),
		Scopes:         c.Scopes,
		RestrictFields: c.RestrictFields,
	}
	for name, typ := range c.Fields {
		t, err := datatype.Parse(typ)
		if err != nil {
			return formula.Env{}, fmt.Errorf("field %s: %w", name, err)
		}
		env.Types[name] = t
	}
	for name, parts := range c.Names {
		env.Names[name] = append([]string(nil), parts...)
	}
	return env, nil
}

// DefaultDialect parses Dialect.
func (c *Config) DefaultDialect() (formula.Combo, error) {
	if c.Dialect == "" {
		return formula.Combo{}, fmt.Errorf("no dialect configured")
	}
	return formula.ParseDialect(c.Dialect)
}

// Build creates an engine with the configured connectors. When log is a
// *logrus.Logger its level is set from LogLevel.
func (c *Config) Build(log logrus.FieldLogger) (*formula.Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if l, ok := log.(*logrus.Logger); ok && c.LogLevel != "" {
		level, err := logrus.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, err
		}
		l.SetLevel(level)
	}

	opts := []formula.Option{formula.WithLogger(log)}
	if len(c.Connectors) > 0 {
		cs, ok := connectors.ByName(c.Connectors...)
		if !ok {
			return nil, fmt.Errorf("unknown connector in %v", c.Connectors)
		}
		opts = append(opts, formula.WithConnectors(cs...))
	}
	return formula.NewEngine(opts...)
}
