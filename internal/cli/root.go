// Package cli implements the formulactl commands.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // engine configuration file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for formulactl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "formulactl",
		Short: "Compile formula trees to SQL",
		Long:  "Translate formula trees written as YAML into SQL expressions for each supported dialect.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "engine configuration file")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewRegistryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger writes to the command's error stream so that JSON output stays
// clean.
func (o *RootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(logrus.WarnLevel)
	return log
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.Config == "" {
		return &config.Config{}, nil
	}
	return config.Load(o.Config)
}

// engine builds an engine from the configuration file, or with every
// shipped connector when none is given.
func (o *RootOptions) engine(cmd *cobra.Command) (*formula.Engine, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	log := o.logger(cmd)
	engine, err := cfg.Build(log)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "building engine", err)
	}
	if o.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return engine, cfg, nil
}
