package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/config"
	"github.com/zoobzio/formula/internal/astfile"
)

// ErrorPlaceholder replaces the SQL of a formula that failed to compile
// when errors are suppressed.
const ErrorPlaceholder = "#ERROR"

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Dialect        string
	SuppressErrors bool
}

// Translation is the outcome of one formula.
type Translation struct {
	Name        string   `json:"name"`
	SQL         string   `json:"sql"`
	Type        string   `json:"type,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <formula-file>",
		Short: "Translate a formula document to SQL",
		Long: `Translate every formula of a YAML document to a SQL expression.

The dialect is taken from --dialect, then the document, then the
configuration file. A dialect list such as "POSTGRESQL_16|SQLITE" picks
the variants that serve all of the listed dialects.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
			return runTranslate(opts, engine, cfg, doc, formatter)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect or dialect list")
	cmd.Flags().BoolVar(&opts.SuppressErrors, "suppress-errors", false, "print "+ErrorPlaceholder+" for formulas that fail")

	return cmd
}

func runTranslate(opts *TranslateOptions, engine *formula.Engine, cfg *config.Config, doc *astfile.Document, formatter *OutputFormatter) error {
	out, err := translateDocument(engine, cfg, doc, opts.Dialect, opts.SuppressErrors)
	if out == nil && err != nil {
		return err
	}
	if formatter.JSON() {
		if encErr := formatter.Encode(out); encErr != nil {
			return encErr
		}
	} else {
		writeTranslations(formatter, out)
	}
	return err
}

// translateDocument compiles every formula of doc. A formula error stops
// the run unless suppress is set, in which case the formula's SQL becomes
// ErrorPlaceholder.
func translateDocument(engine *formula.Engine, cfg *config.Config, doc *astfile.Document, dialectFlag string, suppress bool) ([]Translation, error) {
	d, err := documentDialect(dialectFlag, cfg, doc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "dialect", err)
	}
	env, err := documentEnv(cfg, doc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "environment", err)
	}

	out := make([]Translation, 0, len(doc.Formulas))
	for _, f := range doc.Formulas {
		res, err := engine.Compile(formula.Request{
			Formula:    f.Tree,
			Dialect:    d,
			Env:        env,
			Condition:  doc.Condition,
			Unprefixed: doc.Unprefixed,
		})
		t := Translation{Name: f.Name}
		if res != nil {
			t.SQL = res.SQL
			t.Type = res.Type.String()
			t.Scopes = res.Scopes
			for _, dg := range res.Diagnostics {
				t.Diagnostics = append(t.Diagnostics, dg.String())
			}
		}
		if err != nil {
			var fe *formula.FormulaError
			if !errors.As(err, &fe) {
				return out, WrapExitError(ExitCommandError, "formula "+f.Name, err)
			}
			if !suppress {
				out = append(out, t)
				return out, WrapExitError(ExitFailure, "formula "+f.Name, err)
			}
			t.SQL = ErrorPlaceholder
			t.Type = ""
		}
		out = append(out, t)
	}
	return out, nil
}

func writeTranslations(formatter *OutputFormatter, out []Translation) {
	for _, t := range out {
		for _, d := range t.Diagnostics {
			formatter.Warnf("%s: %s\n", t.Name, d)
		}
		if t.SQL == "" {
			continue
		}
		if len(out) == 1 && t.Name == "formula" {
			formatter.Printf("%s\n", t.SQL)
			continue
		}
		formatter.Printf("%s: %s\n", t.Name, t.SQL)
	}
}

func documentDialect(flag string, cfg *config.Config, doc *astfile.Document) (formula.Combo, error) {
	switch {
	case flag != "":
		return formula.ParseDialect(flag)
	case doc.Dialect != "":
		return formula.ParseDialect(doc.Dialect)
	}
	return cfg.DefaultDialect()
}

// documentEnv layers the document's fields, names and scopes over the
// configuration's.
func documentEnv(cfg *config.Config, doc *astfile.Document) (formula.Env, error) {
	merged := config.Config{
		Fields:         map[string]string{},
		Names:          map[string][]string{},
		Scopes:         map[string]string{},
		RestrictFields: cfg.RestrictFields,
	}
	for k, v := range cfg.Fields {
		merged.Fields[k] = v
	}
	for k, v := range doc.Fields {
		merged.Fields[k] = v
	}
	for k, v := range cfg.Names {
		merged.Names[k] = v
	}
	for k, v := range doc.Names {
		merged.Names[k] = v
	}
	for k, v := range cfg.Scopes {
		merged.Scopes[k] = v
	}
	for k, v := range doc.Scopes {
		merged.Scopes[k] = v
	}
	if err := merged.Validate(); err != nil {
		return formula.Env{}, err
	}
	return merged.Env()
}

func readDocument(path string) (*astfile.Document, error) {
	doc, err := astfile.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading formulas", err)
	}
	return doc, nil
}
