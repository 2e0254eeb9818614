package cli

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zoobzio/formula"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List the dialects of the loaded connectors",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := rootOpts.engine(cmd)
			if err != nil {
				return err
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			type family struct {
				Name     string   `json:"name"`
				Dialects []string `json:"dialects"`
			}
			var out []family
			for _, name := range engine.Connectors() {
				f, ok := engine.Family(name)
				if !ok {
					continue
				}
				out = append(out, family{Name: name, Dialects: f.Dialects()})
			}
			if formatter.JSON() {
				return formatter.Encode(out)
			}
			for _, f := range out {
				formatter.Printf("%s: %s\n", f.Name, strings.Join(f.Dialects, ", "))
			}
			return nil
		},
	}
}

// RegistryOptions holds flags for the registry command.
type RegistryOptions struct {
	*RootOptions
	Dialect string
}

// CatalogEntry is one operation in registry output.
type CatalogEntry struct {
	Name       string   `json:"name"`
	Class      string   `json:"class"`
	Arity      string   `json:"arity"`
	Dialects   string   `json:"dialects"`
	Signatures []string `json:"signatures,omitempty"`
}

// NewRegistryCommand creates the registry command.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegistryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "registry",
		Short:         "List the registered operations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			var filter formula.Combo
			if opts.Dialect != "" {
				if filter, err = formula.ParseDialect(opts.Dialect); err != nil {
					return WrapExitError(ExitCommandError, "dialect", err)
				}
			}
			entries := catalog(engine, filter)

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if formatter.JSON() {
				return formatter.Encode(entries)
			}
			tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			formatter.Writer = tw
			for _, e := range entries {
				formatter.Printf("%s\t%s\t%s\t%s\n", e.Name, e.Class, e.Arity, e.Dialects)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "only operations serving this dialect")

	return cmd
}

// catalog lists the engine's operations, keeping those serving filter when
// it is set.
func catalog(engine *formula.Engine, filter formula.Combo) []CatalogEntry {
	var out []CatalogEntry
	for _, op := range engine.Catalog() {
		if !filter.IsEmpty() && !op.Dialects.Overlaps(filter) {
			continue
		}
		out = append(out, CatalogEntry{
			Name:       op.Name,
			Class:      op.Class.String(),
			Arity:      op.Arity.String(),
			Dialects:   op.Dialects.String(),
			Signatures: op.Signatures,
		})
	}
	return out
}
