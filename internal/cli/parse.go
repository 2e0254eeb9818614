package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoobzio/formula/internal/astfile"
	"github.com/zoobzio/formula/internal/nodes"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "parse <formula-file>",
		Short:         "Print the trees of a formula document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
			if formatter.JSON() {
				trees := make(map[string]string, len(doc.Formulas))
				for _, f := range doc.Formulas {
					trees[f.Name] = nodes.Format(f.Tree)
				}
				return formatter.Encode(trees)
			}
			for i, f := range doc.Formulas {
				if len(doc.Formulas) > 1 {
					if i > 0 {
						formatter.Printf("\n")
					}
					formatter.Printf("# %s\n", f.Name)
				}
				formatter.Printf("%s", nodes.Pretty(f.Tree))
			}
			return nil
		},
	}
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph <formula-file>",
		Short: "Write the trees of a formula document as Graphviz DOT",
		Long: `Write one Graphviz digraph per formula. Render with:

  formulactl graph formulas.yaml | dot -Tsvg > formulas.svg`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			return WriteDOT(cmd.OutOrStdout(), doc.Formulas)
		},
	}
}

// WriteDOT writes each formula as a Graphviz digraph.
func WriteDOT(w io.Writer, formulas []astfile.Formula) error {
	var b strings.Builder
	for _, f := range formulas {
		fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(f.Name))
		b.WriteString("  node [shape=box];\n")
		id := 0
		var visit func(n nodes.Node) int
		visit = func(n nodes.Node) int {
			self := id
			id++
			fmt.Fprintf(&b, "  n%d [label=%s];\n", self, strconv.Quote(graphLabel(n)))
			for _, c := range n.Children() {
				child := visit(c)
				fmt.Fprintf(&b, "  n%d -> n%d;\n", self, child)
			}
			return self
		}
		visit(f.Tree)
		b.WriteString("}\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func graphLabel(n nodes.Node) string {
	switch x := n.(type) {
	case *nodes.FuncCall:
		return x.Name()
	case *nodes.IfBlock:
		return "IF"
	case *nodes.CaseBlock:
		return "CASE"
	case *nodes.Paren:
		return "( )"
	case *nodes.BeforeFilterBy:
		return "BEFORE FILTER BY " + strings.Join(x.Names(), ", ")
	}
	return nodes.Format(n)
}
