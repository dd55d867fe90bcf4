package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diagnosis/checkin-console/internal/csvimport"
)

// ColumnsCmd prints the accepted columns of an import kind.
func ColumnsCmd(app *AppContext) *cobra.Command {
	var kindFlag, output string

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show the columns accepted for an import kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			if err := validateOutput(output); err != nil {
				return err
			}

			cols := csvimport.Columns(kind)
			if output != outputText {
				return encode(cmd.OutOrStdout(), output, cols)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tREQUIRED\tALIASES")
			for _, c := range cols {
				req := ""
				if c.Required {
					req = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Key, c.Label, req, strings.Join(c.Aliases, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Import kind: resident or staff")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.MarkFlagRequired("kind")
	return cmd
}
