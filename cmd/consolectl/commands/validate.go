package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ErrStructural = errors.New("file cannot be imported")

// ValidateCmd parses a file offline and reports what the console would show.
func ValidateCmd(app *AppContext) *cobra.Command {
	var kindFlag, output string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse and validate an import file without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			if err := validateOutput(output); err != nil {
				return err
			}

			res, err := parseFile(kind, args[0], app.Cfg.Import.MaxUploadBytes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != outputText {
				if err := encode(out, output, res); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s: %d rows, %d errors, %d skipped lines\n",
					args[0], len(res.Rows), len(res.Errors), res.Skipped)
				printErrors(out, res.Errors)
			}

			if res.HasStructuralError() {
				return ErrStructural
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Import kind: resident or staff")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.MarkFlagRequired("kind")
	return cmd
}
