package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/internal/facility"
	"github.com/diagnosis/checkin-console/pkg/logger"
)

// SubmitCmd parses a file and submits it straight to the facility backend.
func SubmitCmd(app *AppContext) *cobra.Command {
	var kindFlag, output, token, apiURL string

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Parse an import file and submit it to the facility backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			if err := validateOutput(output); err != nil {
				return err
			}
			if token == "" {
				token = os.Getenv("CONSOLE_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("a token is required (--token or CONSOLE_TOKEN)")
			}
			if apiURL == "" {
				apiURL = app.Cfg.Backend.BaseURL
			}

			res, err := parseFile(kind, args[0], app.Cfg.Import.MaxUploadBytes)
			if err != nil {
				return err
			}

			sess := csvimport.NewSession(uuid.NewString(), kind, filepath.Base(args[0]))
			sess.BeginParse()
			sess.Load(res)

			ctx := facility.WithToken(logger.WithSession(cmd.Context(), sess.ID), token)
			client := facility.NewClient(apiURL, app.Cfg.Backend.Timeout)
			submitErr := sess.Submit(ctx, client)

			out := cmd.OutOrStdout()
			if output != outputText {
				if err := encode(out, output, sess); err != nil {
					return err
				}
				return submitErr
			}

			switch sess.Status {
			case csvimport.StatusSucceeded:
				fmt.Fprintf(out, "Imported %s: %d succeeded, %d failed\n",
					kind.PluralKey(), sess.Summary.SuccessCount, sess.Summary.ErrorCount)
				printErrors(out, sess.Errors)
				for _, msg := range sess.Unattributed {
					fmt.Fprintf(out, "  ? %s\n", msg)
				}
			case csvimport.StatusFailed:
				fmt.Fprintf(out, "Import failed: %s\n", sess.FailureMessage)
			default:
				fmt.Fprintf(out, "Nothing submitted: %d rows\n", len(sess.Rows))
				printErrors(out, sess.Errors)
			}
			return submitErr
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Import kind: resident or staff")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for the facility backend (default $CONSOLE_TOKEN)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Facility backend base URL (default $FACILITY_API_URL)")
	cmd.MarkFlagRequired("kind")
	return cmd
}
