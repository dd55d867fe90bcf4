package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/diagnosis/checkin-console/cmd/consolectl/commands"
	"github.com/diagnosis/checkin-console/pkg/config"
	"github.com/diagnosis/checkin-console/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &commands.AppContext{}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "consolectl",
		Short:        "Check-in console tooling for resident and staff imports",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := os.Getenv("LOG_LEVEL")
			if verbose {
				level = "debug"
			}
			logger.SetDefault(logger.New(os.Stderr, level))
			app.Cfg = config.Load()
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(commands.ColumnsCmd(app))
	rootCmd.AddCommand(commands.ValidateCmd(app))
	rootCmd.AddCommand(commands.SubmitCmd(app))
	return rootCmd
}
