package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/LawAgent/internal/eventbus"
)

var runCmd = &cobra.Command{
	Use:   "run [command...]",
	Short: "Send one command to the backend and print the outcome",
	Example: `  lawagent run login with email jane@example.com and password hunter2
  lawagent run search for notice periods in residential tenancies`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeCommand(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), eventbus.SourceManual)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
