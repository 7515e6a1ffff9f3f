package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rorical/LawAgent/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the backend tools the client knows how to route",
	Run: func(cmd *cobra.Command, args []string) {
		for _, spec := range tools.NewBackendRegistry().ListTools() {
			access := "session"
			if spec.Public {
				access = "public"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-11s %-7s %s\n", spec.Name, spec.Category, access, spec.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
