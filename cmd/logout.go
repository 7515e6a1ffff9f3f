package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rorical/LawAgent/internal/app"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions := app.NewSessionStore(cfg, logger)
		sess, ok := sessions.Get()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		sessions.Clear()
		fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s\n", sess.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
