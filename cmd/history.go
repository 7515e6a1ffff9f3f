package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/LawAgent/internal/store"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently submitted commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := store.NewSQLite(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer h.Close()

		if historyClear {
			if err := h.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		}

		entries, err := h.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No commands yet")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-6s %-14s %s\n",
				e.CreatedAt.Format("2006-01-02 15:04"), e.Source, e.Outcome, e.Command)
			if len(e.Tools) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    tools: %s\n", strings.Join(e.Tools, ", "))
			}
			if e.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    error: %s\n", e.Error)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", store.DefaultLimit, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history")
	rootCmd.AddCommand(historyCmd)
}
