package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/app"
	"github.com/Rorical/LawAgent/internal/config"
	"github.com/Rorical/LawAgent/internal/logging"
)

var (
	cfg       *config.Config
	logger    *zap.Logger
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "lawagent",
	Short: "Voice and text command client for the legal assistant",
	Long: `LawAgent turns typed or spoken instructions into backend tool calls
and routes the results: sign in, search the law, update your profile.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger = logging.NewOrNop(cfg.LogPath(), debugFlag || cfg.Debug())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUI(cmd.Context())
	},
}

func runUI(ctx context.Context) error {
	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Stop()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log at debug level")

	rootCmd.AddCommand(profileCmd)
}
