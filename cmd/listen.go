package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rorical/LawAgent/internal/app"
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/speech"
)

var dryRun bool

var listenCmd = &cobra.Command{
	Use:   "listen [audio-file]",
	Short: "Transcribe a recorded command and run it",
	Long: `Transcribe an audio file with the configured speech engine and submit
the transcript as a voice command. Without an argument the profile's
audio_source is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) > 0 {
			path = args[0]
		}

		adapter := app.NewSpeechAdapter(cfg, path, logger)
		defer adapter.Close()

		ctx := cmd.Context()
		if err := adapter.Start(ctx); err != nil {
			if errors.Is(err, speech.ErrCapabilityMissing) {
				return fmt.Errorf("%w: set OPENAI_API_KEY or openai_api_key in the profile", err)
			}
			return err
		}

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-adapter.Events():
				if !ok {
					return nil
				}
				switch ev.Kind {
				case speech.EventInterim:
					fmt.Fprintf(out, "... %s\n", ev.Text)
				case speech.EventCaptured:
					fmt.Fprintf(out, "Heard: %s\n", ev.Text)
					if dryRun {
						return nil
					}
					return executeCommand(ctx, out, ev.Text, eventbus.SourceVoice)
				case speech.EventCaptureFailed:
					return fmt.Errorf("voice capture failed: %s", ev.Reason.Message())
				case speech.EventEnded:
					return errors.New("speech engine ended without a transcript")
				}
			}
		}
	},
}

func init() {
	listenCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the transcript without submitting it")
	rootCmd.AddCommand(listenCmd)
}
