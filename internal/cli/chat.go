package cli

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taste-haven-assistant/internal/store"
)

var transcriptPath string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so they do not interleave with the conversation.
		cfg, logger := loadConfig(os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		eng, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer eng.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		repl := NewREPL(eng.dispatcher, cmd.InOrStdin(), cmd.OutOrStdout(), interactive, eng.stateOptions()...)
		runErr := repl.Run(ctx)

		if transcriptPath != "" {
			t := &store.Transcript{ExportedAt: time.Now().UTC(), Snapshot: repl.State().Snapshot()}
			if err := store.NewFileTranscriptStore(transcriptPath).Write(t); err != nil {
				logger.Error("write transcript", "path", transcriptPath, "error", err)
			} else {
				logger.Info("transcript written", "path", transcriptPath)
			}
		}
		return runErr
	},
}

func init() {
	chatCmd.Flags().StringVar(&transcriptPath, "transcript", "", "write the transcript to this JSON file on exit")
}
