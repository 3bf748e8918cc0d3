// Package cli defines the taste-haven commands: an HTTP backend for the
// browser front end and a terminal chat.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taste-haven-assistant/internal/config"
	"taste-haven-assistant/internal/observability"
)

var version = "dev" // set via ldflags at build time

var rootCmd = &cobra.Command{
	Use:   "taste-haven",
	Short: "Taste Haven restaurant assistant",
	Long: `Taste Haven runs the conversational ordering and reservation engine.
"serve" exposes it to the browser front end over HTTP; "chat" runs it in the terminal.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

// loadConfig reads configuration and installs the process logger on logOut.
func loadConfig(logOut *os.File) (config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := observability.Setup(logOut, cfg.LogFormat, cfg.LogLevel)
	for _, w := range cfg.Warnings {
		logger.Warn(w.Msg, w.Attrs...)
	}
	return cfg, logger
}
