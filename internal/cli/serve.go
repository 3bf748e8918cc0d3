package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taste-haven-assistant/internal/assistant"
	"taste-haven-assistant/internal/server"
	"taste-haven-assistant/internal/store"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant API for the browser front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig(os.Stdout)
		if servePort != "" {
			cfg.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer eng.Close()

		opts := eng.stateOptions()
		tabs := store.NewTabRegistry(cfg.TabTTL, func(q *assistant.NoticeQueue) *assistant.State {
			return eng.dispatcher.NewState(append([]assistant.StateOption{assistant.WithNotifier(q)}, opts...)...)
		})
		go tabs.RunJanitor(ctx, time.Minute, func(n int) {
			logger.Info("evicted idle tabs", "count", n)
		})

		deps := server.Deps{Dispatcher: eng.dispatcher, Tabs: tabs}
		if eng.archive != nil {
			deps.Transcripts = eng.archive
			deps.Database = eng.database
		}
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           server.NewServer(cfg, deps).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("taste haven server listening", "addr", srv.Addr, "api_base_url", cfg.APIBaseURL, "chat_provider", cfg.ChatProvider)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}
