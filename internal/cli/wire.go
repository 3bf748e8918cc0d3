package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"taste-haven-assistant/internal/assistant"
	"taste-haven-assistant/internal/config"
	"taste-haven-assistant/internal/db"
	"taste-haven-assistant/internal/llm"
	"taste-haven-assistant/internal/restaurant"
	"taste-haven-assistant/internal/store"
)

// engine is everything both hosts need.
type engine struct {
	dispatcher *assistant.Dispatcher
	database   *db.DB
	archive    *store.TranscriptArchive
	closers    []func() error
}

func (e *engine) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			slog.Warn("close", "error", err)
		}
	}
}

func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*engine, error) {
	e := &engine{}

	httpClient := &http.Client{Timeout: cfg.APITimeout}
	oauth := restaurant.OAuthConfig{
		ClientID:     cfg.APIClientID,
		ClientSecret: cfg.APIClientSecret,
		TokenURL:     cfg.APITokenURL,
		Scopes:       cfg.APIScopes,
	}
	if oauth.Enabled() {
		httpClient = restaurant.NewOAuthHTTPClient(ctx, oauth, cfg.APITimeout)
		logger.Info("restaurant api client credentials enabled", "token_url", cfg.APITokenURL)
	}
	client := restaurant.NewClient(cfg.APIBaseURL, restaurant.WithHTTPClient(httpClient))

	spec, err := assistant.LoadIntentSpec(cfg.IntentSpecFile)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("intent spec file not found, using built-in keywords", "path", cfg.IntentSpecFile)
		spec = assistant.DefaultIntentSpec()
	} else if err != nil {
		return nil, fmt.Errorf("failed to load intent spec: %w", err)
	}

	chat, err := buildChat(ctx, cfg, client, e)
	if err != nil {
		e.Close()
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		e.closers = append(e.closers, database.Close)
		logger.Info("database connection established")
		if cfg.RunMigrations {
			if err := database.RunMigrations(cfg.MigrationsDir); err != nil {
				e.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		e.database = database
		e.archive = store.NewTranscriptArchive(database)
	} else {
		logger.Info("DB_URL not provided, transcripts are kept in memory only")
	}

	e.dispatcher = assistant.NewDispatcher(assistant.DispatcherConfig{
		Spec:       spec,
		Chat:       chat,
		Collection: client,
		Placement:  client,
		Endpoint:   client.BaseURL(),
		Logger:     logger,
	})
	return e, nil
}

// buildChat picks the plain chat backend. Collection turns and placement
// always go to the restaurant API.
func buildChat(ctx context.Context, cfg config.Config, client *restaurant.Client, e *engine) (assistant.ChatBackend, error) {
	switch cfg.ChatProvider {
	case "openai":
		return llm.NewOpenAIChat(cfg.OpenAIAPIKey, cfg.OpenAIBase, cfg.OpenAIModel), nil
	case "gemini":
		g, err := llm.NewGeminiChat(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, g.Close)
		return g, nil
	}
	return client, nil
}

// stateOptions attaches the archive when one is configured.
func (e *engine) stateOptions() []assistant.StateOption {
	if e.archive == nil {
		return nil
	}
	return []assistant.StateOption{assistant.WithArchive(e.archive)}
}
