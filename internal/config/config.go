package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Restaurant API
	APIBaseURL string
	APITimeout time.Duration
	// Optional client-credentials auth for the restaurant API
	APIClientID     string
	APIClientSecret string
	APITokenURL     string
	APIScopes       []string
	// Plain chat backend: remote, openai or gemini
	ChatProvider string
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIBase   string
	GeminiAPIKey string
	GeminiModel  string
	// Entry keywords and prompts
	IntentSpecFile string
	// Database (optional transcript archive)
	DatabaseURL   string
	MigrationsDir string
	RunMigrations bool
	// Tab containers idle longer than this are evicted
	TabTTL    time.Duration
	LogLevel  string
	LogFormat string
	// Problems found while loading. Logged by the caller once the
	// configured logger is installed.
	Warnings []Warning
}

// Warning is a deferred log line: a message and its slog attributes.
type Warning struct {
	Msg   string
	Attrs []any
}

func (c *Config) warn(msg string, attrs ...any) {
	c.Warnings = append(c.Warnings, Warning{Msg: msg, Attrs: attrs})
}

func Load() Config {
	_ = godotenv.Load()
	var durWarnings []Warning
	cfg := Config{
		Port:            getEnvDefault("PORT", "8080"),
		AllowedOrigin:   getEnvDefault("ALLOWED_ORIGIN", "*"),
		APIBaseURL:      getEnvDefault("API_BASE_URL", "http://127.0.0.1:5000/api"),
		APITimeout:      getEnvDurationDefault("API_TIMEOUT", 20*time.Second, &durWarnings),
		APIClientID:     os.Getenv("API_CLIENT_ID"),
		APIClientSecret: os.Getenv("API_CLIENT_SECRET"),
		APITokenURL:     os.Getenv("API_TOKEN_URL"),
		APIScopes:       getEnvListDefault("API_SCOPES", nil),
		ChatProvider:    strings.ToLower(getEnvDefault("CHAT_PROVIDER", "remote")),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBase:      os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnvDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		IntentSpecFile:  getEnvDefault("INTENT_SPEC_FILE", "prompts/intents.yaml"),
		DatabaseURL:     os.Getenv("DB_URL"),
		MigrationsDir:   getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		RunMigrations:   getEnvBoolDefault("DB_RUN_MIGRATIONS", true),
		TabTTL:          getEnvDurationDefault("TAB_TTL", 30*time.Minute, &durWarnings),
		LogLevel:        getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvDefault("LOG_FORMAT", "json"),
	}
	cfg.Warnings = durWarnings
	switch cfg.ChatProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			cfg.warn("CHAT_PROVIDER is openai but OPENAI_API_KEY is not set; chat turns will use the fallback reply")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			cfg.warn("CHAT_PROVIDER is gemini but GEMINI_API_KEY is not set; chat turns will use the fallback reply")
		}
	case "remote":
	default:
		cfg.warn("unknown CHAT_PROVIDER, using remote", "provider", cfg.ChatProvider)
		cfg.ChatProvider = "remote"
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration, warnings *[]Warning) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			return d
		}
		*warnings = append(*warnings, Warning{
			Msg:   "invalid duration, using default",
			Attrs: []any{"key", key, "value", v, "default", def},
		})
	}
	return def
}
