// Package config loads application configuration from the environment.
// A .env file in the working directory is honored if present; explicit
// environment variables win.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the assistant needs at construction time. There is
// no process-wide mutable state: components receive these values once and the
// debug setting only controls the log level set at startup.
type Config struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// DataDir is the base directory the topic document paths resolve against.
	DataDir string
	// DBPath is the SQLite file shared by the user and chat-log stores.
	DBPath string
	// Addr is the HTTP listen address.
	Addr string
	// HomophoneTable optionally overrides the embedded substitution table.
	HomophoneTable string

	Debug bool
}

// Load reads configuration, applying defaults for anything unset.
func Load() Config {
	godotenv.Load()

	return Config{
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  getenv("OPENAI_BASE_URL", "https://api.gptsapi.net/v1"),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o-mini"),
		DataDir:        getenv("CAMPUSQA_DATA_DIR", "."),
		DBPath:         getenv("CAMPUSQA_DB_PATH", "campus_assistant.db"),
		Addr:           getenv("CAMPUSQA_ADDR", ":8090"),
		HomophoneTable: os.Getenv("CAMPUSQA_HOMOPHONE_TABLE"),
		Debug:          strings.EqualFold(os.Getenv("DEBUG"), "true"),
	}
}

// LogLevel maps the debug setting to the slog level used for the process.
func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
