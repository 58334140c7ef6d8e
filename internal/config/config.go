// Package config loads application configuration from the environment and
// an optional .env file using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// GitHubConfig selects how the upstream transport authenticates. A personal
// access token is enough for the CLI; service deployments may use a GitHub
// App installation instead.
type GitHubConfig struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	RequestsPerSec float64
}

// LLMConfig configures the summarization model and the retry policy around
// it.
type LLMConfig struct {
	Provider     string
	OllamaHost   string
	Model        string
	GeminiAPIKey string
	MaxAttempts  int
	BaseBackoff  time.Duration
	CallTimeout  time.Duration
}

// FetchConfig bounds the per-run fan-out against the upstream API.
type FetchConfig struct {
	Concurrency      int
	Timeout          time.Duration
	MaxEventsPerRepo int
}

// Schedule intervals accepted by SCHEDULE_INTERVAL.
const (
	IntervalDaily  = "daily"
	IntervalWeekly = "weekly"
)

// ScheduleConfig describes the wall-clock trigger cadence. Interval is
// "daily" or "weekly"; At is "HH:MM" in local time. The fetch window
// follows the interval: one day for daily runs, seven for weekly.
type ScheduleConfig struct {
	Interval string
	At       string
}

// ReportConfig locates the report output directory consumed by the file
// notifier.
type ReportConfig struct {
	OutputDir string
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggerConfig selects the slog handler.
type LoggerConfig struct {
	Level  string
	Format string
	Output string
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	GitHub     GitHubConfig
	LLM        LLMConfig
	Fetch      FetchConfig
	Schedule   ScheduleConfig
	Report     ReportConfig
	Database   DBConfig
	Logging    LoggerConfig
}

// Window returns the activity lookback applied to each run.
func (c *Config) Window() time.Duration {
	if c.Schedule.Interval == IntervalWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// LoadConfig reads configuration from environment variables and a .env
// file, sets defaults, and validates required fields.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("GITHUB_REQUESTS_PER_SEC", 5.0)
	v.SetDefault("LLM_PROVIDER", "ollama")
	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("GENERATOR_MODEL_NAME", "gemma3:latest")
	v.SetDefault("LLM_MAX_ATTEMPTS", 3)
	v.SetDefault("LLM_BASE_BACKOFF", "2s")
	v.SetDefault("LLM_CALL_TIMEOUT", "2m")
	v.SetDefault("FETCH_CONCURRENCY", 5)
	v.SetDefault("FETCH_TIMEOUT", "60s")
	v.SetDefault("MAX_EVENTS_PER_REPO", 30)
	v.SetDefault("SCHEDULE_INTERVAL", "daily")
	v.SetDefault("SCHEDULE_TIME", "08:00")
	v.SetDefault("REPORT_OUTPUT_DIR", "reports")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "sentinel")
	v.SetDefault("DB_NAME", "sentinel")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	// A missing .env is fine, the environment still applies; a malformed
	// one is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigParseError); ok {
			return nil, fmt.Errorf("failed to parse .env: %w", err)
		}
	}

	cfg := &Config{
		ServerPort: v.GetString("SERVER_PORT"),
		GitHub: GitHubConfig{
			Token:          v.GetString("GITHUB_TOKEN"),
			AppID:          v.GetInt64("GITHUB_APP_ID"),
			InstallationID: v.GetInt64("GITHUB_INSTALLATION_ID"),
			PrivateKeyPath: v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			RequestsPerSec: v.GetFloat64("GITHUB_REQUESTS_PER_SEC"),
		},
		LLM: LLMConfig{
			Provider:     v.GetString("LLM_PROVIDER"),
			OllamaHost:   v.GetString("OLLAMA_HOST"),
			Model:        v.GetString("GENERATOR_MODEL_NAME"),
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			MaxAttempts:  v.GetInt("LLM_MAX_ATTEMPTS"),
			BaseBackoff:  v.GetDuration("LLM_BASE_BACKOFF"),
			CallTimeout:  v.GetDuration("LLM_CALL_TIMEOUT"),
		},
		Fetch: FetchConfig{
			Concurrency:      v.GetInt("FETCH_CONCURRENCY"),
			Timeout:          v.GetDuration("FETCH_TIMEOUT"),
			MaxEventsPerRepo: v.GetInt("MAX_EVENTS_PER_REPO"),
		},
		Schedule: ScheduleConfig{
			Interval: v.GetString("SCHEDULE_INTERVAL"),
			At:       v.GetString("SCHEDULE_TIME"),
		},
		Report: ReportConfig{
			OutputDir: v.GetString("REPORT_OUTPUT_DIR"),
		},
		Database: DBConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Username:        v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Logging: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" && c.GitHub.AppID == 0 {
		return fmt.Errorf("either GITHUB_TOKEN or GITHUB_APP_ID must be set")
	}
	if c.GitHub.AppID != 0 {
		if c.GitHub.InstallationID == 0 {
			return fmt.Errorf("GITHUB_INSTALLATION_ID must be set when using GitHub App auth")
		}
		if c.GitHub.PrivateKeyPath == "" {
			return fmt.Errorf("GITHUB_PRIVATE_KEY_PATH must be set when using GitHub App auth")
		}
	}
	switch c.LLM.Provider {
	case "ollama":
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set for the gemini provider")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}
	switch c.Schedule.Interval {
	case IntervalDaily, IntervalWeekly:
	default:
		return fmt.Errorf("SCHEDULE_INTERVAL must be daily or weekly, got %q", c.Schedule.Interval)
	}
	if _, _, err := ParseClock(c.Schedule.At); err != nil {
		return err
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.MaxEventsPerRepo <= 0 {
		return fmt.Errorf("MAX_EVENTS_PER_REPO must be positive, got %d", c.Fetch.MaxEventsPerRepo)
	}
	if c.LLM.MaxAttempts <= 0 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be positive, got %d", c.LLM.MaxAttempts)
	}
	return nil
}

// ParseClock parses an "HH:MM" schedule time.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("SCHEDULE_TIME must be HH:MM, got %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("SCHEDULE_TIME out of range: %q", s)
	}
	return hour, minute, nil
}
