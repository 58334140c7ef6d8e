//go:build wireinject
// +build wireinject

package wire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/repo-sentinel/internal/app"
	"github.com/sevigo/repo-sentinel/internal/config"
	"github.com/sevigo/repo-sentinel/internal/core"
	"github.com/sevigo/repo-sentinel/internal/db"
	"github.com/sevigo/repo-sentinel/internal/fetch"
	"github.com/sevigo/repo-sentinel/internal/github"
	"github.com/sevigo/repo-sentinel/internal/llm"
	"github.com/sevigo/repo-sentinel/internal/logger"
	"github.com/sevigo/repo-sentinel/internal/notify"
	"github.com/sevigo/repo-sentinel/internal/report"
	"github.com/sevigo/repo-sentinel/internal/runner"
	"github.com/sevigo/repo-sentinel/internal/scheduler"
	"github.com/sevigo/repo-sentinel/internal/server"
	"github.com/sevigo/repo-sentinel/internal/storage"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		app.NewApp,
		server.NewServer,
		scheduler.New,
		provideCoordinator,
		report.NewAssembler,
		llm.NewSummarizer,
		llm.NewPromptManager,
		provideCollector,
		fetch.NewFetcher,
		config.LoadConfig,
		db.NewDatabase,
		storage.NewStore,
		github.NewFromConfig,
		provideModel,
		provideNotifier,
		provideScheduleConfig,
		provideLoggerConfig,
		provideLogWriter,
		provideSlogLogger,
		provideDBConfig,
		wire.Bind(new(core.EventSource), new(*github.Client)),
		wire.Bind(new(core.SubscriptionStore), new(*storage.Store)),
		wire.Bind(new(core.RunHistory), new(*storage.Store)),
		wire.Bind(new(runner.Collector), new(*fetch.Collector)),
		wire.Bind(new(runner.Summarizer), new(*llm.Summarizer)),
		wire.Bind(new(runner.Assembler), new(*report.Assembler)),
	)
	return &app.App{}, nil, nil
}

func provideModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return gemini.New(ctx, gemini.WithModel(cfg.LLM.Model), gemini.WithAPIKey(cfg.LLM.GeminiAPIKey))
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.LLM.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithModel(cfg.LLM.Model),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) core.Notifier {
	return notify.NewFileNotifier(cfg.Report.OutputDir, logger)
}

func provideCollector(fetcher *fetch.Fetcher, cfg *config.Config, logger *slog.Logger) *fetch.Collector {
	return fetch.NewCollector(fetcher, cfg.Fetch.Concurrency, cfg.Fetch.Timeout, logger)
}

func provideCoordinator(
	store core.SubscriptionStore,
	collector runner.Collector,
	summarizer runner.Summarizer,
	assembler runner.Assembler,
	notifier core.Notifier,
	history core.RunHistory,
	cfg *config.Config,
	logger *slog.Logger,
) *runner.Coordinator {
	return runner.NewCoordinator(store, collector, summarizer, assembler, notifier, history, cfg.Window(), logger)
}

func provideScheduleConfig(cfg *config.Config) config.ScheduleConfig {
	return cfg.Schedule
}

func newOllamaHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: 15 * time.Minute,
	}
}

func provideLoggerConfig(cfg *config.Config) config.LoggerConfig {
	return cfg.Logging
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "file":
		f, _ := os.OpenFile("repo-sentinel.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		return f
	default:
		return os.Stdout
	}
}

func provideSlogLogger(loggerConfig config.LoggerConfig, writer io.Writer) *slog.Logger {
	return logger.New(loggerConfig, writer)
}
