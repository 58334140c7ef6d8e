// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

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

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/repo-sentinel/internal/app"
	"github.com/sevigo/repo-sentinel/internal/config"
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

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	loggerConfig := cfg.Logging
	var logWriter io.Writer
	switch cfg.Logging.Output {
	case "stderr":
		logWriter = os.Stderr
	case "file":
		f, _ := os.OpenFile("repo-sentinel.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		logWriter = f
	default:
		logWriter = os.Stdout
	}
	slogLogger := logger.New(loggerConfig, logWriter)

	// Database
	dbConn, dbCleanup, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Storage
	store := storage.NewStore(dbConn.DB)

	// GitHub transport
	ghClient, err := github.NewFromConfig(ctx, cfg, slogLogger)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	// Fetch pipeline
	fetcher := fetch.NewFetcher(ghClient, slogLogger)
	collector := fetch.NewCollector(fetcher, cfg.Fetch.Concurrency, cfg.Fetch.Timeout, slogLogger)

	// Summarization
	model, err := provideModelGen(ctx, cfg, slogLogger)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create LLM: %w", err)
	}
	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}
	summarizer := llm.NewSummarizer(model, promptMgr, cfg, slogLogger)

	// Report pipeline
	assembler := report.NewAssembler()
	notifier := notify.NewFileNotifier(cfg.Report.OutputDir, slogLogger)

	// Coordinator
	coordinator := runner.NewCoordinator(store, collector, summarizer, assembler, notifier, store, cfg.Window(), slogLogger)

	// Scheduler
	sched, err := scheduler.New(coordinator, cfg.Schedule, slogLogger)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	// Server
	srv := server.NewServer(cfg, coordinator, store, slogLogger)

	// App
	application := app.NewApp(cfg, srv, sched, coordinator, store, slogLogger)

	cleanup := func() {
		dbCleanup()
	}

	return application, cleanup, nil
}

func provideModelGen(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return gemini.New(ctx, gemini.WithModel(cfg.LLM.Model), gemini.WithAPIKey(cfg.LLM.GeminiAPIKey))
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.LLM.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClientGen()),
			ollama.WithModel(cfg.LLM.Model),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}

func newOllamaHTTPClientGen() *http.Client {
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
