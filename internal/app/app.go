// Package app orchestrates the long-running service: the schedule loop and
// the HTTP trigger API share one run coordinator so triggers stay mutually
// exclusive. The CLI reuses the same wiring without starting the server.
package app

import (
	"context"
	"log/slog"

	"github.com/sevigo/repo-sentinel/internal/config"
	"github.com/sevigo/repo-sentinel/internal/runner"
	"github.com/sevigo/repo-sentinel/internal/scheduler"
	"github.com/sevigo/repo-sentinel/internal/server"
	"github.com/sevigo/repo-sentinel/internal/storage"
)

// App holds the main application components.
type App struct {
	Cfg         *config.Config
	Server      *server.Server
	Sched       *scheduler.Scheduler
	Coordinator *runner.Coordinator
	Store       *storage.Store
	Logger      *slog.Logger

	cancelSched context.CancelFunc
}

// NewApp assembles the service from its already-wired components.
func NewApp(
	cfg *config.Config,
	srv *server.Server,
	sched *scheduler.Scheduler,
	coordinator *runner.Coordinator,
	store *storage.Store,
	logger *slog.Logger,
) *App {
	return &App{
		Cfg:         cfg,
		Server:      srv,
		Sched:       sched,
		Coordinator: coordinator,
		Store:       store,
		Logger:      logger,
	}
}

// Start launches the schedule loop and blocks serving HTTP until shutdown.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("starting repo-sentinel",
		"server_port", a.Cfg.ServerPort,
		"schedule_interval", a.Cfg.Schedule.Interval,
		"schedule_time", a.Cfg.Schedule.At,
	)

	schedCtx, cancel := context.WithCancel(ctx)
	a.cancelSched = cancel
	go a.Sched.Start(schedCtx)

	return a.Server.Start()
}

// Stop shuts down the schedule loop and the HTTP server cleanly.
func (a *App) Stop() error {
	a.Logger.Info("shutting down repo-sentinel services")

	if a.cancelSched != nil {
		a.cancelSched()
	}

	if err := a.Server.Stop(); err != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", err)
		return err
	}

	a.Logger.Info("repo-sentinel stopped successfully")
	return nil
}
