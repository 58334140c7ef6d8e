package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sevigo/repo-sentinel/internal/config"
	"github.com/sevigo/repo-sentinel/internal/runner"
)

// Scheduler triggers a full run on a fixed daily or weekly wall-clock
// schedule. Weekly runs fire on Mondays.
type Scheduler struct {
	coordinator *runner.Coordinator
	interval    string
	hour        int
	minute      int
	logger      *slog.Logger

	now func() time.Time
}

func New(coordinator *runner.Coordinator, cfg config.ScheduleConfig, logger *slog.Logger) (*Scheduler, error) {
	hour, minute, err := config.ParseClock(cfg.At)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		coordinator: coordinator,
		interval:    cfg.Interval,
		hour:        hour,
		minute:      minute,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Start blocks until ctx is cancelled, firing a run at each scheduled time.
// A tick that lands while a manual run is still in flight is skipped, not
// queued.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := nextRun(s.now(), s.interval, s.hour, s.minute)
		s.logger.Info("next scheduled run", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		_, err := s.coordinator.Run(ctx, runner.RunOptions{})
		switch {
		case errors.Is(err, runner.ErrRunInProgress):
			s.logger.Warn("scheduled run skipped, another run in progress")
		case errors.Is(err, runner.ErrNoSubscriptions):
			s.logger.Warn("scheduled run skipped, no subscriptions")
		case err != nil:
			s.logger.Error("scheduled run failed", "error", err)
		}
	}
}

// nextRun computes the first scheduled instant strictly after now. Daily
// schedules fire at the given wall-clock time every day; weekly schedules
// fire on Mondays.
func nextRun(now time.Time, interval string, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if interval == config.IntervalWeekly {
		for next.Weekday() != time.Monday || !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
