package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sevigo/repo-sentinel/internal/core"
)

var (
	// ErrRunInProgress is returned when a trigger arrives while another run
	// holds the pipeline.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrNoSubscriptions is returned when a run is triggered with nothing to
	// watch.
	ErrNoSubscriptions = errors.New("no subscriptions configured")
)

// RunOptions narrows a run. The zero value runs the full subscription list.
type RunOptions struct {
	// Only restricts the run to a single subscribed repository.
	Only *core.RepoKey
}

// Collector produces one batch payload from the subscription list.
type Collector interface {
	Collect(ctx context.Context, subs []core.Subscription, since time.Time) *core.BatchPayload
}

// Summarizer turns a batch payload into a report body. The boolean reports
// whether the model produced the body or the fallback did.
type Summarizer interface {
	Summarize(ctx context.Context, payload *core.BatchPayload) (string, bool)
}

// Assembler finalizes a report from the summary body and batch diagnostics.
type Assembler interface {
	Assemble(body string, payload *core.BatchPayload, scope *core.RepoKey, aiGenerated bool) *core.Report
}

// Coordinator owns the run lifecycle: it serializes triggers, drives the
// fetch/summarize/assemble/deliver pipeline, and records the outcome.
type Coordinator struct {
	store      core.SubscriptionStore
	collector  Collector
	summarizer Summarizer
	assembler  Assembler
	notifier   core.Notifier
	history    core.RunHistory
	window     time.Duration
	logger     *slog.Logger

	now     func() time.Time
	running atomic.Bool
}

func NewCoordinator(
	store core.SubscriptionStore,
	collector Collector,
	summarizer Summarizer,
	assembler Assembler,
	notifier core.Notifier,
	history core.RunHistory,
	window time.Duration,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:      store,
		collector:  collector,
		summarizer: summarizer,
		assembler:  assembler,
		notifier:   notifier,
		history:    history,
		window:     window,
		logger:     logger,
		now:        time.Now,
	}
}

// Running reports whether a run currently holds the pipeline.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Run executes one full pipeline pass. Concurrent triggers are rejected with
// ErrRunInProgress; the gate is released on every exit path, including a
// panic inside the pipeline.
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) (*core.RunResult, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	return c.run(ctx, opts)
}

// TryStart claims the pipeline without running it, so a caller can answer
// before executing the run in the background. It returns ErrRunInProgress
// when another run holds the pipeline; otherwise the returned start function
// must be called exactly once, and releases the pipeline when the run
// finishes.
func (c *Coordinator) TryStart(opts RunOptions) (func(ctx context.Context) (*core.RunResult, error), error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	return func(ctx context.Context) (*core.RunResult, error) {
		return c.run(ctx, opts)
	}, nil
}

// run drives the pipeline. The caller already holds the gate; run releases
// it on every exit path, including a panic.
func (c *Coordinator) run(ctx context.Context, opts RunOptions) (res *core.RunResult, err error) {
	defer c.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("run panicked", "panic", r)
			res = &core.RunResult{Status: core.RunFailed}
			err = fmt.Errorf("run aborted: %v", r)
		}
	}()

	subs, err := c.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	if opts.Only != nil {
		subs = filterByKey(subs, *opts.Only)
		if len(subs) == 0 {
			return nil, fmt.Errorf("%s is not subscribed", opts.Only.String())
		}
	}
	if len(subs) == 0 {
		return nil, ErrNoSubscriptions
	}

	since := c.now().Add(-c.window)
	c.logger.Info("starting run", "subscriptions", len(subs), "since", since)

	payload := c.collector.Collect(ctx, subs, since)
	body, aiGenerated := c.summarizer.Summarize(ctx, payload)
	rep := c.assembler.Assemble(body, payload, opts.Only, aiGenerated)

	result := &core.RunResult{Status: core.RunSucceeded, Report: rep}
	if payload.Degraded() {
		result.Status = core.RunDegraded
	}
	if !aiGenerated {
		result.Status = core.RunDegraded
		result.Warnings = append(result.Warnings, "summary model unavailable, deterministic fallback used")
	}

	deliveryID, err := c.notifier.Deliver(ctx, rep)
	if err != nil {
		result.Status = core.RunDegraded
		result.Warnings = append(result.Warnings, fmt.Sprintf("report delivery failed: %v", err))
		c.logger.Error("report delivery failed", "report_id", rep.ID, "error", err)
	} else {
		result.DeliveryID = deliveryID
	}

	c.record(ctx, result, payload)

	c.logger.Info("run finished",
		"status", result.Status,
		"report_id", rep.ID,
		"succeeded", len(payload.Successes),
		"failed", len(payload.Failures),
		"ai_summary", aiGenerated,
	)
	return result, nil
}

// record persists the run trace. History failures are logged and dropped so
// they never affect the run outcome.
func (c *Coordinator) record(ctx context.Context, res *core.RunResult, payload *core.BatchPayload) {
	if c.history == nil {
		return
	}
	rec := core.RunRecord{
		ID:         uuid.NewString(),
		Status:     string(res.Status),
		Succeeded:  len(payload.Successes),
		Failed:     len(payload.Failures),
		DeliveryID: res.DeliveryID,
		AISummary:  res.Report != nil && res.Report.AIGenerated,
		CreatedAt:  c.now().UTC(),
	}
	if err := c.history.RecordRun(ctx, rec); err != nil {
		c.logger.Warn("failed to record run history", "error", err)
	}
}

func filterByKey(subs []core.Subscription, key core.RepoKey) []core.Subscription {
	var out []core.Subscription
	for _, s := range subs {
		if s.Key() == key {
			out = append(out, s)
		}
	}
	return out
}
