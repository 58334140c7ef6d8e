package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repo-sentinel/internal/core"
)

type fakeStore struct {
	subs []core.Subscription
	err  error

	mu   sync.Mutex
	recs []core.RunRecord
}

func (f *fakeStore) ListSubscriptions(context.Context) ([]core.Subscription, error) {
	return f.subs, f.err
}
func (f *fakeStore) AddSubscription(context.Context, core.Subscription) error { return nil }
func (f *fakeStore) RemoveSubscription(context.Context, core.RepoKey) (bool, error) {
	return false, nil
}
func (f *fakeStore) RecordRun(_ context.Context, rec core.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}
func (f *fakeStore) ListRuns(context.Context, int) ([]core.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs, nil
}

type fakeCollector struct {
	payload *core.BatchPayload
	block   chan struct{}

	mu   sync.Mutex
	subs [][]core.Subscription
}

func (f *fakeCollector) Collect(_ context.Context, subs []core.Subscription, _ time.Time) *core.BatchPayload {
	f.mu.Lock()
	f.subs = append(f.subs, subs)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.payload != nil {
		return f.payload
	}
	payload := &core.BatchPayload{GeneratedAt: time.Now().UTC()}
	for _, sub := range subs {
		payload.Successes = append(payload.Successes, core.RepoEvents{Repo: sub.Key(), Label: sub.DisplayLabel()})
	}
	return payload
}

type fakeSummarizer struct {
	body string
	ai   bool
}

func (f *fakeSummarizer) Summarize(context.Context, *core.BatchPayload) (string, bool) {
	return f.body, f.ai
}

type fakeAssembler struct{}

func (fakeAssembler) Assemble(body string, _ *core.BatchPayload, scope *core.RepoKey, aiGenerated bool) *core.Report {
	return &core.Report{
		ID:          "20260115_083000",
		Body:        body,
		CreatedAt:   time.Now().UTC(),
		Scope:       scope,
		AIGenerated: aiGenerated,
	}
}

type fakeNotifier struct {
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) Deliver(_ context.Context, report *core.Report) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "reports/" + report.Filename(), nil
}

func newTestCoordinator(store *fakeStore, collector *fakeCollector, summarizer *fakeSummarizer, notifier *fakeNotifier) *Coordinator {
	return NewCoordinator(
		store,
		collector,
		summarizer,
		fakeAssembler{},
		notifier,
		store,
		24*time.Hour,
		slog.New(slog.DiscardHandler),
	)
}

func subscriptions(repos ...string) []core.Subscription {
	subs := make([]core.Subscription, 0, len(repos))
	for _, r := range repos {
		subs = append(subs, core.Subscription{Owner: "org", Repo: r, Track: core.DefaultEventTypes()})
	}
	return subs
}

func TestRunSucceeds(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha", "beta")}
	notifier := &fakeNotifier{}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{body: "summary", ai: true}, notifier)

	res, err := c.Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, core.RunSucceeded, res.Status)
	assert.Equal(t, "reports/report_all_20260115_083000.md", res.DeliveryID)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1, notifier.calls)
	assert.False(t, c.Running())

	require.Len(t, store.recs, 1)
	assert.Equal(t, "succeeded", store.recs[0].Status)
	assert.Equal(t, 2, store.recs[0].Succeeded)
	assert.Zero(t, store.recs[0].Failed)
	assert.True(t, store.recs[0].AISummary)
	assert.NotEmpty(t, store.recs[0].ID)
}

func TestRunRejectsConcurrentTrigger(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha")}
	block := make(chan struct{})
	collector := &fakeCollector{block: block}
	notifier := &fakeNotifier{}
	c := newTestCoordinator(store, collector, &fakeSummarizer{body: "summary", ai: true}, notifier)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Run(context.Background(), RunOptions{})
		assert.NoError(t, err)
	}()

	// Wait for the first run to reach the collector, then trigger again.
	require.Eventually(t, c.Running, time.Second, time.Millisecond)
	_, err := c.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(block)
	<-done

	// The gate is released; a new run is accepted and delivery happened
	// exactly once per run.
	assert.False(t, c.Running())
	_, err = c.Run(context.Background(), RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 2, notifier.calls)
}

type panicCollector struct{}

func (panicCollector) Collect(context.Context, []core.Subscription, time.Time) *core.BatchPayload {
	panic("collector exploded")
}

func TestRunPanicReleasesGate(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha")}
	notifier := &fakeNotifier{}
	c := NewCoordinator(
		store,
		panicCollector{},
		&fakeSummarizer{},
		fakeAssembler{},
		notifier,
		store,
		24*time.Hour,
		slog.New(slog.DiscardHandler),
	)

	res, err := c.Run(context.Background(), RunOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "collector exploded")
	require.NotNil(t, res)
	assert.Equal(t, core.RunFailed, res.Status)
	assert.False(t, c.Running())

	// The gate is free again; a healthy run goes through.
	c.collector = &fakeCollector{}
	_, err = c.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.calls)
}

func TestTryStartClaimsGateBeforeRunning(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha")}
	notifier := &fakeNotifier{}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{body: "summary", ai: true}, notifier)

	start, err := c.TryStart(RunOptions{})
	require.NoError(t, err)

	// The pipeline is claimed before the start function is invoked, so a
	// competing trigger is rejected immediately.
	assert.True(t, c.Running())
	_, err = c.TryStart(RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)
	_, err = c.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	res, err := start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.RunSucceeded, res.Status)
	assert.Equal(t, 1, notifier.calls)
	assert.False(t, c.Running())
}

func TestRunNoSubscriptions(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{}, notifier)

	_, err := c.Run(context.Background(), RunOptions{})

	assert.ErrorIs(t, err, ErrNoSubscriptions)
	assert.Zero(t, notifier.calls)
	assert.False(t, c.Running())
}

func TestRunScopedToSingleRepo(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha", "beta", "gamma")}
	collector := &fakeCollector{}
	c := newTestCoordinator(store, collector, &fakeSummarizer{body: "summary", ai: true}, &fakeNotifier{})

	res, err := c.Run(context.Background(), RunOptions{Only: &core.RepoKey{Owner: "org", Repo: "beta"}})

	require.NoError(t, err)
	assert.Equal(t, core.RunSucceeded, res.Status)
	require.Len(t, collector.subs, 1)
	require.Len(t, collector.subs[0], 1)
	assert.Equal(t, "beta", collector.subs[0][0].Repo)
}

func TestRunScopedToUnknownRepo(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha")}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{}, &fakeNotifier{})

	_, err := c.Run(context.Background(), RunOptions{Only: &core.RepoKey{Owner: "org", Repo: "missing"}})

	assert.Error(t, err)
	assert.False(t, c.Running())
}

func TestRunDeliveryFailureDegrades(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha")}
	notifier := &fakeNotifier{err: errors.New("disk full")}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{body: "summary", ai: true}, notifier)

	res, err := c.Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, core.RunDegraded, res.Status)
	assert.Empty(t, res.DeliveryID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "delivery failed")
	// Delivery is not retried.
	assert.Equal(t, 1, notifier.calls)
	// The run is still recorded.
	require.Len(t, store.recs, 1)
	assert.Equal(t, "degraded", store.recs[0].Status)
}

func TestRunFallbackSummaryDegrades(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha")}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{body: "raw listing", ai: false}, &fakeNotifier{})

	res, err := c.Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, core.RunDegraded, res.Status)
	require.Len(t, res.Warnings, 1)
	assert.False(t, res.Report.AIGenerated)
}

func TestRunPartialFetchFailureDegrades(t *testing.T) {
	store := &fakeStore{subs: subscriptions("alpha", "beta")}
	collector := &fakeCollector{
		payload: &core.BatchPayload{
			GeneratedAt: time.Now().UTC(),
			Successes: []core.RepoEvents{
				{Repo: core.RepoKey{Owner: "org", Repo: "alpha"}},
			},
			Failures: []core.Failure{
				{Repo: core.RepoKey{Owner: "org", Repo: "beta"}, Kind: core.KindNotFound, Message: "gone"},
			},
		},
	}
	c := newTestCoordinator(store, collector, &fakeSummarizer{body: "summary", ai: true}, &fakeNotifier{})

	res, err := c.Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, core.RunDegraded, res.Status)
	require.Len(t, store.recs, 1)
	assert.Equal(t, 1, store.recs[0].Succeeded)
	assert.Equal(t, 1, store.recs[0].Failed)
}

func TestRunListError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	c := newTestCoordinator(store, &fakeCollector{}, &fakeSummarizer{}, &fakeNotifier{})

	_, err := c.Run(context.Background(), RunOptions{})

	assert.Error(t, err)
	assert.False(t, c.Running())
}
