package fetch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// fakeSource returns canned events or errors per event type.
type fakeSource struct {
	events map[core.EventType][]core.Event
	errs   map[core.EventType]error
	calls  []core.EventType
}

func (f *fakeSource) FetchEvents(_ context.Context, _ core.RepoKey, t core.EventType, _ time.Time) ([]core.Event, error) {
	f.calls = append(f.calls, t)
	if err, ok := f.errs[t]; ok {
		return nil, err
	}
	return f.events[t], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testSub(track ...core.EventType) core.Subscription {
	return core.Subscription{Owner: "golang", Repo: "go", Track: track}
}

func TestFetcherAllTypesSucceed(t *testing.T) {
	source := &fakeSource{
		events: map[core.EventType][]core.Event{
			core.EventTypeRelease: {{Type: core.EventTypeRelease, ID: "v1.0.0"}},
			core.EventTypeIssue:   {{Type: core.EventTypeIssue, ID: "#1"}, {Type: core.EventTypeIssue, ID: "#2"}},
		},
	}
	f := NewFetcher(source, testLogger())

	res := f.Fetch(context.Background(), testSub(core.EventTypeRelease, core.EventTypeIssue), time.Now())

	assert.True(t, res.OK())
	assert.Len(t, res.Events, 3)
	assert.Empty(t, res.TypeFailures)
	assert.Equal(t, "golang/go", res.Label)
}

func TestFetcherPartialFailureStaysSuccess(t *testing.T) {
	source := &fakeSource{
		events: map[core.EventType][]core.Event{
			core.EventTypeRelease: {{Type: core.EventTypeRelease, ID: "v1.0.0"}},
		},
		errs: map[core.EventType]error{
			core.EventTypeIssue: core.NewFetchError(core.KindRateLimited, "rate limit exceeded", nil),
		},
	}
	f := NewFetcher(source, testLogger())

	res := f.Fetch(context.Background(), testSub(core.EventTypeRelease, core.EventTypeIssue), time.Now())

	assert.True(t, res.OK())
	assert.Len(t, res.Events, 1)
	require.Len(t, res.TypeFailures, 1)
	assert.Equal(t, core.EventTypeIssue, res.TypeFailures[0].Type)
	assert.Equal(t, core.KindRateLimited, res.TypeFailures[0].Kind)
}

func TestFetcherAllTypesFail(t *testing.T) {
	source := &fakeSource{
		errs: map[core.EventType]error{
			core.EventTypeRelease: core.NewFetchError(core.KindTransient, "upstream 502", nil),
			core.EventTypeIssue:   core.NewFetchError(core.KindAuth, "bad credentials", nil),
		},
	}
	f := NewFetcher(source, testLogger())

	res := f.Fetch(context.Background(), testSub(core.EventTypeRelease, core.EventTypeIssue), time.Now())

	assert.False(t, res.OK())
	require.NotNil(t, res.Failure)
	// The repository-level kind is the most severe of the per-type kinds.
	assert.Equal(t, core.KindAuth, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "upstream 502")
	assert.Contains(t, res.Failure.Message, "bad credentials")
	assert.Empty(t, res.Events)
	assert.Empty(t, res.TypeFailures)
}

func TestFetcherEmptyTrackIsConfigurationFailure(t *testing.T) {
	source := &fakeSource{}
	f := NewFetcher(source, testLogger())

	res := f.Fetch(context.Background(), testSub(), time.Now())

	assert.False(t, res.OK())
	require.NotNil(t, res.Failure)
	assert.Equal(t, core.KindConfiguration, res.Failure.Kind)
	assert.Empty(t, source.calls, "no fetch should be attempted")
}

func TestFetcherUnknownTypeIsConfigurationFailure(t *testing.T) {
	source := &fakeSource{}
	f := NewFetcher(source, testLogger())

	res := f.Fetch(context.Background(), testSub(core.EventTypeRelease, core.EventType("stars")), time.Now())

	assert.False(t, res.OK())
	require.NotNil(t, res.Failure)
	assert.Equal(t, core.KindConfiguration, res.Failure.Kind)
	assert.Empty(t, source.calls, "validation happens before any fetch")
}

func TestFetcherEmptyResultsAreStillSuccess(t *testing.T) {
	source := &fakeSource{}
	f := NewFetcher(source, testLogger())

	res := f.Fetch(context.Background(), testSub(core.EventTypeRelease), time.Now())

	assert.True(t, res.OK())
	assert.Empty(t, res.Events)
	assert.Nil(t, res.Failure)
}
