// Package fetch retrieves and aggregates repository activity for one run.
package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// Fetcher retrieves the tracked event types for a single subscription and
// normalizes the outcome into a FetchResult. It performs no retries of its
// own; retry policy belongs to the transport.
type Fetcher struct {
	source core.EventSource
	logger *slog.Logger
}

// NewFetcher creates a Fetcher over an event transport.
func NewFetcher(source core.EventSource, logger *slog.Logger) *Fetcher {
	return &Fetcher{source: source, logger: logger}
}

// Fetch retrieves all tracked types for one subscription. Repository-level
// availability is optimistic: if at least one tracked type succeeds the
// result is a success carrying per-type diagnostics for the rest. Only when
// every tracked type fails does the fetch become a Failure, classified with
// the most severe kind observed.
func (f *Fetcher) Fetch(ctx context.Context, sub core.Subscription, since time.Time) core.FetchResult {
	key := sub.Key()
	result := core.FetchResult{Repo: key, Label: sub.DisplayLabel()}

	if len(sub.Track) == 0 {
		result.Failure = &core.Failure{
			Repo:    key,
			Kind:    core.KindConfiguration,
			Message: "subscription tracks no event types",
		}
		return result
	}
	for _, t := range sub.Track {
		if !knownEventType(t) {
			result.Failure = &core.Failure{
				Repo:    key,
				Kind:    core.KindConfiguration,
				Message: "unknown tracked event type " + string(t),
			}
			return result
		}
	}

	var succeeded bool
	for _, t := range sub.Track {
		events, err := f.source.FetchEvents(ctx, key, t, since)
		if err != nil {
			kind := core.KindOf(err)
			f.logger.Warn("event type fetch failed",
				"repo", key.String(),
				"type", t,
				"kind", kind,
				"error", err,
			)
			result.TypeFailures = append(result.TypeFailures, core.TypeFailure{
				Type:    t,
				Kind:    kind,
				Message: err.Error(),
			})
			continue
		}
		succeeded = true
		result.Events = append(result.Events, events...)
	}

	if !succeeded {
		result.Failure = failureFromTypeFailures(key, result.TypeFailures)
		result.TypeFailures = nil
		result.Events = nil
	}
	return result
}

// failureFromTypeFailures collapses all-type failure diagnostics into one
// repository-level Failure carrying the most severe kind observed.
func failureFromTypeFailures(key core.RepoKey, failures []core.TypeFailure) *core.Failure {
	kind := core.KindTransient
	var msgs []string
	for i, tf := range failures {
		if i == 0 {
			kind = tf.Kind
		} else {
			kind = core.MostSevere(kind, tf.Kind)
		}
		msgs = append(msgs, string(tf.Type)+": "+tf.Message)
	}
	return &core.Failure{
		Repo:    key,
		Kind:    kind,
		Message: strings.Join(msgs, "; "),
	}
}

func knownEventType(t core.EventType) bool {
	switch t {
	case core.EventTypeRelease, core.EventTypeIssue, core.EventTypePullRequest, core.EventTypeCommit:
		return true
	default:
		return false
	}
}
