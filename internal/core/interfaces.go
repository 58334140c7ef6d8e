package core

import (
	"context"
	"time"
)

// EventSource is the upstream event transport. Implementations own auth,
// pagination, and rate-limit backoff; failures are reported as FetchError
// values classified per the taxonomy in errors.go. Calls are idempotent and
// safe to retry.
type EventSource interface {
	// FetchEvents retrieves events of one type for one repository, most
	// recent first, restricted to activity at or after since.
	FetchEvents(ctx context.Context, key RepoKey, t EventType, since time.Time) ([]Event, error)
}

// SubscriptionStore owns the subscription list. The pipeline only reads it;
// writes come from the CLI surface.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	AddSubscription(ctx context.Context, sub Subscription) error
	RemoveSubscription(ctx context.Context, key RepoKey) (bool, error)
}

// Notifier persists a finished report and returns a delivery id. It must be
// safe to call at most once per report; the pipeline does not retry
// delivery failures.
type Notifier interface {
	Deliver(ctx context.Context, report *Report) (string, error)
}

// RunHistory records completed runs for later inspection. Recording is
// best-effort: a history failure never fails a run.
type RunHistory interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
