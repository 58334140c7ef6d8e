package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// Collector fans the Fetcher out over all subscriptions with bounded
// concurrency and joins the results into one BatchPayload.
type Collector struct {
	fetcher     *Fetcher
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewCollector creates a Collector. concurrency bounds the number of
// in-flight fetches; timeout caps each individual subscription fetch.
func NewCollector(fetcher *Fetcher, concurrency int, timeout time.Duration, logger *slog.Logger) *Collector {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Collector{
		fetcher:     fetcher,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
	}
}

// Collect fetches every subscription and partitions the outcomes. The
// payload's Successes and Failures preserve subscription input order
// regardless of completion order, and no failure short-circuits the batch:
// every dispatched fetch runs to completion or to its timeout.
func (c *Collector) Collect(ctx context.Context, subs []core.Subscription, since time.Time) *core.BatchPayload {
	results := make([]core.FetchResult, len(subs))

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			fctx := ctx
			var cancel context.CancelFunc
			if c.timeout > 0 {
				fctx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}

			res := c.fetcher.Fetch(fctx, sub, since)

			// A fetch cut off by its per-subscription deadline counts as a
			// timeout, unless the transport already reported something more
			// severe before the deadline fired.
			if !res.OK() && errors.Is(fctx.Err(), context.DeadlineExceeded) {
				res.Failure.Kind = core.MostSevere(res.Failure.Kind, core.KindTimeout)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	payload := &core.BatchPayload{GeneratedAt: time.Now().UTC()}
	for _, res := range results {
		if res.OK() {
			payload.Successes = append(payload.Successes, core.RepoEvents{
				Repo:         res.Repo,
				Label:        res.Label,
				Events:       res.Events,
				TypeFailures: res.TypeFailures,
			})
		} else {
			payload.Failures = append(payload.Failures, *res.Failure)
		}
	}

	c.logger.Info("batch collected",
		"subscriptions", len(subs),
		"succeeded", len(payload.Successes),
		"failed", len(payload.Failures),
		"events", payload.EventCount(),
	)
	return payload
}
