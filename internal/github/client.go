package github

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/time/rate"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// Per-type fetch caps. Releases are few and information-dense; the other
// listings are capped so a noisy repository cannot dominate a batch.
const (
	maxReleases = 5
	maxIssues   = 20
	maxPulls    = 20
	maxCommits  = 20

	// Release notes can run to many pages; only the head survives
	// normalization.
	maxReleaseBodyRunes = 500
)

// Client wraps the official go-github client behind the core.EventSource
// contract. All outbound calls pass through a shared rate limiter so a
// concurrent batch cannot burst past the API's secondary limits.
type Client struct {
	gh      *github.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient wraps an already-authenticated go-github client.
func NewClient(gh *github.Client, requestsPerSec float64, logger *slog.Logger) *Client {
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	return &Client{
		gh:      gh,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:  logger,
	}
}

var _ core.EventSource = (*Client)(nil)

// FetchEvents retrieves one event type for one repository, most recent
// first, restricted to activity at or after since.
func (c *Client) FetchEvents(ctx context.Context, key core.RepoKey, t core.EventType, since time.Time) ([]core.Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyError(key, t, err)
	}

	var (
		events []core.Event
		err    error
	)
	switch t {
	case core.EventTypeRelease:
		events, err = c.fetchReleases(ctx, key, since)
	case core.EventTypeIssue:
		events, err = c.fetchIssues(ctx, key, since)
	case core.EventTypePullRequest:
		events, err = c.fetchPullRequests(ctx, key, since)
	case core.EventTypeCommit:
		events, err = c.fetchCommits(ctx, key, since)
	default:
		return nil, core.NewFetchError(core.KindConfiguration, "unknown event type "+string(t), nil)
	}
	if err != nil {
		return nil, classifyError(key, t, err)
	}
	return events, nil
}

func (c *Client) fetchReleases(ctx context.Context, key core.RepoKey, since time.Time) ([]core.Event, error) {
	releases, _, err := c.gh.Repositories.ListReleases(ctx, key.Owner, key.Repo, &github.ListOptions{
		PerPage: maxReleases,
	})
	if err != nil {
		return nil, err
	}

	var events []core.Event
	for _, r := range releases {
		published := r.GetPublishedAt().Time
		if published.Before(since) {
			// A stale latest release is still worth reporting once, but
			// older entries past the window add nothing.
			if len(events) > 0 {
				break
			}
		}
		title := r.GetName()
		if title == "" {
			title = r.GetTagName()
		}
		events = append(events, core.Event{
			Type:      core.EventTypeRelease,
			Repo:      key,
			ID:        r.GetTagName(),
			Title:     title,
			Author:    r.GetAuthor().GetLogin(),
			Timestamp: published,
			URL:       r.GetHTMLURL(),
			Extra: map[string]string{
				"tag":  r.GetTagName(),
				"body": truncateRunes(r.GetBody(), maxReleaseBodyRunes),
			},
		})
	}
	return events, nil
}

func (c *Client) fetchIssues(ctx context.Context, key core.RepoKey, since time.Time) ([]core.Event, error) {
	issues, _, err := c.gh.Issues.ListByRepo(ctx, key.Owner, key.Repo, &github.IssueListByRepoOptions{
		State:       "all",
		Since:       since,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: maxIssues},
	})
	if err != nil {
		return nil, err
	}

	var events []core.Event
	for _, i := range issues {
		// The issues listing mixes in pull requests; those are tracked as
		// their own type.
		if i.IsPullRequest() {
			continue
		}
		events = append(events, core.Event{
			Type:      core.EventTypeIssue,
			Repo:      key,
			ID:        strconv.Itoa(i.GetNumber()),
			Title:     i.GetTitle(),
			Author:    i.GetUser().GetLogin(),
			Timestamp: i.GetUpdatedAt().Time,
			URL:       i.GetHTMLURL(),
			Extra: map[string]string{
				"number": strconv.Itoa(i.GetNumber()),
				"state":  i.GetState(),
			},
		})
	}
	return events, nil
}

func (c *Client) fetchPullRequests(ctx context.Context, key core.RepoKey, since time.Time) ([]core.Event, error) {
	prs, _, err := c.gh.PullRequests.List(ctx, key.Owner, key.Repo, &github.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: maxPulls},
	})
	if err != nil {
		return nil, err
	}

	var events []core.Event
	for _, pr := range prs {
		// Sorted by updated desc, so the first stale entry ends the scan.
		if pr.GetUpdatedAt().Time.Before(since) {
			break
		}
		state := pr.GetState()
		if pr.MergedAt != nil {
			state = "merged"
		}
		events = append(events, core.Event{
			Type:      core.EventTypePullRequest,
			Repo:      key,
			ID:        strconv.Itoa(pr.GetNumber()),
			Title:     pr.GetTitle(),
			Author:    pr.GetUser().GetLogin(),
			Timestamp: pr.GetUpdatedAt().Time,
			URL:       pr.GetHTMLURL(),
			Extra: map[string]string{
				"number": strconv.Itoa(pr.GetNumber()),
				"state":  state,
			},
		})
	}
	return events, nil
}

func (c *Client) fetchCommits(ctx context.Context, key core.RepoKey, since time.Time) ([]core.Event, error) {
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, key.Owner, key.Repo, &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: maxCommits},
	})
	if err != nil {
		// An empty repository answers 409; report it as having no commits.
		if resp != nil && resp.StatusCode == 409 {
			return nil, nil
		}
		return nil, err
	}

	var events []core.Event
	for _, commit := range commits {
		author := commit.GetAuthor().GetLogin()
		if author == "" {
			author = commit.GetCommit().GetAuthor().GetName()
		}
		sha := commit.GetSHA()
		events = append(events, core.Event{
			Type:      core.EventTypeCommit,
			Repo:      key,
			ID:        shortSHA(sha),
			Title:     firstLine(commit.GetCommit().GetMessage()),
			Author:    author,
			Timestamp: commit.GetCommit().GetCommitter().GetDate().Time,
			URL:       commit.GetHTMLURL(),
			Extra: map[string]string{
				"sha": sha,
			},
		})
	}
	return events, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

