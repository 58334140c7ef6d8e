package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// classifyError maps a go-github error onto the transport's failure
// taxonomy. Unrecognized errors are treated as transient so they stay on
// the recorded-failure path instead of aborting a batch.
func classifyError(key core.RepoKey, t core.EventType, err error) *core.FetchError {
	msg := fmt.Sprintf("fetch %s for %s", t, key)

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return core.NewFetchError(core.KindRateLimited, msg, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return core.NewFetchError(core.KindRateLimited, msg, err)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch {
		case ghErr.Response.StatusCode == http.StatusUnauthorized,
			ghErr.Response.StatusCode == http.StatusForbidden:
			return core.NewFetchError(core.KindAuth, msg, err)
		case ghErr.Response.StatusCode == http.StatusNotFound:
			return core.NewFetchError(core.KindNotFound, msg, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewFetchError(core.KindTimeout, msg, err)
	}

	return core.NewFetchError(core.KindTransient, msg, err)
}
