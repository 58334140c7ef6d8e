package github

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"

	"github.com/sevigo/repo-sentinel/internal/core"
)

func responseWithStatus(code int) *github.ErrorResponse {
	return &github.ErrorResponse{
		Response: &http.Response{
			StatusCode: code,
			Request:    &http.Request{},
		},
	}
}

func TestClassifyError(t *testing.T) {
	key := core.RepoKey{Owner: "golang", Repo: "go"}

	tests := []struct {
		name string
		err  error
		want core.ErrorKind
	}{
		{
			name: "rate limit",
			err:  &github.RateLimitError{Message: "API rate limit exceeded"},
			want: core.KindRateLimited,
		},
		{
			name: "secondary rate limit",
			err:  &github.AbuseRateLimitError{Message: "abuse detected"},
			want: core.KindRateLimited,
		},
		{
			name: "unauthorized",
			err:  responseWithStatus(http.StatusUnauthorized),
			want: core.KindAuth,
		},
		{
			name: "forbidden",
			err:  responseWithStatus(http.StatusForbidden),
			want: core.KindAuth,
		},
		{
			name: "not found",
			err:  responseWithStatus(http.StatusNotFound),
			want: core.KindNotFound,
		},
		{
			name: "server error is transient",
			err:  responseWithStatus(http.StatusBadGateway),
			want: core.KindTransient,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: core.KindTimeout,
		},
		{
			name: "plain network error",
			err:  errors.New("connection refused"),
			want: core.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := classifyError(key, core.EventTypeRelease, tt.err)
			assert.Equal(t, tt.want, fe.Kind)
			assert.Contains(t, fe.Message, "golang/go")
			assert.ErrorIs(t, fe, tt.err)
		})
	}
}
