package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindRateLimited, true},
		{KindTimeout, true},
		{KindTransient, true},
		{KindAuth, false},
		{KindNotFound, false},
		{KindConfiguration, false},
		{KindMalformedRequest, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Retryable())
		})
	}
}

func TestMostSevere(t *testing.T) {
	tests := []struct {
		name string
		a    ErrorKind
		b    ErrorKind
		want ErrorKind
	}{
		{"auth beats rate limit", KindRateLimited, KindAuth, KindAuth},
		{"rate limit beats not found", KindNotFound, KindRateLimited, KindRateLimited},
		{"not found beats timeout", KindTimeout, KindNotFound, KindNotFound},
		{"timeout beats transient", KindTransient, KindTimeout, KindTimeout},
		{"equal kinds keep first", KindTransient, KindTransient, KindTransient},
		{"order independent", KindAuth, KindTransient, KindAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MostSevere(tt.a, tt.b))
			assert.Equal(t, tt.want, MostSevere(tt.b, tt.a))
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("classified error", func(t *testing.T) {
		err := NewFetchError(KindAuth, "bad credentials", nil)
		assert.Equal(t, KindAuth, KindOf(err))
	})

	t.Run("wrapped classified error", func(t *testing.T) {
		err := fmt.Errorf("fetching releases: %w", NewFetchError(KindNotFound, "no such repo", nil))
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("plain error defaults to transient", func(t *testing.T) {
		assert.Equal(t, KindTransient, KindOf(errors.New("boom")))
	})
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewFetchError(KindTransient, "github request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "transient")
}
