package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a collaborator failure. The taxonomy drives both the
// retry decision for LLM calls and the severity ordering used when all
// tracked types of a fetch fail.
type ErrorKind string

const (
	KindConfiguration    ErrorKind = "configuration"
	KindAuth             ErrorKind = "auth"
	KindRateLimited      ErrorKind = "rate_limited"
	KindNotFound         ErrorKind = "not_found"
	KindTimeout          ErrorKind = "timeout"
	KindTransient        ErrorKind = "transient"
	KindMalformedRequest ErrorKind = "malformed_request"
)

// Retryable reports whether a failure of this kind may succeed on a later
// attempt. Auth and malformed-request failures never do.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindTransient:
		return true
	default:
		return false
	}
}

// severity orders fetch failure kinds from most to least severe. When every
// tracked type of a repository fails, the whole fetch is reported with the
// most severe kind observed.
func (k ErrorKind) severity() int {
	switch k {
	case KindAuth:
		return 5
	case KindRateLimited:
		return 4
	case KindNotFound:
		return 3
	case KindTimeout:
		return 2
	default:
		return 1
	}
}

// MostSevere returns the more severe of two kinds.
func MostSevere(a, b ErrorKind) ErrorKind {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// FetchError is a typed failure from the upstream event transport or the
// LLM transport, carrying its classification.
type FetchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError wrapping an underlying cause.
func NewFetchError(kind ErrorKind, message string, err error) *FetchError {
	return &FetchError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors
// are treated as transient, which keeps them on the retried-then-recorded
// path rather than aborting a run.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}
