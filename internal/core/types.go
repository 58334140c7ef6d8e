// Package core defines the essential data structures and collaborator
// interfaces that form the backbone of the application. These components are
// designed to be abstract, allowing for flexible and decoupled
// implementations of the pipeline's logic.
package core

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies one kind of repository activity tracked by a
// subscription. The set is closed: normalization and rendering sites switch
// over it exhaustively, so adding a type is a compile-time extension.
type EventType string

const (
	EventTypeRelease     EventType = "release"
	EventTypeIssue       EventType = "issue"
	EventTypePullRequest EventType = "pull_request"
	EventTypeCommit      EventType = "commit"
)

// AllEventTypes returns every supported event type.
func AllEventTypes() []EventType {
	return []EventType{EventTypeRelease, EventTypeIssue, EventTypePullRequest, EventTypeCommit}
}

// DefaultEventTypes returns the types tracked by a new subscription when
// none are given explicitly.
func DefaultEventTypes() []EventType {
	return []EventType{EventTypeRelease, EventTypeIssue, EventTypePullRequest}
}

// ParseEventType converts a user-supplied string into an EventType. Plural
// spellings ("releases", "issues", ...) are accepted for compatibility with
// subscription files.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "release", "releases":
		return EventTypeRelease, nil
	case "issue", "issues":
		return EventTypeIssue, nil
	case "pull_request", "pull_requests", "pr", "prs":
		return EventTypePullRequest, nil
	case "commit", "commits":
		return EventTypeCommit, nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

// Title returns a human-readable heading for the event type, used in
// rendered reports.
func (t EventType) Title() string {
	switch t {
	case EventTypeRelease:
		return "Releases"
	case EventTypeIssue:
		return "Issues"
	case EventTypePullRequest:
		return "Pull Requests"
	case EventTypeCommit:
		return "Commits"
	default:
		return string(t)
	}
}

// RepoKey uniquely identifies a repository by owner and name.
type RepoKey struct {
	Owner string
	Repo  string
}

func (k RepoKey) String() string {
	return k.Owner + "/" + k.Repo
}

// Slug returns a filesystem-safe rendering of the key.
func (k RepoKey) Slug() string {
	return k.Owner + "_" + k.Repo
}

// Subscription is a tracked repository plus the set of event types to fetch
// for it. Subscriptions are owned by the subscription store and treated as
// read-only snapshots for the duration of a run.
type Subscription struct {
	Owner string      `db:"owner" yaml:"owner"`
	Repo  string      `db:"repo" yaml:"repo"`
	Label string      `db:"label" yaml:"label,omitempty"`
	Track []EventType `db:"-" yaml:"track"`
}

// Key returns the subscription's repository identity.
func (s Subscription) Key() RepoKey {
	return RepoKey{Owner: s.Owner, Repo: s.Repo}
}

// DisplayLabel returns the configured label, falling back to "owner/repo".
func (s Subscription) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Key().String()
}

// Event is one normalized activity record fetched from the upstream API.
// Events are immutable once created.
type Event struct {
	Type      EventType
	Repo      RepoKey
	ID        string
	Title     string
	Author    string
	Timestamp time.Time
	URL       string
	Extra     map[string]string
}
