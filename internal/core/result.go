package core

import "time"

// TypeFailure records that one tracked event type of an otherwise reachable
// repository could not be fetched. Repository-level availability is
// optimistic: a fetch with at least one succeeding type is still a success,
// and these diagnostics tell callers which types are missing.
type TypeFailure struct {
	Type    EventType
	Kind    ErrorKind
	Message string
}

// Failure records that an entire per-repository fetch failed.
type Failure struct {
	Repo    RepoKey
	Kind    ErrorKind
	Message string
}

// FetchResult is the per-subscription outcome of one fetch: either a
// populated event set (possibly with per-type diagnostics) or a Failure.
type FetchResult struct {
	Repo   RepoKey
	Label  string
	Events []Event

	// TypeFailures carries diagnostics for tracked types that failed while
	// at least one other type succeeded.
	TypeFailures []TypeFailure

	// Failure is non-nil when the fetch as a whole failed; Events is then
	// empty.
	Failure *Failure
}

// OK reports whether the fetch produced an event set.
func (r FetchResult) OK() bool {
	return r.Failure == nil
}

// RepoEvents is the successful slice of a batch for one repository.
type RepoEvents struct {
	Repo         RepoKey
	Label        string
	Events       []Event
	TypeFailures []TypeFailure
}

// EventsOfType returns this repository's events of one type, preserving
// upstream recency order.
func (r RepoEvents) EventsOfType(t EventType) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// BatchPayload aggregates one run. Every subscription passed into the batch
// appears in exactly one of Successes or Failures; both slices preserve
// subscription input order regardless of fetch completion order.
type BatchPayload struct {
	GeneratedAt time.Time
	Successes   []RepoEvents
	Failures    []Failure
}

// Success looks up the successful events for a repository.
func (p *BatchPayload) Success(key RepoKey) (RepoEvents, bool) {
	for _, re := range p.Successes {
		if re.Repo == key {
			return re, true
		}
	}
	return RepoEvents{}, false
}

// EventCount returns the total number of events across all successes.
func (p *BatchPayload) EventCount() int {
	n := 0
	for _, re := range p.Successes {
		n += len(re.Events)
	}
	return n
}

// Degraded reports whether the batch carries any repository-level or
// type-level failures.
func (p *BatchPayload) Degraded() bool {
	if len(p.Failures) > 0 {
		return true
	}
	for _, re := range p.Successes {
		if len(re.TypeFailures) > 0 {
			return true
		}
	}
	return false
}
