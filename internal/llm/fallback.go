package llm

import (
	"strings"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// FallbackMarker is the literal phrase that identifies a report whose body
// was produced without the model.
const FallbackMarker = "AI summary unavailable"

// Fallback synthesizes a deterministic summary directly from the batch: a
// plain enumeration of events grouped by repository and type, no prose.
// It is the mandatory degradation path when the model cannot be reached.
func (s *Summarizer) Fallback(payload *core.BatchPayload) string {
	var b strings.Builder
	b.WriteString("> **" + FallbackMarker + "** — showing raw activity instead.\n\n")

	if len(payload.Successes) == 0 && len(payload.Failures) == 0 {
		b.WriteString("No subscriptions produced any data in this run.\n")
		return b.String()
	}

	b.WriteString(renderActivity(payload, s.maxEventsPerRepo))

	if note := renderFailureNote(payload); note != "" {
		b.WriteString("\n## Unavailable repositories\n\n")
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}
