package llm

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// renderActivity produces the compact structured rendering of a batch that
// is embedded in the prompt and reused by the deterministic fallback:
// grouped by repository, then by event type, most recent first, truncated
// per repository to maxPerRepo events.
func renderActivity(payload *core.BatchPayload, maxPerRepo int) string {
	var b strings.Builder
	for _, re := range payload.Successes {
		fmt.Fprintf(&b, "## %s (%s)\n\n", sanitizeLine(re.Label), re.Repo)

		if len(re.Events) == 0 {
			b.WriteString("No activity in this window.\n\n")
			continue
		}

		remaining := maxPerRepo
		truncated := false
		for _, t := range core.AllEventTypes() {
			events := re.EventsOfType(t)
			if len(events) == 0 {
				continue
			}
			if remaining <= 0 {
				truncated = true
				break
			}
			fmt.Fprintf(&b, "### %s\n\n", t.Title())
			for _, ev := range events {
				if remaining <= 0 {
					truncated = true
					break
				}
				b.WriteString(renderEventLine(ev))
				remaining--
			}
			b.WriteString("\n")
		}
		if truncated {
			fmt.Fprintf(&b, "_(older events omitted; showing the %d most recent per repository)_\n\n", maxPerRepo)
		}

		for _, tf := range re.TypeFailures {
			fmt.Fprintf(&b, "_%s unavailable: %s_\n\n", tf.Type.Title(), tf.Kind)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// renderEventLine renders one event as a single Markdown bullet. Titles are
// sanitized so upstream content cannot break out of the list structure.
func renderEventLine(ev core.Event) string {
	var meta []string
	if ev.Author != "" {
		meta = append(meta, "by "+sanitizeLine(ev.Author))
	}
	if !ev.Timestamp.IsZero() {
		meta = append(meta, ev.Timestamp.UTC().Format("2006-01-02 15:04"))
	}
	if state, ok := ev.Extra["state"]; ok && state != "" {
		meta = append(meta, state)
	}

	line := fmt.Sprintf("- `%s` %s", sanitizeLine(ev.ID), sanitizeLine(ev.Title))
	if len(meta) > 0 {
		line += " (" + strings.Join(meta, ", ") + ")"
	}
	return line + "\n"
}

// renderFailureNote enumerates repository-level fetch failures for the
// prompt and the report's self-description.
func renderFailureNote(payload *core.BatchPayload) string {
	if len(payload.Failures) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range payload.Failures {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", f.Repo, f.Kind, sanitizeLine(f.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

// sanitizeLine strips control characters from upstream text so embedded
// titles and messages cannot corrupt the Markdown structure of a report.
func sanitizeLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
