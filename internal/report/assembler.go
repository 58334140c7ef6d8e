package report

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sevigo/repo-sentinel/internal/core"
)

const idLayout = "20060102_150405"

// Assembler turns a summary body and batch diagnostics into a finished
// report with a unique, sortable identifier.
type Assembler struct {
	now func() time.Time

	mu     sync.Mutex
	lastID string
	seq    int
}

func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// Assemble builds the report around the summary body: a metadata header,
// the body itself, and a failure manifest when any repository could not be
// fetched. Identifiers generated within the same second get a numeric
// suffix so they never collide.
func (a *Assembler) Assemble(body string, payload *core.BatchPayload, scope *core.RepoKey, aiGenerated bool) *core.Report {
	createdAt := a.now().UTC()
	id := a.nextID(createdAt)

	var b strings.Builder
	b.WriteString("# Repository Activity Report\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", createdAt.Format("2006-01-02 15:04:05 (UTC)"))
	if scope != nil {
		fmt.Fprintf(&b, "- Scope: %s\n", scope.String())
	}
	fmt.Fprintf(&b, "- Repositories: %d succeeded, %d failed\n", len(payload.Successes), len(payload.Failures))
	if !aiGenerated {
		b.WriteString("- Summary mode: raw activity (" + "AI summary unavailable" + ")\n")
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")

	if manifest := renderManifest(payload.Failures); manifest != "" {
		b.WriteString("\n---\n\n## Fetch failures\n\n")
		b.WriteString(manifest)
	}

	return &core.Report{
		ID:              id,
		Body:            b.String(),
		FailureManifest: payload.Failures,
		CreatedAt:       createdAt,
		Scope:           scope,
		AIGenerated:     aiGenerated,
	}
}

// nextID keeps a per-process sequence so two reports assembled within the
// same second still get distinct ids.
func (a *Assembler) nextID(t time.Time) string {
	base := t.Format(idLayout)

	a.mu.Lock()
	defer a.mu.Unlock()
	if base == a.lastID {
		a.seq++
		return fmt.Sprintf("%s_%d", base, a.seq)
	}
	a.lastID = base
	a.seq = 0
	return base
}

func renderManifest(failures []core.Failure) string {
	if len(failures) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&b, "- **%s**: %s (%s)\n", f.Repo.String(), f.Message, f.Kind)
	}
	return b.String()
}
