package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repo-sentinel/internal/core"
)

func fixedAssembler(t time.Time) *Assembler {
	a := NewAssembler()
	a.now = func() time.Time { return t }
	return a
}

func emptyPayload() *core.BatchPayload {
	return &core.BatchPayload{GeneratedAt: time.Now().UTC()}
}

func TestAssembleReportIDAndHeader(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	a := fixedAssembler(at)

	payload := &core.BatchPayload{
		GeneratedAt: at,
		Successes: []core.RepoEvents{
			{Repo: core.RepoKey{Owner: "golang", Repo: "go"}, Label: "Go"},
		},
	}
	rep := a.Assemble("The summary body.", payload, nil, true)

	assert.Equal(t, "20260115_083000", rep.ID)
	assert.Equal(t, "report_all_20260115_083000.md", rep.Filename())
	assert.True(t, rep.AIGenerated)
	assert.Contains(t, rep.Body, "The summary body.")
	assert.Contains(t, rep.Body, "1 succeeded, 0 failed")
	assert.NotContains(t, rep.Body, "AI summary unavailable")
	assert.Empty(t, rep.FailureManifest)
}

func TestAssembleSameSecondGetsDisambiguator(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	a := fixedAssembler(at)

	first := a.Assemble("a", emptyPayload(), nil, true)
	second := a.Assemble("b", emptyPayload(), nil, true)
	third := a.Assemble("c", emptyPayload(), nil, true)

	assert.Equal(t, "20260115_083000", first.ID)
	assert.Equal(t, "20260115_083000_1", second.ID)
	assert.Equal(t, "20260115_083000_2", third.ID)
}

func TestAssembleNewSecondResetsSequence(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	a := fixedAssembler(at)

	_ = a.Assemble("a", emptyPayload(), nil, true)
	_ = a.Assemble("b", emptyPayload(), nil, true)

	a.now = func() time.Time { return at.Add(time.Second) }
	next := a.Assemble("c", emptyPayload(), nil, true)

	assert.Equal(t, "20260115_083001", next.ID)
}

func TestAssembleScopedReport(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	a := fixedAssembler(at)

	scope := &core.RepoKey{Owner: "golang", Repo: "go"}
	rep := a.Assemble("body", emptyPayload(), scope, true)

	assert.Equal(t, "report_golang_go_20260115_083000.md", rep.Filename())
	assert.Contains(t, rep.Body, "Scope: golang/go")
}

func TestAssembleFailureManifest(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	a := fixedAssembler(at)

	payload := &core.BatchPayload{
		GeneratedAt: at,
		Failures: []core.Failure{
			{Repo: core.RepoKey{Owner: "org", Repo: "gone"}, Kind: core.KindNotFound, Message: "repository not found"},
			{Repo: core.RepoKey{Owner: "org", Repo: "slow"}, Kind: core.KindTimeout, Message: "fetch timed out"},
		},
	}
	rep := a.Assemble("body", payload, nil, false)

	require.Len(t, rep.FailureManifest, 2)
	assert.Contains(t, rep.Body, "Fetch failures")
	assert.Contains(t, rep.Body, "org/gone")
	assert.Contains(t, rep.Body, "org/slow")
	assert.Contains(t, rep.Body, "0 succeeded, 2 failed")
	// Fallback mode is called out in the header.
	assert.Contains(t, rep.Body, "AI summary unavailable")
}
