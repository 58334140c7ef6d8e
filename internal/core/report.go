package core

import "time"

// Report is the final artifact of a run. It is created once by the
// assembler, is immutable, and ownership passes to the notifier for
// persistence; the pipeline never reads reports back.
type Report struct {
	ID              string
	Body            string
	FailureManifest []Failure
	CreatedAt       time.Time

	// Scope is nil for an all-subscriptions run, or names the single
	// repository the run was restricted to.
	Scope *RepoKey

	// AIGenerated is false when the deterministic fallback produced the
	// body because the LLM was unreachable.
	AIGenerated bool
}

// Filename returns the canonical artifact name,
// report_<owner>_<repo-or-"all">_<YYYYMMDD_HHMMSS>.md. The notifier decides
// the directory; the name itself is fixed here.
func (r *Report) Filename() string {
	scope := "all"
	if r.Scope != nil {
		scope = r.Scope.Slug()
	}
	return "report_" + scope + "_" + r.ID + ".md"
}

// RunStatus is the discriminated outcome of one pipeline run.
type RunStatus string

const (
	// RunSucceeded means every fetch succeeded, the AI summary was
	// produced, and the report was delivered.
	RunSucceeded RunStatus = "succeeded"

	// RunDegraded means a report was still produced and delivered, but
	// some fetches failed, the AI fallback was used, or delivery raised a
	// warning.
	RunDegraded RunStatus = "degraded"

	// RunFailed means the pipeline hit an internal invariant violation and
	// produced no report.
	RunFailed RunStatus = "failed"
)

// RunResult is returned to the trigger caller (CLI, HTTP, or scheduler).
type RunResult struct {
	Status     RunStatus
	Report     *Report
	DeliveryID string
	Warnings   []string
}

// RunRecord is the persisted trace of a completed run.
type RunRecord struct {
	ID         string    `db:"id" json:"id"`
	Status     string    `db:"status" json:"status"`
	Succeeded  int       `db:"succeeded" json:"succeeded"`
	Failed     int       `db:"failed" json:"failed"`
	DeliveryID string    `db:"delivery_id" json:"delivery_id"`
	AISummary  bool      `db:"ai_summary" json:"ai_summary"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
