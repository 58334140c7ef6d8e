package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/repo-sentinel/internal/config"
	"github.com/sevigo/repo-sentinel/internal/core"
)

// attemptOutcome classifies one model call for the retry loop.
type attemptOutcome int

const (
	attemptOK attemptOutcome = iota
	attemptRetry
	attemptFatal
)

// classifyAttempt decides whether a failed model call is worth retrying.
// Rate limits, timeouts, and transient upstream errors are; auth failures
// and malformed requests are not.
func classifyAttempt(err error) attemptOutcome {
	if err == nil {
		return attemptOK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return attemptRetry
	}
	if core.KindOf(err).Retryable() {
		return attemptRetry
	}
	return attemptFatal
}

// backoffDelay returns the exponential delay before the given retry.
// Attempts are 1-based; the first retry waits base, the second 2*base, and
// so on.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// Summarizer turns a BatchPayload into a Markdown report body. The model
// call is retried with exponential backoff on retryable failures; when
// attempts are exhausted the Summarizer falls back to a deterministic
// enumeration of the payload, so report generation never hard-fails on an
// unreachable model.
type Summarizer struct {
	model   llms.Model
	prompts *PromptManager
	cfg     config.LLMConfig

	maxEventsPerRepo int
	window           time.Duration
	logger           *slog.Logger

	// call and sleep are swapped out in tests.
	call  func(ctx context.Context, prompt string) (string, error)
	sleep func(time.Duration)
}

// NewSummarizer creates a Summarizer from the application configuration.
func NewSummarizer(model llms.Model, prompts *PromptManager, cfg *config.Config, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		model:            model,
		prompts:          prompts,
		cfg:              cfg.LLM,
		maxEventsPerRepo: cfg.Fetch.MaxEventsPerRepo,
		window:           cfg.Window(),
		logger:           logger,
		call: func(ctx context.Context, prompt string) (string, error) {
			return model.Call(ctx, prompt)
		},
		sleep: time.Sleep,
	}
}

// Summarize produces the report body for one batch. The second return
// value reports whether the body came from the model; false means the
// deterministic fallback was used.
func (s *Summarizer) Summarize(ctx context.Context, payload *core.BatchPayload) (string, bool) {
	// Nothing succeeded, so there is nothing for the model to say; the
	// fallback already renders the failure manifest.
	if len(payload.Successes) == 0 {
		return s.Fallback(payload), false
	}

	prompt, err := s.buildPrompt(payload)
	if err != nil {
		s.logger.Error("failed to build summary prompt", "error", err)
		return s.Fallback(payload), false
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		body, err := s.callModel(ctx, prompt)
		switch classifyAttempt(err) {
		case attemptOK:
			s.logger.Info("summary generated", "attempt", attempt)
			return body, true
		case attemptFatal:
			s.logger.Error("summary call failed fatally, using fallback", "attempt", attempt, "error", err)
			return s.Fallback(payload), false
		case attemptRetry:
			s.logger.Warn("summary call failed", "attempt", attempt, "max_attempts", s.cfg.MaxAttempts, "error", err)
			if attempt < s.cfg.MaxAttempts {
				s.sleep(backoffDelay(s.cfg.BaseBackoff, attempt))
			}
		}
	}

	s.logger.Error("summary attempts exhausted, using fallback", "attempts", s.cfg.MaxAttempts)
	return s.Fallback(payload), false
}

func (s *Summarizer) buildPrompt(payload *core.BatchPayload) (string, error) {
	data := struct {
		GeneratedAt string
		Window      string
		Activity    string
		FailureNote string
	}{
		GeneratedAt: payload.GeneratedAt.UTC().Format(time.RFC3339),
		Window:      s.window.String(),
		Activity:    renderActivity(payload, s.maxEventsPerRepo),
		FailureNote: renderFailureNote(payload),
	}
	return s.prompts.Render(SummaryPrompt, ModelProvider(s.cfg.Provider), data)
}

// callModel wraps one model call with the per-attempt timeout, separate
// from the retry backoff delay.
func (s *Summarizer) callModel(ctx context.Context, prompt string) (string, error) {
	cctx := ctx
	var cancel context.CancelFunc
	if s.cfg.CallTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	body, err := s.call(cctx, prompt)
	if err != nil {
		return "", err
	}
	if body == "" {
		return "", fmt.Errorf("model returned an empty summary")
	}
	return body, nil
}
