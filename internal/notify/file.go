// Package notify delivers finished reports. The only built-in channel
// writes Markdown files to a local directory.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sevigo/repo-sentinel/internal/core"
)

// FileNotifier persists reports as Markdown files under a fixed directory.
// The returned delivery id is the written path.
type FileNotifier struct {
	dir    string
	logger *slog.Logger
}

var _ core.Notifier = (*FileNotifier)(nil)

func NewFileNotifier(dir string, logger *slog.Logger) *FileNotifier {
	return &FileNotifier{dir: dir, logger: logger}
}

func (n *FileNotifier) Deliver(_ context.Context, report *core.Report) (string, error) {
	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %s: %w", n.dir, err)
	}
	path := filepath.Join(n.dir, report.Filename())
	if err := os.WriteFile(path, []byte(report.Body), 0o644); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	n.logger.Info("report written", "path", path, "report_id", report.ID)
	return path, nil
}
