// Package github implements the upstream event transport on top of the
// GitHub REST API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/repo-sentinel/internal/config"
)

// NewFromConfig builds an authenticated transport client. A personal access
// token takes precedence; otherwise a GitHub App installation is used.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.GitHub.Token != "" {
		return newPATClient(ctx, cfg, logger), nil
	}
	return newInstallationClient(cfg, logger)
}

// newPATClient authenticates with a personal access token. This is the path
// used by the CLI and local development.
func newPATClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHub.Token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return NewClient(github.NewClient(tc), cfg.GitHub.RequestsPerSec, logger)
}

// newInstallationClient authenticates as a GitHub App installation, for
// service deployments that avoid long-lived personal tokens.
func newInstallationClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	tr, err := ghinstallation.NewKeyFromFile(
		http.DefaultTransport,
		cfg.GitHub.AppID,
		cfg.GitHub.InstallationID,
		cfg.GitHub.PrivateKeyPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	logger.Info("using GitHub App installation auth",
		"app_id", cfg.GitHub.AppID,
		"installation_id", cfg.GitHub.InstallationID,
	)
	return NewClient(github.NewClient(&http.Client{Transport: tr}), cfg.GitHub.RequestsPerSec, logger), nil
}
