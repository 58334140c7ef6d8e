package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/repo-sentinel/internal/core"
	"github.com/sevigo/repo-sentinel/internal/runner"
	"github.com/sevigo/repo-sentinel/internal/util"
	"github.com/sevigo/repo-sentinel/internal/wire"
)

var verbose bool

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

var runCmd = &cobra.Command{
	Use:   "run [owner/repo]",
	Short: "Fetch recent activity and produce a summarized report",
	Long: `Fetch recent activity for all subscribed repositories, summarize it with
the configured LLM, and write the report to the output directory.

With a repository argument the run is restricted to that single subscription.

Examples:
  sentinel-cli run
  sentinel-cli run golang/go
  sentinel-cli run https://github.com/golang/go`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	var opts runner.RunOptions
	if len(args) == 1 {
		key, err := util.ParseRepoArg(args[0])
		if err != nil {
			return err
		}
		opts.Only = &key
	}

	titleColor.Println("Repo Sentinel - Activity Report")
	if opts.Only != nil {
		dimColor.Printf("   Scope: %s\n", opts.Only.String())
	}
	fmt.Println()

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: Check that your .env exists and is valid", err)
	}
	defer cleanup()

	result, err := appInstance.Coordinator.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, runner.ErrNoSubscriptions) {
			warnColor.Println("No subscriptions configured.")
			dimColor.Println("Tip: sentinel-cli subscriptions add owner/repo")
			return nil
		}
		return fmt.Errorf("run failed: %w", err)
	}

	printRunResult(result)
	if verbose {
		dimColor.Printf("\nTotal time: %s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func printRunResult(result *core.RunResult) {
	switch result.Status {
	case core.RunSucceeded:
		successColor.Println("Run succeeded.")
	case core.RunDegraded:
		warnColor.Println("Run completed with warnings.")
	default:
		errorColor.Println("Run failed.")
	}

	if result.Report != nil {
		dimColor.Printf("   Report: %s\n", result.Report.ID)
	}
	if result.DeliveryID != "" {
		dimColor.Printf("   Written to: %s\n", result.DeliveryID)
	}
	for _, w := range result.Warnings {
		warnColor.Printf("   ! %s\n", w)
	}
}
