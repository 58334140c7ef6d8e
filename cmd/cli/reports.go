package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sevigo/repo-sentinel/internal/core"
	"github.com/sevigo/repo-sentinel/internal/wire"
)

var reportsLimit int

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect past runs and their reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [report-file]",
	Short: "Render a report in the terminal",
	Long: `Render a generated report file as styled Markdown. Without an argument the
newest report in the output directory is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReportsShow,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reportsListCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 20, "Maximum number of runs to show")

	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReportsList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	recs, err := appInstance.Store.ListRuns(ctx, reportsLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		dimColor.Println("No runs recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"When", "Status", "OK", "Failed", "AI", "Report"})
	for _, rec := range recs {
		table.Append([]string{
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			colorizeStatus(rec.Status),
			strconv.Itoa(rec.Succeeded),
			strconv.Itoa(rec.Failed),
			yesNo(rec.AISummary),
			rec.DeliveryID,
		})
	}
	table.Render()
	return nil
}

func runReportsShow(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		path, err = newestReport(appInstance.Cfg.Report.OutputDir)
		if err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading report %s: %w", path, err)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := renderer.Render(string(data))
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	fmt.Print(out)
	return nil
}

// newestReport finds the most recently written report file in dir.
func newestReport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading report directory %s: %w", dir, err)
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "report_") || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = e.Name()
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no reports found in %s", dir)
	}
	return filepath.Join(dir, newest), nil
}

func colorizeStatus(status string) string {
	switch status {
	case string(core.RunSucceeded):
		return successColor.Sprint(status)
	case string(core.RunDegraded):
		return warnColor.Sprint(status)
	default:
		return errorColor.Sprint(status)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
