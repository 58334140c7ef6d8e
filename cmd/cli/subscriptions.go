package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sevigo/repo-sentinel/internal/core"
	"github.com/sevigo/repo-sentinel/internal/storage"
	"github.com/sevigo/repo-sentinel/internal/util"
	"github.com/sevigo/repo-sentinel/internal/wire"
)

var (
	subLabel string
	subTrack []string
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "Manage the list of watched repositories",
}

var subsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all subscribed repositories",
	RunE:  runSubsList,
}

var subsAddCmd = &cobra.Command{
	Use:   "add [owner/repo]",
	Short: "Subscribe to a repository",
	Long: `Subscribe to a repository by "owner/repo" or GitHub URL.

Examples:
  sentinel-cli subscriptions add golang/go
  sentinel-cli subscriptions add golang/go --track releases,commits --label "Go"`,
	Args: cobra.ExactArgs(1),
	RunE: runSubsAdd,
}

var subsRemoveCmd = &cobra.Command{
	Use:   "remove [owner/repo]",
	Short: "Unsubscribe from a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubsRemove,
}

var subsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import subscriptions from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubsImport,
}

var subsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export subscriptions to a YAML file, or stdout if no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSubsExport,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	subsAddCmd.Flags().StringVarP(&subLabel, "label", "l", "", "Display label for the repository")
	subsAddCmd.Flags().StringSliceVar(&subTrack, "track", nil, "Event types to track (releases, issues, pull_requests, commits)")

	subscriptionsCmd.AddCommand(subsListCmd, subsAddCmd, subsRemoveCmd, subsImportCmd, subsExportCmd)
	rootCmd.AddCommand(subscriptionsCmd)
}

func runSubsList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	subs, err := appInstance.Store.ListSubscriptions(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		dimColor.Println("No subscriptions yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repository", "Label", "Track"})
	for _, sub := range subs {
		tracked := make([]string, 0, len(sub.Track))
		for _, t := range sub.Track {
			tracked = append(tracked, string(t))
		}
		table.Append([]string{sub.Key().String(), sub.Label, strings.Join(tracked, ", ")})
	}
	table.Render()
	return nil
}

func runSubsAdd(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	key, err := util.ParseRepoArg(args[0])
	if err != nil {
		return err
	}

	sub := core.Subscription{Owner: key.Owner, Repo: key.Repo, Label: subLabel}
	if len(subTrack) == 0 {
		sub.Track = core.DefaultEventTypes()
	} else {
		for _, raw := range subTrack {
			t, err := core.ParseEventType(raw)
			if err != nil {
				return err
			}
			sub.Track = append(sub.Track, t)
		}
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	if err := appInstance.Store.AddSubscription(ctx, sub); err != nil {
		if errors.Is(err, storage.ErrAlreadySubscribed) {
			warnColor.Printf("%s is already subscribed.\n", key.String())
			return nil
		}
		return err
	}
	successColor.Printf("Subscribed to %s.\n", key.String())
	return nil
}

func runSubsRemove(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	key, err := util.ParseRepoArg(args[0])
	if err != nil {
		return err
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	removed, err := appInstance.Store.RemoveSubscription(ctx, key)
	if err != nil {
		return err
	}
	if !removed {
		warnColor.Printf("%s was not subscribed.\n", key.String())
		return nil
	}
	successColor.Printf("Unsubscribed from %s.\n", key.String())
	return nil
}

// subscriptionFile is the YAML import/export format.
type subscriptionFile struct {
	Subscriptions []core.Subscription `yaml:"subscriptions"`
}

func runSubsImport(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	var file subscriptionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	var added, skipped int
	for _, sub := range file.Subscriptions {
		if sub.Owner == "" || sub.Repo == "" {
			return fmt.Errorf("subscription entry missing owner or repo")
		}
		if len(sub.Track) == 0 {
			sub.Track = core.DefaultEventTypes()
		}
		if err := appInstance.Store.AddSubscription(ctx, sub); err != nil {
			if errors.Is(err, storage.ErrAlreadySubscribed) {
				skipped++
				continue
			}
			return err
		}
		added++
	}
	successColor.Printf("Imported %d subscriptions (%d already present).\n", added, skipped)
	return nil
}

func runSubsExport(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	subs, err := appInstance.Store.ListSubscriptions(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(subscriptionFile{Subscriptions: subs})
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	successColor.Printf("Exported %d subscriptions to %s.\n", len(subs), args[0])
	return nil
}
