package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/arcboost/pkg/boost/config"
	"github.com/jamesainslie/arcboost/pkg/boost/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past apply and restore batches",
	Long: `View the journal of completed apply and restore batches.

The journal is history only: restore works from the applied-tweak
record, not from here.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded batch in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Prune journal entries past the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of batches to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getJournal opens the journal from configuration, failing when it is
// disabled.
func getJournal() (*journal.Journal, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, fmt.Errorf("the journal is disabled in configuration")
	}
	return j, nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	entries, err := j.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No batches recorded yet.")
		printInfo("Run 'arcboost apply' to apply tweaks.")
		return nil
	}

	fmt.Printf("\n%-38s  %-8s  %-18s  %s\n", "ID", "OP", "WHEN", "SUMMARY")
	fmt.Println(strings.Repeat("-", 100))

	for _, entry := range entries {
		fmt.Printf("%-38s  %-8s  %-18s  %s\n",
			truncateString(entry.ID, 38),
			entry.Op,
			humanize.Time(entry.Time),
			entry.Summary,
		)
	}

	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("\nShowing %d batches. Use 'arcboost history show <id>' for details.\n", len(entries))

	return nil
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	entry, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get batch: %w", err)
	}

	fmt.Println("\nBatch Details")
	fmt.Println(strings.Repeat("=", 64))
	fmt.Printf("ID:       %s\n", entry.ID)
	fmt.Printf("When:     %s\n", entry.Time.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Op:       %s\n", entry.Op)
	fmt.Printf("Summary:  %s\n", entry.Summary)

	if len(entry.Results) > 0 {
		fmt.Println("\nResults:")
		fmt.Println(strings.Repeat("-", 64))
		for _, res := range entry.Results {
			detail := res.TweakID
			if res.Name != "" {
				detail += "  " + res.Name
			}
			if res.Reason != "" {
				detail += "  (" + res.Reason + ")"
			}
			fmt.Printf("%-10s  %s\n", res.Outcome, detail)
		}
	}

	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if j == nil {
		printInfo("The journal is disabled; nothing to clean.")
		return nil
	}
	defer func() { _ = j.Close() }()

	retentionDays := cfg.Journal.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printVerbose("pruning batches older than %d days", retentionDays)

	pruned, err := j.Prune(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to prune journal: %w", err)
	}

	printInfo("Removed %d batches older than %d days.", pruned, retentionDays)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." when truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
