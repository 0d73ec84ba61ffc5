package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/cmd/arcboost/tui"
	"github.com/jamesainslie/arcboost/pkg/boost/config"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive tweak picker",
	Long: `Launch the interactive terminal UI: browse the catalog, pick tweaks,
apply them, and restore them, with live per-tweak results and a log
pane.

Running arcboost with no arguments does the same thing.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runInteractiveTUI()
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runInteractiveTUI wires the engine into the TUI and hands it the
// terminal.
func runInteractiveTUI() error {
	// Re-initialize logging for TUI mode: the log pane replaces the
	// console writer.
	if err := initTUILogging(); err != nil {
		return fmt.Errorf("failed to initialize TUI logging: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		printVerbose("journal unavailable: %v", err)
		j = nil
	}
	if j != nil {
		defer func() { _ = j.Close() }()
	}

	return tui.Run(tui.Options{
		Engine:   eng,
		Journal:  j,
		Version:  version,
		Elevated: currentGate().IsElevated(),
		Simulate: viper.GetBool("simulate"),
	})
}
