package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/config"
	"github.com/jamesainslie/arcboost/pkg/boost/engine"
	"github.com/jamesainslie/arcboost/pkg/boost/output"
)

var applyCmd = &cobra.Command{
	Use:   "apply [id...]",
	Short: "Apply tweaks",
	Long: `Apply the named tweaks, or a selection chosen with --all, --category,
or --match.

Every reversible tweak records the prior value of each setting it
touches before writing, so restore can put it back exactly. Tweaks that
need administrator rights are skipped, not half-applied, when the
process is not elevated.

Examples:
  arcboost apply game_mode_enable disable_nagle
  arcboost apply --category Network
  arcboost apply --all --yes
  arcboost apply --all --dry-run`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&allTweaks, "all", false, "apply every tweak in the catalog")
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be applied without changing anything")

	_ = viper.BindPFlag("all", applyCmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("dry_run", applyCmd.Flags().Lookup("dry-run"))

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	ids, err := selectApplyIDs(eng.Catalog(), args)
	if err != nil {
		return err
	}

	if viper.GetBool("dry_run") {
		return renderApplyPlan(eng, ids)
	}

	if !viper.GetBool("yes") && cfg.Confirm {
		if !confirmApply(eng.Catalog(), ids, currentGate().IsElevated()) {
			printInfo("Aborted.")
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printVerbose("interrupted, stopping after the current tweak")
		cancel()
	}()

	rep, runErr := eng.Apply(ctx, ids)
	if rep != nil {
		journalBatch(rep)
		if err := renderBatch(eng, rep); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("apply stopped early: %w", runErr)
	}

	if counts := rep.Counts(); counts.Failed > 0 {
		return fmt.Errorf("%d of %d tweaks failed", counts.Failed, len(rep.Results))
	}

	return nil
}

// selectApplyIDs resolves the requested tweak set. Explicit ids win;
// otherwise --all, --category, and --match select from the catalog.
// Unknown explicit ids pass through for the engine to report.
func selectApplyIDs(cat *catalog.Catalog, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	filtered := viper.GetString("category") != "" || viper.GetString("match") != ""
	if !viper.GetBool("all") && !filtered {
		return nil, fmt.Errorf("no tweaks selected: pass tweak ids or use --all, --category, or --match")
	}

	f, err := buildFilter()
	if err != nil {
		return nil, err
	}

	tweaks := f.Apply(cat.List(), nil)
	if len(tweaks) == 0 {
		return nil, fmt.Errorf("no tweaks match the selection")
	}

	ids := make([]string, 0, len(tweaks))
	for _, tw := range tweaks {
		ids = append(ids, tw.ID)
	}
	return ids, nil
}

// renderApplyPlan shows what apply would do without running anything.
func renderApplyPlan(eng *engine.Engine, ids []string) error {
	cat := eng.Catalog()
	st := eng.Store()

	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	var tweaks []catalog.Tweak
	for _, tw := range cat.List() {
		if _, ok := requested[tw.ID]; ok {
			tweaks = append(tweaks, tw)
		}
	}

	warnings := []string{"dry run: nothing was changed"}
	for _, id := range ids {
		if !cat.Has(id) {
			warnings = append(warnings, fmt.Sprintf("unknown tweak id %q", id))
		}
	}

	doc := &output.Document{
		Tweaks:    tweakInfos(tweaks, st),
		StatePath: st.Path(),
		Elevated:  currentGate().IsElevated(),
		Warnings:  warnings,
	}
	return renderDocument(doc)
}

// confirmApply lists what is about to happen and asks for a y/N answer.
func confirmApply(cat *catalog.Catalog, ids []string, elevated bool) bool {
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	fmt.Println("About to apply:")
	willSkip := 0
	for _, tw := range cat.List() {
		if _, ok := requested[tw.ID]; !ok {
			continue
		}
		var marks []string
		if tw.RequiresElevation && !elevated {
			marks = append(marks, "needs admin: will be skipped")
			willSkip++
		}
		if !tw.Reversible {
			marks = append(marks, "one-way: cannot be restored")
		}
		line := fmt.Sprintf("  %-26s %s", tw.ID, tw.Name)
		if len(marks) > 0 {
			line += "  [" + strings.Join(marks, "; ") + "]"
		}
		fmt.Println(line)
	}

	if willSkip > 0 {
		fmt.Printf("\nNot running as administrator: %d of %d tweaks will be skipped.\n", willSkip, len(ids))
	}

	return promptYesNo(fmt.Sprintf("Apply %d tweaks?", len(ids)))
}

// promptYesNo asks a y/N question on stdin. Anything but y or yes is no.
func promptYesNo(question string) bool {
	fmt.Printf("\n%s [y/N]: ", question)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
