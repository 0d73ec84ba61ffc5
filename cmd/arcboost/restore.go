package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/config"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

var restoreOnly []string

var restoreCmd = &cobra.Command{
	Use:   "restore [id...]",
	Short: "Restore applied tweaks to their recorded prior state",
	Long: `Restore applied tweaks to the state recorded when they were applied.

With no arguments every recorded tweak is restored, in the order the
tweaks were applied. Pass ids (or --only) to restore a subset; ids with
no record entry are ignored. One-way tweaks are never recorded, so there
is nothing for restore to put back.

A tweak that fails to restore keeps its record entry, so a later restore
can retry it.`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringSliceVar(&restoreOnly, "only", nil, "restore only these tweak ids")

	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	ids := append([]string{}, args...)
	ids = append(ids, restoreOnly...)

	st := eng.Store()
	candidates := restoreCandidates(st, ids)

	// An empty candidate set is not an error; run the (empty) batch so
	// formatters still emit a well-formed document.
	if len(candidates) > 0 && !viper.GetBool("yes") && cfg.Confirm {
		if !confirmRestore(eng.Catalog(), st, candidates) {
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

	rep, runErr := eng.Restore(ctx, ids)
	if rep != nil {
		if !rep.NothingToRestore() {
			journalBatch(rep)
		}
		if err := renderBatch(eng, rep); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("restore stopped early: %w", runErr)
	}

	if counts := rep.Counts(); counts.Failed > 0 {
		return fmt.Errorf("%d of %d tweaks failed to restore", counts.Failed, len(rep.Results))
	}

	return nil
}

// restoreCandidates returns the record entries the batch will touch, in
// applied order. An empty ids slice means all of them.
func restoreCandidates(st *state.Store, ids []string) []string {
	recorded := st.IDs()
	if len(ids) == 0 {
		return recorded
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	var candidates []string
	for _, id := range recorded {
		if _, ok := want[id]; ok {
			candidates = append(candidates, id)
		}
	}
	return candidates
}

// confirmRestore lists the record entries about to be restored and asks
// for a y/N answer.
func confirmRestore(cat *catalog.Catalog, st *state.Store, candidates []string) bool {
	fmt.Println("About to restore:")
	for _, id := range candidates {
		name := "(not in this build's catalog)"
		if tw, ok := cat.Get(id); ok {
			name = tw.Name
		}
		age := ""
		if entry, err := st.Get(id); err == nil {
			age = "  applied " + humanize.Time(entry.AppliedAt)
		}
		fmt.Printf("  %-26s %s%s\n", id, name, age)
	}

	var oneWay []string
	for _, tw := range cat.List() {
		if !tw.Reversible {
			oneWay = append(oneWay, tw.ID)
		}
	}
	if len(oneWay) > 0 {
		fmt.Printf("\nOne-way tweaks are never recorded and cannot be restored: %s\n", strings.Join(oneWay, ", "))
	}

	return promptYesNo(fmt.Sprintf("Restore %d tweaks?", len(candidates)))
}
