package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/config"
	"github.com/jamesainslie/arcboost/pkg/boost/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied-tweak record",
	Long: `Show which tweaks are currently recorded as applied, when each one was
applied, and where the record lives.

Record entries written by a different arcboost build are listed as
unknown. They are preserved untouched; this build just cannot restore
them.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	st := eng.Store()
	applied := catalog.NewFilter(catalog.WithApplied(true)).Apply(eng.Catalog().List(), st.Has)

	doc := &output.Document{
		Tweaks:    tweakInfos(applied, st),
		StatePath: st.Path(),
		Elevated:  currentGate().IsElevated(),
		Unknown:   unknownEntries(eng.Catalog(), st),
	}

	return renderDocument(doc)
}
