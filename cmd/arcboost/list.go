package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/config"
	"github.com/jamesainslie/arcboost/pkg/boost/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the tweak catalog",
	Long: `List every tweak arcboost knows, grouped by category, with markers for
tweaks that need administrator rights, tweaks that cannot be restored,
and tweaks currently applied.

Use --category, --match, or --applied to narrow the listing.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&appliedOnly, "applied", false, "show only applied tweaks")
	_ = viper.BindPFlag("applied", listCmd.Flags().Lookup("applied"))

	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	f, err := buildFilter()
	if err != nil {
		return err
	}

	st := eng.Store()
	tweaks := f.Apply(eng.Catalog().List(), st.Has)

	doc := &output.Document{
		Tweaks:    tweakInfos(tweaks, st),
		StatePath: st.Path(),
		Elevated:  currentGate().IsElevated(),
		Unknown:   unknownEntries(eng.Catalog(), st),
	}

	return renderDocument(doc)
}
