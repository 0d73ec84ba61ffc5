package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/engine"
	"github.com/jamesainslie/arcboost/pkg/boost/output"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

// getFormatter resolves the configured output formatter. The template
// format requires --template.
func getFormatter() (output.Formatter, error) {
	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = "pretty"
	}

	if outFormat == "template" {
		tmplStr := viper.GetString("template")
		if tmplStr == "" {
			return nil, fmt.Errorf("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(tmplStr), nil
	}

	formatter, err := output.Get(outFormat)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	return formatter, nil
}

// renderDocument formats a document with the configured formatter and
// prints it to stdout.
func renderDocument(doc *output.Document) error {
	formatter, err := getFormatter()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, doc); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Print(buf.String())
	return nil
}

// tweakInfos combines catalog tweaks with their recorded applied state
// into output rows.
func tweakInfos(tweaks []catalog.Tweak, st *state.Store) []output.TweakInfo {
	infos := make([]output.TweakInfo, 0, len(tweaks))
	for _, tw := range tweaks {
		info := output.TweakInfo{
			ID:         tw.ID,
			Name:       tw.Name,
			Summary:    tw.Summary,
			Category:   string(tw.Category),
			NeedsAdmin: tw.RequiresElevation,
			OneWay:     !tw.Reversible,
		}
		if entry, err := st.Get(tw.ID); err == nil {
			info.Applied = true
			info.AppliedAt = entry.AppliedAt
		}
		infos = append(infos, info)
	}
	return infos
}

// unknownEntries returns record ids that no catalog tweak claims. They
// stay in the record untouched; listing them is all arcboost does.
func unknownEntries(cat *catalog.Catalog, st *state.Store) []string {
	var unknown []string
	for _, id := range st.IDs() {
		if !cat.Has(id) {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// batchInfo converts an engine report into its output form. Skipped
// results carry no error, so their reason is synthesized here.
func batchInfo(rep *engine.Report) *output.BatchInfo {
	results := make([]output.BatchResult, 0, len(rep.Results))
	for _, res := range rep.Results {
		br := output.BatchResult{
			ID:      res.ID,
			Name:    res.Name,
			Outcome: string(res.Outcome),
			Failure: string(res.Failure),
			Reason:  res.Reason(),
		}
		if res.Outcome == engine.OutcomeSkipped {
			br.Reason = "requires administrator"
		}
		results = append(results, br)
	}

	return &output.BatchInfo{
		Op:       string(rep.Op),
		Summary:  rep.Summary(),
		Duration: rep.Duration(),
		Results:  results,
	}
}

// renderBatch prints a completed batch through the configured formatter.
func renderBatch(eng *engine.Engine, rep *engine.Report) error {
	st := eng.Store()
	doc := &output.Document{
		Batch:     batchInfo(rep),
		StatePath: st.Path(),
		Elevated:  currentGate().IsElevated(),
		Unknown:   unknownEntries(eng.Catalog(), st),
	}
	return renderDocument(doc)
}
