package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Tweaks []yamlTweak `yaml:"tweaks"`
	Batch  *yamlBatch  `yaml:"batch,omitempty"`
	Meta   yamlMeta    `yaml:"meta"`
}

// yamlTweak represents a tweak in YAML output.
type yamlTweak struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Summary    string `yaml:"summary,omitempty"`
	Category   string `yaml:"category"`
	NeedsAdmin bool   `yaml:"needs_admin"`
	OneWay     bool   `yaml:"one_way"`
	Applied    bool   `yaml:"applied"`
	AppliedAt  string `yaml:"applied_at,omitempty"`
}

// yamlBatchResult represents a per-tweak outcome in YAML output.
type yamlBatchResult struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Outcome string `yaml:"outcome"`
	Failure string `yaml:"failure,omitempty"`
	Reason  string `yaml:"reason,omitempty"`
}

// yamlBatch represents a completed batch in YAML output.
type yamlBatch struct {
	Op       string            `yaml:"op"`
	Summary  string            `yaml:"summary"`
	Duration string            `yaml:"duration"`
	Results  []yamlBatchResult `yaml:"results"`
}

// yamlMeta represents metadata in YAML output.
type yamlMeta struct {
	StatePath      string   `yaml:"state_path"`
	Elevated       bool     `yaml:"elevated"`
	TotalTweaks    int      `yaml:"total_tweaks"`
	Applied        int      `yaml:"applied"`
	UnknownEntries []string `yaml:"unknown_entries,omitempty"`
	Warnings       []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, d *Document) error {
	output := f.buildOutput(d)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Document to the YAML output structure.
func (f *YAMLFormatter) buildOutput(d *Document) yamlOutput {
	tweaks := make([]yamlTweak, len(d.Tweaks))
	for i, t := range d.Tweaks {
		tweaks[i] = yamlTweak{
			ID:         t.ID,
			Name:       t.Name,
			Summary:    t.Summary,
			Category:   t.Category,
			NeedsAdmin: t.NeedsAdmin,
			OneWay:     t.OneWay,
			Applied:    t.Applied,
			AppliedAt:  formatTimeString(t.AppliedAt),
		}
	}

	var batch *yamlBatch
	if d.Batch != nil {
		results := make([]yamlBatchResult, len(d.Batch.Results))
		for i, res := range d.Batch.Results {
			results[i] = yamlBatchResult{
				ID:      res.ID,
				Name:    res.Name,
				Outcome: res.Outcome,
				Failure: res.Failure,
				Reason:  res.Reason,
			}
		}
		batch = &yamlBatch{
			Op:       d.Batch.Op,
			Summary:  d.Batch.Summary,
			Duration: formatDurationString(d.Batch.Duration),
			Results:  results,
		}
	}

	meta := yamlMeta{
		StatePath:      d.StatePath,
		Elevated:       d.Elevated,
		TotalTweaks:    len(d.Tweaks),
		Applied:        d.AppliedCount(),
		UnknownEntries: d.Unknown,
		Warnings:       d.Warnings,
	}

	return yamlOutput{
		Tweaks: tweaks,
		Batch:  batch,
		Meta:   meta,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
