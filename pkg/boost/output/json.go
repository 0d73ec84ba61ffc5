package output

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Tweaks []jsonTweak `json:"tweaks"`
	Batch  *jsonBatch  `json:"batch,omitempty"`
	Meta   jsonMeta    `json:"meta"`
}

// jsonTweak represents a tweak in JSON output.
type jsonTweak struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Summary    string `json:"summary,omitempty"`
	Category   string `json:"category"`
	NeedsAdmin bool   `json:"needs_admin"`
	OneWay     bool   `json:"one_way"`
	Applied    bool   `json:"applied"`
	AppliedAt  string `json:"applied_at,omitempty"`
}

// jsonBatchResult represents a per-tweak outcome in JSON output.
type jsonBatchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Outcome string `json:"outcome"`
	Failure string `json:"failure,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// jsonBatch represents a completed batch in JSON output.
type jsonBatch struct {
	Op       string            `json:"op"`
	Summary  string            `json:"summary"`
	Duration string            `json:"duration"`
	Results  []jsonBatchResult `json:"results"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	StatePath      string   `json:"state_path"`
	Elevated       bool     `json:"elevated"`
	TotalTweaks    int      `json:"total_tweaks"`
	Applied        int      `json:"applied"`
	UnknownEntries []string `json:"unknown_entries,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with tweaks, batch, and meta sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, d *Document) error {
	output := f.buildOutput(d)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Document to the JSON output structure.
func (f *JSONFormatter) buildOutput(d *Document) jsonOutput {
	tweaks := make([]jsonTweak, len(d.Tweaks))
	for i, t := range d.Tweaks {
		tweaks[i] = jsonTweak{
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

	var batch *jsonBatch
	if d.Batch != nil {
		results := make([]jsonBatchResult, len(d.Batch.Results))
		for i, res := range d.Batch.Results {
			results[i] = jsonBatchResult{
				ID:      res.ID,
				Name:    res.Name,
				Outcome: res.Outcome,
				Failure: res.Failure,
				Reason:  res.Reason,
			}
		}
		batch = &jsonBatch{
			Op:       d.Batch.Op,
			Summary:  d.Batch.Summary,
			Duration: formatDurationString(d.Batch.Duration),
			Results:  results,
		}
	}

	meta := jsonMeta{
		StatePath:      d.StatePath,
		Elevated:       d.Elevated,
		TotalTweaks:    len(d.Tweaks),
		Applied:        d.AppliedCount(),
		UnknownEntries: d.Unknown,
		Warnings:       d.Warnings,
	}

	return jsonOutput{
		Tweaks: tweaks,
		Batch:  batch,
		Meta:   meta,
	}
}

// formatTimeString formats a timestamp as RFC 3339 for JSON output.
func formatTimeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per line).
// For a status listing each tweak is written as a compact JSON object on its
// own line; after a batch each result is written instead. This format is
// suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, d *Document) error {
	if d.Batch != nil {
		for _, res := range d.Batch.Results {
			jr := jsonBatchResult{
				ID:      res.ID,
				Name:    res.Name,
				Outcome: res.Outcome,
				Failure: res.Failure,
				Reason:  res.Reason,
			}

			data, err := json.Marshal(jr)
			if err != nil {
				return err
			}
			w.Write(data)
			w.WriteByte('\n')
		}
		return nil
	}

	for _, t := range d.Tweaks {
		jt := jsonTweak{
			ID:         t.ID,
			Name:       t.Name,
			Summary:    t.Summary,
			Category:   t.Category,
			NeedsAdmin: t.NeedsAdmin,
			OneWay:     t.OneWay,
			Applied:    t.Applied,
			AppliedAt:  formatTimeString(t.AppliedAt),
		}

		data, err := json.Marshal(jt)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
