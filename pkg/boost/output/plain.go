package output

import (
	"bytes"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, d *Document) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if d.Batch != nil {
		if _, err := tw.Write([]byte("ID\tOUTCOME\tDETAIL\n")); err != nil {
			return err
		}
		for _, res := range d.Batch.Results {
			if _, err := tw.Write([]byte(res.ID + "\t" + res.Outcome + "\t" + res.Reason + "\n")); err != nil {
				return err
			}
		}
		return tw.Flush()
	}

	if _, err := tw.Write([]byte("ID\tCATEGORY\tSTATUS\tNAME\n")); err != nil {
		return err
	}
	for _, t := range d.Tweaks {
		if _, err := tw.Write([]byte(t.ID + "\t" + t.Category + "\t" + statusLabel(t) + "\t" + t.Name + "\n")); err != nil {
			return err
		}
	}

	// Flush tabwriter to buffer
	return tw.Flush()
}

// statusLabel returns the STATUS column value for a tweak row.
func statusLabel(t TweakInfo) string {
	switch {
	case t.Applied:
		return "applied"
	case t.OneWay:
		return "one-way"
	default:
		return "-"
	}
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
