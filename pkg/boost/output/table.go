package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// TSVFormatter formats output as tab-separated values.
// It produces a simple table with a header row followed by data rows.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, d *Document) error {
	if d.Batch != nil {
		w.WriteString("ID\tOUTCOME\tDETAIL\n")
		for _, res := range d.Batch.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\n", res.ID, res.Outcome, res.Reason)
		}
		return nil
	}

	w.WriteString("ID\tCATEGORY\tSTATUS\tNAME\n")
	for _, t := range d.Tweaks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Category, statusLabel(t), t.Name)
	}

	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats output as comma-separated values with proper quoting.
// It uses encoding/csv for RFC 4180 compliant output.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, d *Document) error {
	writer := csv.NewWriter(w)

	if d.Batch != nil {
		if err := writer.Write([]string{"ID", "OUTCOME", "DETAIL"}); err != nil {
			return err
		}
		for _, res := range d.Batch.Results {
			if err := writer.Write([]string{res.ID, res.Outcome, res.Reason}); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	}

	if err := writer.Write([]string{"ID", "CATEGORY", "STATUS", "NAME"}); err != nil {
		return err
	}
	for _, t := range d.Tweaks {
		if err := writer.Write([]string{t.ID, t.Category, statusLabel(t), t.Name}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats output as a GitHub-flavored Markdown table.
// It produces a table with header, separator, and data rows using | delimiters.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, d *Document) error {
	if d.Batch != nil {
		w.WriteString("| ID | OUTCOME | DETAIL |\n")
		w.WriteString("|----|---------|--------|\n")
		for _, res := range d.Batch.Results {
			fmt.Fprintf(w, "| %s | %s | %s |\n",
				escapeMarkdownPipe(res.ID),
				escapeMarkdownPipe(res.Outcome),
				escapeMarkdownPipe(res.Reason))
		}
		return nil
	}

	w.WriteString("| ID | CATEGORY | STATUS | NAME |\n")
	w.WriteString("|----|----------|--------|------|\n")
	for _, t := range d.Tweaks {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapeMarkdownPipe(t.ID),
			escapeMarkdownPipe(t.Category),
			statusLabel(t),
			escapeMarkdownPipe(t.Name))
	}

	return nil
}

// escapeMarkdownPipe escapes pipe characters in a string for Markdown tables.
func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
