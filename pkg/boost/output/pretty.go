package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, d *Document) error {
	// Build header
	header := f.formatHeader(d)
	w.WriteString(header)
	w.WriteString("\n")

	// Build body and footer
	if d.Batch != nil {
		w.WriteString(f.formatBatch(d.Batch))
		w.WriteString(f.formatBatchFooter(d.Batch))
	} else {
		w.WriteString(f.formatListing(d))
		w.WriteString(f.formatListingFooter(d))
	}

	// Add unknown record entries if any
	if len(d.Unknown) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatUnknown(d.Unknown))
	}

	// Add warnings if any
	if len(d.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(d.Warnings))
	}

	return nil
}

// formatHeader builds the header box with record location and privilege info.
func (f *PrettyFormatter) formatHeader(d *Document) string {
	var lines []string

	// Record line
	recordLabel := LabelStyle.Render("Record:")
	recordValue := ValueStyle.Render(d.StatePath)
	lines = append(lines, fmt.Sprintf("%s %s", recordLabel, recordValue))

	// Operation and privilege line
	var infoParts []string

	if d.Batch != nil {
		opLabel := LabelStyle.Render("Operation:")
		opValue := ValueStyle.Render(d.Batch.Op)
		infoParts = append(infoParts, fmt.Sprintf("%s %s", opLabel, opValue))
	}

	infoParts = append(infoParts, f.formatPrivilege(d.Elevated))

	lines = append(lines, strings.Join(infoParts, "  "))

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatPrivilege returns a styled string indicating process privilege.
func (f *PrettyFormatter) formatPrivilege(elevated bool) string {
	if elevated {
		return SuccessStyle.Render("privilege: administrator")
	}
	return MutedStyle.Render("privilege: standard user")
}

// formatListing builds the tweak listing grouped by category.
func (f *PrettyFormatter) formatListing(d *Document) string {
	if len(d.Tweaks) == 0 {
		return MutedStyle.Render("  No tweaks in catalog\n")
	}

	var sb strings.Builder

	// Calculate column widths for alignment
	maxIDWidth := 0
	maxNameWidth := 0
	for _, t := range d.Tweaks {
		if len(t.ID) > maxIDWidth {
			maxIDWidth = len(t.ID)
		}
		if len(t.Name) > maxNameWidth {
			maxNameWidth = len(t.Name)
		}
	}

	for _, cat := range d.Categories() {
		sb.WriteString(TitleStyle.Render(cat))
		sb.WriteString("\n")

		for _, t := range d.Tweaks {
			if t.Category != cat {
				continue
			}
			sb.WriteString(f.formatTweakRow(t, maxIDWidth, maxNameWidth))
		}
	}

	return sb.String()
}

// formatTweakRow builds a single tweak row with badges.
func (f *PrettyFormatter) formatTweakRow(t TweakInfo, idWidth, nameWidth int) string {
	id := IDStyle.Render(padRight(t.ID, idWidth))
	name := NameStyle.Render(padRight(t.Name, nameWidth))

	var badges []string
	if t.NeedsAdmin {
		badges = append(badges, WarningStyle.Render("admin"))
	}
	if t.OneWay {
		badges = append(badges, MutedStyle.Render("one-way"))
	}
	if t.Applied {
		badges = append(badges, SuccessStyle.Render("applied "+humanize.Time(t.AppliedAt)))
	}

	row := fmt.Sprintf("  %s  %s", id, name)
	if len(badges) > 0 {
		row += "  " + strings.Join(badges, " ")
	}
	return row + "\n"
}

// formatListingFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatListingFooter(d *Document) string {
	var parts []string

	// Applied count
	appliedLabel := LabelStyle.Render("Applied:")
	appliedValue := ValueStyle.Render(fmt.Sprintf("%d/%d", d.AppliedCount(), len(d.Tweaks)))
	parts = append(parts, fmt.Sprintf("%s %s", appliedLabel, appliedValue))

	// Hints
	hint := MutedStyle.Render("Use -o plain for unformatted output")
	parts = append(parts, hint)

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatBatch builds the per-tweak outcome table for a completed batch.
func (f *PrettyFormatter) formatBatch(b *BatchInfo) string {
	if len(b.Results) == 0 {
		return MutedStyle.Render("  No tweaks touched\n")
	}

	var sb strings.Builder

	// Column headers
	outcomeHeader := TableHeaderStyle.Render("OUTCOME")
	tweakHeader := TableHeaderStyle.Render("TWEAK")
	sb.WriteString(fmt.Sprintf("  %s  %s\n", outcomeHeader, tweakHeader))

	// Calculate column widths for alignment
	maxOutcomeWidth := 0
	maxIDWidth := 0
	for _, res := range b.Results {
		if len(res.Outcome) > maxOutcomeWidth {
			maxOutcomeWidth = len(res.Outcome)
		}
		if len(res.ID) > maxIDWidth {
			maxIDWidth = len(res.ID)
		}
	}
	if maxOutcomeWidth < 8 {
		maxOutcomeWidth = 8 // Minimum width
	}

	// Outcome rows
	for _, res := range b.Results {
		outcome := outcomeStyle(res.Outcome).Render(padRight(res.Outcome, maxOutcomeWidth))
		id := IDStyle.Render(padRight(res.ID, maxIDWidth))
		row := fmt.Sprintf("  %s  %s", outcome, id)
		if res.Reason != "" {
			row += "  " + MutedStyle.Render(res.Reason)
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatBatchFooter builds the footer box with the batch summary.
func (f *PrettyFormatter) formatBatchFooter(b *BatchInfo) string {
	var parts []string

	resultLabel := LabelStyle.Render("Result:")
	resultValue := ValueStyle.Render(b.Summary)
	parts = append(parts, fmt.Sprintf("%s %s", resultLabel, resultValue))

	if b.Duration > 0 {
		parts = append(parts, MutedStyle.Render("in "+formatDuration(b.Duration)))
	}

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatUnknown builds a block listing unknown record entries.
func (f *PrettyFormatter) formatUnknown(ids []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Unknown record entries (preserved):"))
	sb.WriteString("\n")

	for _, id := range ids {
		sb.WriteString(WarningStyle.Render("  " + id))
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// outcomeStyle returns the style for an outcome label.
func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "applied", "restored":
		return SuccessStyle
	case "skipped":
		return WarningStyle
	case "failed", "not-found":
		return ErrorStyle
	default:
		return ValueStyle
	}
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
