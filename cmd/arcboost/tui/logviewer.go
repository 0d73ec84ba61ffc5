package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/arcboost/pkg/boost/logging"
)

// LogViewerState is the log pane overlaid on the picker and done views.
// Entries come from the logging package's ring buffer; the subscription
// only triggers re-renders as new entries arrive.
type LogViewerState struct {
	Open         bool
	FilterLevel  logging.Level
	ScrollOffset int // lines scrolled back from the newest entry
	Subscription <-chan logging.LogEntry
}

// NewLogViewerState creates a closed log pane subscribed to live log
// entries.
func NewLogViewerState() *LogViewerState {
	return &LogViewerState{
		FilterLevel:  logging.LevelDebug,
		Subscription: logging.Subscribe(),
	}
}

// Shutdown drops the live subscription.
func (s *LogViewerState) Shutdown() {
	if s.Subscription != nil {
		logging.Unsubscribe(s.Subscription)
		s.Subscription = nil
	}
}

// Entries returns the buffered entries at or above the filter level,
// oldest first.
func (s *LogViewerState) Entries() []logging.LogEntry {
	buf := logging.GetLogBuffer()
	if buf == nil {
		return nil
	}
	return filterEntriesByLevel(buf.Entries(), s.FilterLevel)
}

// HandleKey handles keys while the pane is open and reports whether the
// key was consumed.
func (s *LogViewerState) HandleKey(key string) bool {
	switch key {
	case "esc", "l":
		s.Open = false
		s.ScrollOffset = 0

	case "up", "k":
		s.ScrollOffset++

	case "down", "j":
		s.ScrollOffset--

	case "1":
		s.FilterLevel = logging.LevelDebug
		s.ScrollOffset = 0

	case "2":
		s.FilterLevel = logging.LevelInfo
		s.ScrollOffset = 0

	case "3":
		s.FilterLevel = logging.LevelWarn
		s.ScrollOffset = 0

	case "4":
		s.FilterLevel = logging.LevelError
		s.ScrollOffset = 0

	default:
		return false
	}

	return true
}

// filterEntriesByLevel keeps entries at or above the minimum level.
func filterEntriesByLevel(entries []logging.LogEntry, min logging.Level) []logging.LogEntry {
	var result []logging.LogEntry
	for _, e := range entries {
		if e.Level >= min {
			result = append(result, e)
		}
	}
	return result
}

// clampLogScroll keeps the scroll offset within the filtered history.
func clampLogScroll(offset, total, visible int) int {
	max := total - visible
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// visibleLogEntries returns the window of entries to show given the
// scroll offset, newest at the bottom.
func visibleLogEntries(entries []logging.LogEntry, offset, visible int) []logging.LogEntry {
	total := len(entries)
	offset = clampLogScroll(offset, total, visible)

	end := total - offset
	start := end - visible
	if start < 0 {
		start = 0
	}
	return entries[start:end]
}

// logLevelChar returns the single-character level tag.
func logLevelChar(level logging.Level) string {
	switch level {
	case logging.LevelDebug:
		return "D"
	case logging.LevelInfo:
		return "I"
	case logging.LevelWarn:
		return "W"
	case logging.LevelError:
		return "E"
	default:
		return "?"
	}
}

// logLevelStyle returns the style for a level tag.
func logLevelStyle(level logging.Level) lipgloss.Style {
	switch level {
	case logging.LevelWarn:
		return warningTextStyle
	case logging.LevelError:
		return errorTextStyle
	case logging.LevelDebug:
		return mutedTextStyle
	default:
		return normalItemStyle
	}
}

// renderLogEntry renders one log line: "15:04:05 [I] engine: message".
func renderLogEntry(e logging.LogEntry, width int) string {
	ts := mutedTextStyle.Render(e.Time.Format("15:04:05"))
	tag := logLevelStyle(e.Level).Render("[" + logLevelChar(e.Level) + "]")

	msg := fmt.Sprintf("%s: %s", e.Component, e.Message)
	maxMsg := width - 16
	if maxMsg < 20 {
		maxMsg = 20
	}

	return fmt.Sprintf(" %s %s %s", ts, tag, truncateText(msg, maxMsg))
}

// renderLogViewer renders the log pane.
func (s *LogViewerState) renderLogViewer(width, height int) string {
	var b strings.Builder

	contentWidth := width - 4
	if contentWidth < 60 {
		contentWidth = 60
	}

	visible := height - 6
	if visible < 5 {
		visible = 5
	}

	title := fmt.Sprintf(" Logs [%s] ", s.FilterLevel)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	entries := s.Entries()
	window := visibleLogEntries(entries, s.ScrollOffset, visible)

	lines := 0
	if len(window) == 0 {
		b.WriteString(mutedTextStyle.Render(" (no log entries yet)"))
		b.WriteString("\n")
		lines++
	}
	for _, e := range window {
		b.WriteString(renderLogEntry(e, contentWidth))
		b.WriteString("\n")
		lines++
	}
	for ; lines < visible; lines++ {
		b.WriteString("\n")
	}

	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("[1-4]") + keyDescStyle.Render(" filter  ") +
		keyStyle.Render("[j/k]") + keyDescStyle.Render(" scroll  ") +
		keyStyle.Render("[Esc]") + keyDescStyle.Render(" close"))

	return outerBoxStyle.Width(width - 2).Render(b.String())
}
