package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/disksize"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

// pickerRow is one rendered line in the picker: a category header or a
// tweak.
type pickerRow struct {
	isHeader bool
	category catalog.Category
	tweak    catalog.Tweak
}

// PickerModel is the tweak selection phase of the TUI.
type PickerModel struct {
	rows      []pickerRow
	cursor    int // index into rows, always on a tweak row
	selected  map[string]bool
	appliedAt map[string]time.Time
	unknown   int // record entries not in the catalog

	elevated bool
	simulate bool
	version  string

	// cacheBytes is the measured shader cache size, -1 until known.
	cacheBytes int64

	notice   string
	fullHelp bool

	offset int // scroll offset
	width  int
	height int
}

// NewPickerModel creates a picker over the catalog, with applied markers
// from the record.
func NewPickerModel(cat *catalog.Catalog, st *state.Store, elevated, simulate bool, version string) PickerModel {
	m := PickerModel{
		selected:   make(map[string]bool),
		appliedAt:  make(map[string]time.Time),
		elevated:   elevated,
		simulate:   simulate,
		version:    version,
		cacheBytes: -1,
		width:      80,
		height:     24,
	}

	for _, group := range cat.Grouped() {
		m.rows = append(m.rows, pickerRow{isHeader: true, category: group.Category})
		for _, tw := range group.Tweaks {
			m.rows = append(m.rows, pickerRow{tweak: tw, category: group.Category})
		}
	}
	m.cursor = m.nextTweakRow(0)

	m.Reload(st)
	return m
}

// Reload refreshes the applied markers from the record. The app calls it
// after every batch.
func (m *PickerModel) Reload(st *state.Store) {
	known := make(map[string]bool, len(m.rows))
	for _, row := range m.rows {
		if !row.isHeader {
			known[row.tweak.ID] = true
		}
	}

	m.appliedAt = make(map[string]time.Time)
	m.unknown = 0
	for _, id := range st.IDs() {
		if !known[id] {
			m.unknown++
			continue
		}
		if entry, err := st.Get(id); err == nil {
			m.appliedAt[id] = entry.AppliedAt
		}
	}
}

// Update handles messages for the picker.
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// HandleKey handles navigation and selection keys.
func (m *PickerModel) HandleKey(key string) tea.Cmd {
	m.notice = ""

	switch key {
	case "up", "k":
		if prev := m.prevTweakRow(m.cursor); prev >= 0 {
			m.cursor = prev
			m.ensureVisible()
		}

	case "down", "j":
		if next := m.nextTweakRow(m.cursor + 1); next >= 0 {
			m.cursor = next
			m.ensureVisible()
		}

	case " ":
		m.toggleCursor()

	case "?":
		m.fullHelp = !m.fullHelp

	case "a":
		m.SelectAll()

	case "n":
		m.SelectNone()

	case "home", "g":
		m.cursor = m.nextTweakRow(0)
		m.offset = 0

	case "end", "G":
		if last := m.prevTweakRow(len(m.rows)); last >= 0 {
			m.cursor = last
			m.ensureVisible()
		}

	case "pgup":
		target := m.cursor - m.visibleRows()
		if target < 0 {
			target = 0
		}
		if row := m.nextTweakRow(target); row >= 0 && row < m.cursor {
			m.cursor = row
		} else {
			m.cursor = m.nextTweakRow(0)
		}
		m.ensureVisible()

	case "pgdown":
		target := m.cursor + m.visibleRows()
		if row := m.nextTweakRow(target); row >= 0 {
			m.cursor = row
		} else if last := m.prevTweakRow(len(m.rows)); last >= 0 {
			m.cursor = last
		}
		m.ensureVisible()
	}

	return nil
}

// nextTweakRow returns the first tweak row at or after index, or -1.
func (m PickerModel) nextTweakRow(index int) int {
	for i := index; i < len(m.rows); i++ {
		if i >= 0 && !m.rows[i].isHeader {
			return i
		}
	}
	return -1
}

// prevTweakRow returns the last tweak row before index, or -1.
func (m PickerModel) prevTweakRow(index int) int {
	for i := index - 1; i >= 0; i-- {
		if i < len(m.rows) && !m.rows[i].isHeader {
			return i
		}
	}
	return -1
}

func (m *PickerModel) toggleCursor() {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].isHeader {
		return
	}
	id := m.rows[m.cursor].tweak.ID
	if m.selected[id] {
		delete(m.selected, id)
	} else {
		m.selected[id] = true
	}
}

// SelectAll selects every tweak.
func (m *PickerModel) SelectAll() {
	for _, row := range m.rows {
		if !row.isHeader {
			m.selected[row.tweak.ID] = true
		}
	}
}

// SelectNone clears the selection.
func (m *PickerModel) SelectNone() {
	m.selected = make(map[string]bool)
}

// SelectedIDs returns the selected tweak ids in catalog order.
func (m PickerModel) SelectedIDs() []string {
	var ids []string
	for _, row := range m.rows {
		if !row.isHeader && m.selected[row.tweak.ID] {
			ids = append(ids, row.tweak.ID)
		}
	}
	return ids
}

// HasSelection reports whether any tweak is selected.
func (m PickerModel) HasSelection() bool {
	return len(m.selected) > 0
}

// SelectedCount returns the number of selected tweaks.
func (m PickerModel) SelectedCount() int {
	return len(m.selected)
}

// IsApplied reports whether the record holds a prior state for the id.
func (m PickerModel) IsApplied(id string) bool {
	_, ok := m.appliedAt[id]
	return ok
}

// AppliedCount returns the number of catalog tweaks currently applied.
func (m PickerModel) AppliedCount() int {
	return len(m.appliedAt)
}

// TweakCount returns the number of tweaks in the picker.
func (m PickerModel) TweakCount() int {
	n := 0
	for _, row := range m.rows {
		if !row.isHeader {
			n++
		}
	}
	return n
}

// UnknownCount returns the number of record entries this build cannot
// restore.
func (m PickerModel) UnknownCount() int {
	return m.unknown
}

// SetCacheBytes records the measured shader cache size for display.
func (m *PickerModel) SetCacheBytes(n int64) {
	m.cacheBytes = n
}

// SetNotice sets a one-shot footer message, cleared on the next key.
func (m *PickerModel) SetNotice(s string) {
	m.notice = s
}

// purgePaths collects the cache directories of one-way purge tweaks so
// the app can measure how much space applying them would reclaim.
func (m PickerModel) purgePaths() []string {
	var paths []string
	for _, row := range m.rows {
		if row.isHeader {
			continue
		}
		if purge, ok := row.tweak.Action.(catalog.PurgeAction); ok {
			paths = append(paths, purge.Paths...)
		}
	}
	return paths
}

// SetDimensions updates the width and height.
func (m *PickerModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// View renders the picker.
func (m PickerModel) View() string {
	var b strings.Builder

	contentWidth := m.width - 4
	if contentWidth < 60 {
		contentWidth = 60
	}

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	if !m.elevated {
		b.WriteString(warningTextStyle.Render("  Not running as administrator: marked tweaks will be skipped."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpBar())
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	b.WriteString(m.renderRows(contentWidth))

	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(contentWidth))

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderHeader renders the title line with elevation state.
func (m PickerModel) renderHeader() string {
	title := fmt.Sprintf("  arcboost %s - %d tweaks, %d applied",
		m.version, m.TweakCount(), m.AppliedCount())

	var badges []string
	if m.simulate {
		badges = append(badges, cacheSizeStyle.Render("SIMULATED"))
	}
	if m.elevated {
		badges = append(badges, successTextStyle.Render("ADMINISTRATOR"))
	} else {
		badges = append(badges, warningTextStyle.Render("NOT ELEVATED"))
	}

	return titleStyle.Render(title) + "  " + strings.Join(badges, " ")
}

// renderHelpBar renders the key hints. '?' expands the navigation keys.
func (m PickerModel) renderHelpBar() string {
	type hint struct {
		key  string
		desc string
	}
	hints := []hint{
		{"Space", "Toggle"},
		{"a", "All"},
		{"n", "None"},
		{"Enter", "Apply"},
		{"r", "Restore"},
		{"l", "Logs"},
		{"?", "Help"},
		{"q", "Quit"},
	}
	if m.fullHelp {
		hints = append(hints,
			hint{"j/k", "Move"},
			hint{"g/G", "Top/Bottom"},
			hint{"PgUp/PgDn", "Page"},
		)
	}

	var parts []string
	for _, h := range hints {
		parts = append(parts, keyStyle.Render("["+h.key+"]")+" "+keyDescStyle.Render(h.desc))
	}

	return "  " + strings.Join(parts, "  ")
}

// renderRows renders the scrollable tweak list.
func (m PickerModel) renderRows(width int) string {
	var b strings.Builder

	visibleRows := m.visibleRows()

	lineCount := 0
	for i := m.offset; i < m.offset+visibleRows && i < len(m.rows); i++ {
		row := m.rows[i]

		if row.isHeader {
			b.WriteString("  " + categoryStyle.Render(string(row.category)))
			b.WriteString("\n")
			lineCount++
			continue
		}

		b.WriteString(m.renderTweakLine(row.tweak, i == m.cursor, width))
		b.WriteString("\n")
		lineCount++

		if i == m.cursor {
			b.WriteString(tweakDetailStyle.Render(truncateText(row.tweak.Summary, width-8)))
			b.WriteString("\n")
			lineCount++
		}
	}

	for lineCount < visibleRows+1 {
		b.WriteString("\n")
		lineCount++
	}

	return b.String()
}

// renderTweakLine renders a single tweak row.
func (m PickerModel) renderTweakLine(tw catalog.Tweak, isCursor bool, width int) string {
	var checkbox string
	if m.selected[tw.ID] {
		checkbox = checkedStyle.Render("[x]")
	} else {
		checkbox = uncheckedStyle.Render("[ ]")
	}

	var cursor string
	if isCursor {
		cursor = cursorStyle.Render(">")
	} else {
		cursor = " "
	}

	var badges []string
	if tw.RequiresElevation {
		if m.elevated {
			badges = append(badges, mutedTextStyle.Render("ADMIN"))
		} else {
			badges = append(badges, adminBadgeStyle.Render("ADMIN"))
		}
	}
	if !tw.Reversible {
		badges = append(badges, oneWayBadgeStyle.Render("ONE-WAY"))
		if _, ok := tw.Action.(catalog.PurgeAction); ok && m.cacheBytes >= 0 {
			badges = append(badges, cacheSizeStyle.Render("~"+disksize.Format(m.cacheBytes)))
		}
	}
	if at, ok := m.appliedAt[tw.ID]; ok {
		badges = append(badges, appliedMarkStyle.Render("applied "+humanize.Time(at)))
	}

	nameWidth := width - 36
	if nameWidth < 16 {
		nameWidth = 16
	}
	line := fmt.Sprintf("  %s %s %-24s %s", checkbox, cursor,
		truncateText(tw.ID, 24), truncateText(tw.Name, nameWidth))
	if len(badges) > 0 {
		line += "  " + strings.Join(badges, " ")
	}

	if isCursor {
		return selectedItemStyle.Width(width).Render(line)
	}
	return normalItemStyle.Render(line)
}

// renderFooter renders the selection summary.
func (m PickerModel) renderFooter(width int) string {
	left := fmt.Sprintf("  Selected: %d of %d", m.SelectedCount(), m.TweakCount())
	if m.unknown > 0 {
		left += mutedTextStyle.Render(fmt.Sprintf("  (%d unknown record entries)", m.unknown))
	}
	if m.notice != "" {
		left += "  " + warningTextStyle.Render(m.notice)
	}

	right := mutedTextStyle.Render("[↑↓] Navigate")

	spacing := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if spacing < 1 {
		spacing = 1
	}

	return left + strings.Repeat(" ", spacing) + right
}

// visibleRows returns the number of list rows that fit on screen.
func (m PickerModel) visibleRows() int {
	// Header, warning banner, help bar, dividers, footer, and the detail
	// line under the cursor all take space.
	available := m.height - 10
	if available < 8 {
		available = 8
	}
	return available
}

// ensureVisible adjusts the scroll offset to keep the cursor on screen.
func (m *PickerModel) ensureVisible() {
	visibleRows := m.visibleRows()

	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+visibleRows {
		m.offset = m.cursor - visibleRows + 1
	}

	if m.offset < 0 {
		m.offset = 0
	}
}
