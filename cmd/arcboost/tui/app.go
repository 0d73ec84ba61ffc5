package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/arcboost/pkg/boost/disksize"
	"github.com/jamesainslie/arcboost/pkg/boost/engine"
	"github.com/jamesainslie/arcboost/pkg/boost/journal"
	"github.com/jamesainslie/arcboost/pkg/boost/logging"
)

// AppState represents the current state of the application.
type AppState int

const (
	StatePicking AppState = iota
	StateConfirmApply
	StateConfirmRestore
	StateRunning
	StateDone
)

// Options configures the TUI application.
type Options struct {
	Engine   *engine.Engine
	Journal  *journal.Journal // optional batch history sink
	Version  string
	Elevated bool
	Simulate bool
}

// Model is the main Bubble Tea model for the arcboost TUI.
type Model struct {
	state   AppState
	picker  PickerModel
	options Options

	ctx    context.Context
	cancel context.CancelFunc

	// Confirmation dialog state
	confirmFocused int // 0 = cancel, 1 = run
	pendingOp      engine.Op
	pendingIDs     []string // nil means every record entry on restore

	// Running state
	runSpinner spinner.Model
	resultChan chan engine.Result
	results    []engine.Result
	runTotal   int
	cancelling bool

	// Done state
	report   *engine.Report
	batchErr error

	// Log pane
	logs *LogViewerState

	// Window dimensions
	width  int
	height int
}

// NewModel creates a new TUI model with the given options.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		state: StatePicking,
		picker: NewPickerModel(opts.Engine.Catalog(), opts.Engine.Store(),
			opts.Elevated, opts.Simulate, opts.Version),
		options:        opts,
		ctx:            ctx,
		cancel:         cancel,
		confirmFocused: 0,
		runSpinner:     s,
		logs:           NewLogViewerState(),
		width:          80,
		height:         24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.listenForLogs(),
		m.measureCaches(),
	)
}

// resultMsg streams one tweak outcome while a batch runs.
type resultMsg engine.Result

// batchDoneMsg reports a finished batch.
type batchDoneMsg struct {
	report *engine.Report
	err    error
}

// cacheSizeMsg carries the measured shader cache size.
type cacheSizeMsg struct {
	bytes int64
	err   error
}

// logRefreshMsg triggers a re-render when a log entry arrives.
type logRefreshMsg struct{}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case cacheSizeMsg:
		if msg.err == nil {
			m.picker.SetCacheBytes(msg.bytes)
		}
		return m, nil

	case logRefreshMsg:
		return m, m.listenForLogs()

	case spinner.TickMsg:
		if m.state == StateRunning {
			var cmd tea.Cmd
			m.runSpinner, cmd = m.runSpinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case resultMsg:
		m.results = append(m.results, engine.Result(msg))
		return m, m.listenForResults()

	case batchDoneMsg:
		m.state = StateDone
		m.report = msg.report
		m.batchErr = msg.err
		m.cancelling = false
		m.picker.Reload(m.options.Engine.Store())
		return m, nil
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	if key == "ctrl+c" {
		if m.state == StateRunning {
			// Let the engine finish the current tweak; the record stays
			// consistent.
			m.cancel()
			m.cancelling = true
			return m, nil
		}
		m.cancel()
		m.logs.Shutdown()
		return m, tea.Quit
	}

	// The log pane owns the keyboard while open.
	if m.logs.Open && (m.state == StatePicking || m.state == StateDone) {
		m.logs.HandleKey(key)
		return m, nil
	}

	switch m.state {
	case StatePicking:
		switch key {
		case "q", "esc":
			m.cancel()
			m.logs.Shutdown()
			return m, tea.Quit
		case "l":
			m.logs.Open = true
		case "enter":
			if m.picker.HasSelection() {
				m.pendingOp = engine.OpApply
				m.pendingIDs = m.picker.SelectedIDs()
				m.confirmFocused = 0
				m.state = StateConfirmApply
			} else {
				m.picker.SetNotice("nothing selected")
			}
		case "r":
			ids, total := m.restoreCandidates()
			if total == 0 {
				m.picker.SetNotice("nothing to restore")
				break
			}
			m.pendingOp = engine.OpRestore
			m.pendingIDs = ids
			m.runTotal = total
			m.confirmFocused = 0
			m.state = StateConfirmRestore
		default:
			m.picker.HandleKey(key)
		}

	case StateConfirmApply, StateConfirmRestore:
		switch key {
		case "q", "esc", "n":
			m.state = StatePicking
		case "left", "h":
			m.confirmFocused = 0
		case "right", "l":
			m.confirmFocused = 1
		case "tab":
			m.confirmFocused = (m.confirmFocused + 1) % 2
		case "enter":
			if m.confirmFocused == 1 {
				return m.startBatch()
			}
			m.state = StatePicking
		case "y":
			// Shortcut for yes
			return m.startBatch()
		}

	case StateRunning:
		// No key handling while a batch runs

	case StateDone:
		switch key {
		case "q", "enter":
			m.cancel()
			m.logs.Shutdown()
			return m, tea.Quit
		case "esc", "b":
			m.picker.SelectNone()
			m.state = StatePicking
		case "l":
			m.logs.Open = true
		}
	}

	return m, nil
}

// restoreCandidates resolves what 'r' should restore: the applied part
// of the selection, or every record entry when nothing is selected. The
// returned total is what the confirm dialog shows; nil ids mean all.
func (m Model) restoreCandidates() ([]string, int) {
	st := m.options.Engine.Store()

	if !m.picker.HasSelection() {
		return nil, st.Len()
	}

	var ids []string
	for _, id := range m.picker.SelectedIDs() {
		if m.picker.IsApplied(id) {
			ids = append(ids, id)
		}
	}
	return ids, len(ids)
}

// startBatch transitions to the running state and kicks off the engine.
func (m Model) startBatch() (tea.Model, tea.Cmd) {
	m.state = StateRunning
	m.results = nil
	m.report = nil
	m.batchErr = nil
	m.cancelling = false
	m.resultChan = make(chan engine.Result, 64)

	m.runTotal = len(m.pendingIDs)
	if m.pendingOp == engine.OpRestore && len(m.pendingIDs) == 0 {
		m.runTotal = m.options.Engine.Store().Len()
	}

	return m, tea.Batch(m.runSpinner.Tick, m.runBatch(), m.listenForResults())
}

// runBatch executes the batch and reports completion. Per-tweak results
// stream through resultChan as the engine works.
func (m Model) runBatch() tea.Cmd {
	eng := m.options.Engine
	jnl := m.options.Journal
	op := m.pendingOp
	ids := m.pendingIDs
	resultChan := m.resultChan
	ctx := m.ctx

	return func() tea.Msg {
		eng.SetObserver(func(r engine.Result) {
			select {
			case resultChan <- r:
			default:
				// Channel full, the final report carries everything.
			}
		})

		var rep *engine.Report
		var err error
		if op == engine.OpApply {
			rep, err = eng.Apply(ctx, ids)
		} else {
			rep, err = eng.Restore(ctx, ids)
		}

		eng.SetObserver(nil)
		close(resultChan)

		if jnl != nil && rep != nil && !rep.NothingToRestore() {
			if _, jerr := jnl.Record(rep); jerr != nil {
				logging.Get("tui").Warn("failed to record batch in journal", "error", jerr)
			}
		}

		return batchDoneMsg{report: rep, err: err}
	}
}

// listenForResults waits for the next streamed result.
func (m Model) listenForResults() tea.Cmd {
	resultChan := m.resultChan
	return func() tea.Msg {
		r, ok := <-resultChan
		if !ok {
			return nil
		}
		return resultMsg(r)
	}
}

// listenForLogs waits for the next log entry and triggers a re-render.
func (m Model) listenForLogs() tea.Cmd {
	sub := m.logs.Subscription
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-sub; !ok {
			return nil
		}
		return logRefreshMsg{}
	}
}

// measureCaches sizes the cache directories of one-way purge tweaks in
// the background.
func (m Model) measureCaches() tea.Cmd {
	paths := m.picker.purgePaths()
	if len(paths) == 0 {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		total, err := disksize.Total(ctx, paths)
		return cacheSizeMsg{bytes: total, err: err}
	}
}

// View renders the current state.
func (m Model) View() string {
	if m.logs.Open && (m.state == StatePicking || m.state == StateDone) {
		return m.logs.renderLogViewer(m.width, m.height)
	}

	switch m.state {
	case StatePicking:
		return m.picker.View()
	case StateConfirmApply, StateConfirmRestore:
		return m.renderConfirmDialog()
	case StateRunning:
		return m.renderRunning()
	case StateDone:
		return m.renderDone()
	}
	return ""
}

// renderConfirmDialog renders the confirmation dialog over the picker.
func (m Model) renderConfirmDialog() string {
	bg := m.picker.View()

	var b strings.Builder

	if m.pendingOp == engine.OpApply {
		b.WriteString(dialogTitleStyle.Render("Confirm Apply"))
		b.WriteString("\n\n")
		b.WriteString(dialogTextStyle.Render(fmt.Sprintf("Apply %d tweaks?", len(m.pendingIDs))))
		b.WriteString("\n")

		needAdmin, oneWay := m.pendingBreakdown()
		if !m.options.Elevated && needAdmin > 0 {
			b.WriteString(warningTextStyle.Render(
				fmt.Sprintf("%d need administrator and will be skipped", needAdmin)))
			b.WriteString("\n")
		}
		if oneWay > 0 {
			b.WriteString(warningTextStyle.Render(
				fmt.Sprintf("%d cannot be restored once applied", oneWay)))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(dialogTitleStyle.Render("Confirm Restore"))
		b.WriteString("\n\n")
		b.WriteString(dialogTextStyle.Render(
			fmt.Sprintf("Restore %d tweaks to their recorded state?", m.runTotal)))
		b.WriteString("\n")

		if m.pendingIDs == nil && m.picker.UnknownCount() > 0 {
			b.WriteString(warningTextStyle.Render(
				fmt.Sprintf("%d record entries are from another build and will fail", m.picker.UnknownCount())))
			b.WriteString("\n")
		}
	}

	if m.options.Simulate {
		b.WriteString(mutedTextStyle.Render("(simulated system, nothing real changes)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")

	runLabel := "Apply"
	if m.pendingOp == engine.OpRestore {
		runLabel = "Restore"
	}

	cancelBtn := inactiveButtonStyle.Render("Cancel")
	runBtn := inactiveButtonStyle.Render(runLabel)
	if m.confirmFocused == 0 {
		cancelBtn = activeButtonStyle.Render("Cancel")
	} else {
		runBtn = activeButtonStyle.Render(runLabel)
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, cancelBtn, "  ", runBtn)
	b.WriteString(center(buttons, 52))

	dialog := dialogBoxStyle.Render(b.String())
	return m.overlayDialog(bg, dialog)
}

// pendingBreakdown counts pending tweaks that need elevation and pending
// one-way tweaks.
func (m Model) pendingBreakdown() (needAdmin, oneWay int) {
	cat := m.options.Engine.Catalog()
	for _, id := range m.pendingIDs {
		tw, ok := cat.Get(id)
		if !ok {
			continue
		}
		if tw.RequiresElevation {
			needAdmin++
		}
		if !tw.Reversible {
			oneWay++
		}
	}
	return needAdmin, oneWay
}

// renderRunning renders the live batch view.
func (m Model) renderRunning() string {
	contentWidth := m.width - 4
	if contentWidth < 60 {
		contentWidth = 60
	}

	verb := "Applying"
	if m.pendingOp == engine.OpRestore {
		verb = "Restoring"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("  %s tweaks...", verb)))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s %s: %s / %d",
		m.runSpinner.View(), verb, padLeft(fmt.Sprintf("%d", len(m.results)), 2), m.runTotal))
	if m.cancelling {
		b.WriteString("  " + warningTextStyle.Render("stopping after the current tweak..."))
	}
	b.WriteString("\n\n")

	// Most recent results, newest last.
	maxLines := m.height - 10
	if maxLines < 5 {
		maxLines = 5
	}
	start := len(m.results) - maxLines
	if start < 0 {
		start = 0
	}
	for _, res := range m.results[start:] {
		b.WriteString(renderResultLine(res, contentWidth))
		b.WriteString("\n")
	}

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderResultLine renders one streamed tweak outcome.
func renderResultLine(res engine.Result, width int) string {
	var mark, note string
	style := normalItemStyle

	switch res.Outcome {
	case engine.OutcomeApplied, engine.OutcomeRestored:
		mark = successTextStyle.Render("+")
	case engine.OutcomeSkipped:
		mark = warningTextStyle.Render("-")
		note = "needs administrator"
		style = mutedTextStyle
	case engine.OutcomeNotFound:
		mark = mutedTextStyle.Render("?")
		note = "unknown id"
		style = mutedTextStyle
	default:
		mark = errorTextStyle.Render("x")
		note = res.Reason()
		style = errorTextStyle
	}

	name := res.Name
	if name == "" {
		name = res.ID
	}

	line := fmt.Sprintf("  %s %-24s %s", mark, truncateText(res.ID, 24), truncateText(name, 28))
	if note != "" {
		line += "  " + note
	}
	return style.Render(truncateText(line, width))
}

// renderDone renders the completion view.
func (m Model) renderDone() string {
	contentWidth := m.width - 4
	if contentWidth < 60 {
		contentWidth = 60
	}

	var b strings.Builder

	title := "Apply Complete"
	if m.report != nil && m.report.Op == engine.OpRestore {
		title = "Restore Complete"
		if m.report.NothingToRestore() {
			title = "Nothing to Restore"
		}
	}
	if m.batchErr != nil {
		b.WriteString(errorTextStyle.Render("  " + title))
	} else {
		b.WriteString(successTextStyle.Render("  " + title))
	}
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	if m.report != nil {
		b.WriteString("  " + m.report.Summary())
		b.WriteString("\n")

		if m.batchErr != nil {
			b.WriteString(errorTextStyle.Render("  stopped early: " + m.batchErr.Error()))
			b.WriteString("\n")
		}

		var failures []engine.Result
		for _, res := range m.report.Results {
			if res.Failed() {
				failures = append(failures, res)
			}
		}
		if len(failures) > 0 {
			b.WriteString("\n")
			b.WriteString(errorTextStyle.Render("  Failures:"))
			b.WriteString("\n")
			maxErrors := 5
			for i, res := range failures {
				if i >= maxErrors {
					b.WriteString(errorTextStyle.Render(
						fmt.Sprintf("    ... and %d more", len(failures)-maxErrors)))
					b.WriteString("\n")
					break
				}
				b.WriteString(errorTextStyle.Render(
					"    - " + truncateText(res.ID+": "+res.Reason(), contentWidth-6)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	hints := keyStyle.Render("[Enter]") + " " + keyDescStyle.Render("Quit") + "   " +
		keyStyle.Render("[Esc]") + " " + keyDescStyle.Render("Back") + "   " +
		keyStyle.Render("[l]") + " " + keyDescStyle.Render("Logs")
	b.WriteString(center(hints, contentWidth))
	b.WriteString("\n")

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// overlayDialog centers a dialog over a background view.
func (m Model) overlayDialog(bg, dialog string) string {
	dialogLines := strings.Split(dialog, "\n")
	bgLines := strings.Split(bg, "\n")

	dialogHeight := len(dialogLines)
	startRow := (m.height - dialogHeight) / 2
	if startRow < 0 {
		startRow = 0
	}

	dialogWidth := lipgloss.Width(dialog)
	startCol := (m.width - dialogWidth) / 2
	if startCol < 0 {
		startCol = 0
	}

	var result []string
	for i := range max(len(bgLines), startRow+dialogHeight) {
		if i < startRow || i >= startRow+dialogHeight {
			if i < len(bgLines) {
				result = append(result, bgLines[i])
			} else {
				result = append(result, "")
			}
			continue
		}

		dialogLine := dialogLines[i-startRow]
		if i < len(bgLines) {
			bgLine := bgLines[i]
			if startCol > len(bgLine) {
				result = append(result, strings.Repeat(" ", startCol)+dialogLine)
			} else {
				result = append(result, bgLine[:min(startCol, len(bgLine))]+dialogLine)
			}
		} else {
			result = append(result, strings.Repeat(" ", startCol)+dialogLine)
		}
	}

	return strings.Join(result, "\n")
}

// Run starts the TUI application.
func Run(opts Options) error {
	model := NewModel(opts)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
