// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/review"
)

// Model is the top-level Bubble Tea model for hunkr.
type Model struct {
	ctx     context.Context
	svc     *review.Service
	diffSet *diff.DiffSet

	// UI state
	width  int
	height int

	fileIndex int
	hunkIndex int // index into the current file's hunks

	// Diff viewport
	scrollOffset int
	viewHeight   int

	// Rendered lines for the current file
	lines      []renderedLine
	hunkStarts []int

	splitView bool
	showHelp  bool

	// Trust pattern prompt
	trustInput textinput.Model
	entering   bool

	// Collaborator call in flight
	spin spinner.Model
	busy review.Op

	message  string
	errorMsg bool
}

// opDoneMsg reports a finished classify or group call.
type opDoneMsg struct {
	op      review.Op
	changed bool
	err     error
}

// New creates a TUI over the review open in svc. ds must be the diff the
// review was opened with.
func New(ctx context.Context, svc *review.Service, ds *diff.DiffSet) Model {
	ti := textinput.New()
	ti.Placeholder = "category:label, category:* or *"
	ti.CharLimit = 128
	ti.Prompt = "trust> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{ctx: ctx, svc: svc, diffSet: ds, trustInput: ti, spin: sp}
	m.updateLines()
	return m
}

func (m *Model) updateLines() {
	if len(m.diffSet.Files) == 0 {
		m.lines, m.hunkStarts = nil, nil
		return
	}
	m.lines, m.hunkStarts = renderFile(m.diffSet.Files[m.fileIndex])
}

func (m Model) currentFile() *diff.File {
	if len(m.diffSet.Files) == 0 {
		return nil
	}
	return m.diffSet.Files[m.fileIndex]
}

func (m Model) currentHunk() (model.Hunk, bool) {
	f := m.currentFile()
	if f == nil || m.hunkIndex >= len(f.Hunks) {
		return model.Hunk{}, false
	}
	return f.Hunks[m.hunkIndex], true
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4 // status bar + help bar + borders
		return m, nil

	case opDoneMsg:
		m.busy = ""
		switch {
		case errors.Is(msg.err, review.ErrSuperseded):
			m.setMessage(fmt.Sprintf("%s result discarded", msg.op), false)
		case msg.err != nil:
			m.setMessage(msg.err.Error(), true)
		case !msg.changed:
			m.setMessage(fmt.Sprintf("%s is up to date", msg.op), false)
		default:
			m.setMessage(fmt.Sprintf("%s done", msg.op), false)
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.entering {
			return m.updateTrustInput(msg)
		}
		return m.updateKey(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Down):
		if m.scrollOffset < len(m.lines)-1 {
			m.scrollOffset++
			m.syncHunk()
		}

	case key.Matches(msg, keys.Up):
		if m.scrollOffset > 0 {
			m.scrollOffset--
			m.syncHunk()
		}

	case key.Matches(msg, keys.NextFile):
		m.gotoFile(m.fileIndex + 1)

	case key.Matches(msg, keys.PrevFile):
		m.gotoFile(m.fileIndex - 1)

	case key.Matches(msg, keys.NextHunk):
		m.nextHunk()

	case key.Matches(msg, keys.PrevHunk):
		m.prevHunk()

	case key.Matches(msg, keys.Approve):
		m.mark(model.StatusApproved)

	case key.Matches(msg, keys.Reject):
		m.mark(model.StatusRejected)

	case key.Matches(msg, keys.Save):
		m.mark(model.StatusSavedForLater)

	case key.Matches(msg, keys.Clear):
		if h, ok := m.currentHunk(); ok {
			_, err := m.svc.Clear(m.ctx, h.ID)
			m.report(err, "cleared")
		}

	case key.Matches(msg, keys.ApproveFile):
		if f := m.currentFile(); f != nil {
			_, err := m.svc.ApproveFile(m.ctx, f.Path())
			m.report(err, fmt.Sprintf("approved %d hunks in %s", len(f.Hunks), f.Path()))
		}

	case key.Matches(msg, keys.Identical):
		if h, ok := m.currentHunk(); ok {
			n := len(m.svc.IdenticalTo(h.ID))
			_, err := m.svc.ApproveIdentical(m.ctx, h.ID)
			m.report(err, fmt.Sprintf("approved hunk and %d identical", n))
		}

	case key.Matches(msg, keys.MovePair):
		if h, ok := m.currentHunk(); ok {
			p, paired := m.svc.MovePair(h.ID)
			_, err := m.svc.ApproveMovePair(m.ctx, h.ID)
			if paired {
				m.report(err, "approved move pair with "+p.FilePath)
			} else {
				m.report(err, "no move pair; approved hunk")
			}
		}

	case key.Matches(msg, keys.Trust):
		m.entering = true
		m.trustInput.Reset()
		return m, m.trustInput.Focus()

	case key.Matches(msg, keys.Classify):
		return m.startOp(review.OpClassify, m.svc.Classify)

	case key.Matches(msg, keys.Group):
		return m.startOp(review.OpGroup, m.svc.Group)

	case key.Matches(msg, keys.Toggle):
		m.splitView = !m.splitView

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

func (m Model) updateTrustInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.entering = false
		m.trustInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.entering = false
		m.trustInput.Blur()
		p := strings.TrimSpace(m.trustInput.Value())
		if p == "" {
			return m, nil
		}
		n := m.svc.TrustedHunkCount(p)
		_, err := m.svc.AddTrust(m.ctx, p)
		m.report(err, fmt.Sprintf("trusting %q (%d hunks)", p, n))
		return m, nil
	}
	var cmd tea.Cmd
	m.trustInput, cmd = m.trustInput.Update(msg)
	return m, cmd
}

func (m Model) startOp(op review.Op, run func(context.Context, bool) (bool, error)) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = op
	m.message = ""
	ctx := m.ctx
	call := func() tea.Msg {
		changed, err := run(ctx, false)
		return opDoneMsg{op: op, changed: changed, err: err}
	}
	return m, tea.Batch(m.spin.Tick, call)
}

// mark toggles status on the current hunk and moves on when it was set.
func (m *Model) mark(status model.HunkStatus) {
	h, ok := m.currentHunk()
	if !ok {
		return
	}
	st, err := m.svc.Toggle(m.ctx, h.ID, status)
	if errors.Is(err, review.ErrInvalidTransition) {
		m.setMessage("hunk already has a status; press u to clear it first", true)
		return
	}
	m.report(err, "")
	if err == nil && st.Hunk(h.ID).Status == status {
		m.nextHunk()
	}
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.setMessage(err.Error(), true)
		return
	}
	m.setMessage(ok, false)
}

func (m *Model) setMessage(s string, isErr bool) {
	m.message = s
	m.errorMsg = isErr
}

func (m *Model) gotoFile(i int) {
	if i < 0 || i >= len(m.diffSet.Files) || i == m.fileIndex {
		return
	}
	m.fileIndex = i
	m.hunkIndex = 0
	m.scrollOffset = 0
	m.updateLines()
}

// syncHunk selects the hunk containing the scroll position.
func (m *Model) syncHunk() {
	for i := len(m.hunkStarts) - 1; i >= 0; i-- {
		if m.hunkStarts[i] <= m.scrollOffset {
			m.hunkIndex = i
			return
		}
	}
}

// nextHunk advances within the file, then to the first hunk of the next
// file that has any.
func (m *Model) nextHunk() {
	if m.hunkIndex < len(m.hunkStarts)-1 {
		m.hunkIndex++
		m.scrollOffset = m.hunkStarts[m.hunkIndex]
		return
	}
	for i := m.fileIndex + 1; i < len(m.diffSet.Files); i++ {
		if len(m.diffSet.Files[i].Hunks) > 0 {
			m.gotoFile(i)
			return
		}
	}
}

func (m *Model) prevHunk() {
	if m.hunkIndex > 0 {
		m.hunkIndex--
		m.scrollOffset = m.hunkStarts[m.hunkIndex]
		return
	}
	for i := m.fileIndex - 1; i >= 0; i-- {
		if n := len(m.diffSet.Files[i].Hunks); n > 0 {
			m.gotoFile(i)
			m.hunkIndex = n - 1
			m.scrollOffset = m.hunkStarts[m.hunkIndex]
			return
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	fileListWidth := m.fileListWidth()
	diffWidth := m.width - fileListWidth - 1

	fileList := m.renderFileList(fileListWidth, m.height-2)
	diffView := m.renderDiffView(diffWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, fileList, " ", diffView)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) fileListWidth() int {
	maxLen := 20
	for _, f := range m.diffSet.Files {
		if n := len(f.Name()); n > maxLen {
			maxLen = n
		}
	}
	w := maxLen + 10
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderFileList(width, height int) string {
	counts := m.svc.FileStatus()
	var b strings.Builder

	for i, f := range m.diffSet.Files {
		name := f.Name()
		maxName := width - 10
		if maxName > 0 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		fs := counts[f.Path()]
		line := fmt.Sprintf("%-*s %d/%d", maxName, name, fs.Reviewed(), fs.Total)

		var style lipgloss.Style
		switch {
		case i == m.fileIndex:
			style = fileItemSelectedStyle
		case fs.Rejected > 0:
			style = fileItemRejectedStyle
		case fs.Total > 0 && fs.Pending == 0 && fs.SavedForLater == 0:
			style = fileItemDoneStyle
		default:
			style = fileItemStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(m.diffSet.Files)-1 {
			b.WriteByte('\n')
		}
	}

	return fileListStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderDiffView(width, height int) string {
	f := m.currentFile()
	if f == nil {
		return diffViewStyle.Width(width).Height(height - 2).Render("No changes")
	}

	innerWidth := width - 4
	innerHeight := height - 2

	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render(f.Name()))
	b.WriteByte('\n')

	visibleLines := innerHeight - 2
	if m.entering {
		visibleLines--
	}
	if visibleLines < 1 {
		visibleLines = 1
	}

	end := min(m.scrollOffset+visibleLines, len(m.lines))
	halfWidth := (innerWidth - 3) / 2
	current, _ := m.currentHunk()
	for i := m.scrollOffset; i < end; i++ {
		rl := m.lines[i]
		switch {
		case rl.IsHunk:
			b.WriteString(m.renderHunkHeader(rl, rl.HunkID == current.ID))
		case m.splitView:
			left, right := styleLineSplit(rl, halfWidth)
			b.WriteString(left + " │ " + right)
		default:
			b.WriteString(styleLine(rl, innerWidth))
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	if m.entering {
		b.WriteByte('\n')
		b.WriteString(m.trustInput.View())
	}

	return diffViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) renderHunkHeader(rl renderedLine, current bool) string {
	style := hunkHeaderStyle
	if current {
		style = hunkCurrentStyle
	}
	parts := []string{style.Render(rl.Content), badge(m.svc.Status(rl.HunkID))}
	if reason, ok := m.svc.TrustReason(rl.HunkID); ok {
		parts = append(parts, labelStyle.Render("via "+reason))
	}
	if labels := m.svc.State().Hunk(rl.HunkID).Label; len(labels) > 0 {
		parts = append(parts, labelStyle.Render(strings.Join(labels, " ")))
	}
	if n := len(m.svc.IdenticalTo(rl.HunkID)); n > 0 {
		parts = append(parts, labelStyle.Render(fmt.Sprintf("+%d identical", n)))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatusBar() string {
	p := m.svc.Progress()
	nHunks := 0
	if f := m.currentFile(); f != nil {
		nHunks = len(f.Hunks)
	}

	left := fmt.Sprintf(" File %d/%d  Hunk %d/%d", m.fileIndex+1, len(m.diffSet.Files), min(m.hunkIndex+1, nHunks), nHunks)
	if m.busy != "" {
		left += "  " + m.spin.View() + " " + string(m.busy)
	} else if m.message != "" {
		if m.errorMsg {
			left += "  " + statusErrStyle.Render(m.message)
		} else {
			left += "  " + m.message
		}
	}

	right := fmt.Sprintf("%d approved %d trusted %d rejected %d pending  %.0f%%  ? help ",
		p.Approved, p.Trusted, p.Rejected, p.Pending+p.SavedForLater, p.Percent)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("hunkr: keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, k := range keys.helpOrder() {
		h := k.Help()
		fmt.Fprintf(&b, "  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc)
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run starts the TUI over the open review and blocks until the user quits.
func Run(ctx context.Context, svc *review.Service, ds *diff.DiffSet) error {
	p := tea.NewProgram(New(ctx, svc, ds), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
