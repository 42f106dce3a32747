package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/lkaiser/livecap/internal/stream"
	"github.com/lkaiser/livecap/internal/summary"
	"github.com/lkaiser/livecap/internal/ui"
)

func (m Model) filesPanelWidth() int {
	if m.width == 0 {
		return 24
	}
	return max(20, m.width*20/100)
}

func (m Model) summaryPanelWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(30, m.width*40/100)
}

func (m Model) playerPanelWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(24, m.width-m.filesPanelWidth()-m.summaryPanelWidth()-2)
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + dividers(2) + error(1) + footer(1)
	return max(6, m.height-6)
}

// refreshSummaryViewport loads the active non-graph view into the
// viewport. The rendered view is cached by content version, so switching
// tabs does not re-render unchanged markdown.
func (m *Model) refreshSummaryViewport() {
	switch m.summaryState.Active() {
	case summary.ViewRendered:
		out, err := m.summaryState.Rendered(m.viewport.Width)
		if err != nil {
			out = ui.ErrorTextStyle.Render("render failed: " + err.Error())
		}
		m.viewport.SetContent(out)
	case summary.ViewSource:
		m.viewport.SetContent(m.summaryState.Text())
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("LIVECAP")
	if m.session != nil {
		return title + ui.DimStyle.Render(" — "+m.session.File())
	}
	return title
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.session == nil {
		dot = ui.IdleDotStyle.Render("○ IDLE")
	} else {
		switch m.session.State() {
		case stream.StateConnecting:
			dot = m.spin.View() + " " + ui.StatusStyle.Render("CONNECTING")
		case stream.StateStreaming:
			dot = m.spin.View() + " " + ui.StreamingDotStyle.Render("TRANSCRIBING")
		case stream.StateCompleted:
			dot = ui.ReadyDotStyle.Render("● READY")
		case stream.StateErrored:
			dot = ui.ErrorStyle.Render("✗ ERROR")
		default:
			dot = ui.IdleDotStyle.Render("○ IDLE")
		}
	}

	return dot + "  " + ui.StatusStyle.Render(m.statusText)
}

func (m Model) renderMainContent() string {
	filesW := m.filesPanelWidth()
	playerW := m.playerPanelWidth()
	summaryW := m.summaryPanelWidth()
	h := m.contentHeight()

	files := strings.Split(m.renderFilesPanel(filesW, h), "\n")
	pl := strings.Split(m.renderPlayerPanel(playerW, h), "\n")
	sum := strings.Split(m.renderSummaryPanel(summaryW, h), "\n")

	divider := ui.DividerStyle.Render("│")

	var rows []string
	for i := 0; i < h; i++ {
		rows = append(rows, line(files, i, filesW)+divider+line(pl, i, playerW)+divider+line(sum, i, summaryW))
	}
	return strings.Join(rows, "\n")
}

func line(lines []string, i, width int) string {
	if i < len(lines) {
		return padRight(lines[i], width)
	}
	return strings.Repeat(" ", width)
}

func (m Model) renderFilesPanel(width, height int) string {
	header := fmt.Sprintf("FILES (%d)", len(m.files))
	if m.focus == FocusFiles {
		header = ui.PanelTitleActiveStyle.Render(header)
	} else {
		header = ui.PanelTitleStyle.Render(header)
	}

	lines := []string{header}
	if len(m.files) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No media files"))
		lines = append(lines, ui.DimStyle.Render("  (.mp4 .mp3 .wav)"))
	}
	for i, f := range m.files {
		marker := "  "
		if m.session != nil && m.session.File() == f {
			marker = "▸ "
		}
		l := marker + f
		if i == m.fileIndex && m.focus == FocusFiles {
			l = ui.SelectedStyle.Render(l)
		}
		lines = append(lines, truncateToWidth(l, width))
	}

	return clampLines(lines, width, height)
}

func (m Model) renderPlayerPanel(width, height int) string {
	header := "PLAYER"
	if m.focus == FocusPlayer {
		header = ui.PanelTitleActiveStyle.Render(header)
	} else {
		header = ui.PanelTitleStyle.Render(header)
	}

	lines := []string{header}

	if m.session == nil {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Select a file and press Enter"))
		return clampLines(lines, width, height)
	}

	pos := formatClock(m.clock.Position())
	dur := formatClock(m.clock.Duration())
	state := "⏸"
	if m.clock.Playing() {
		state = "▶"
	}
	lines = append(lines, "  "+state+" "+ui.TimestampStyle.Render(pos+" / "+dur))
	lines = append(lines, "  "+m.renderProgress(width-4))
	lines = append(lines, "")

	// Caption overlay
	switch {
	case !m.captionsOn:
		lines = append(lines, ui.DimStyle.Render("  captions off"))
	default:
		if cue, ok := m.activeCaption(); ok {
			wrapped := wordwrap.String(cue.Text, max(10, width-4))
			for _, cl := range strings.Split(wrapped, "\n") {
				lines = append(lines, "  "+ui.CaptionStyle.Render(cl))
			}
		}
	}

	if warn := m.compiler.Warning(); warn != nil {
		lines = append(lines, "")
		lines = append(lines, ui.ErrorTextStyle.Render("  subtitle compile: "+warn.Error()))
	}

	return clampLines(lines, width, height)
}

func (m Model) renderProgress(width int) string {
	if width < 4 {
		return ""
	}
	frac := 0.0
	if m.clock.Duration() > 0 {
		frac = m.clock.Position() / m.clock.Duration()
	}
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	return ui.ProgressFilledStyle.Render(strings.Repeat("━", filled)) +
		ui.ProgressEmptyStyle.Render(strings.Repeat("─", width-filled))
}

func (m Model) renderSummaryPanel(width, height int) string {
	lines := []string{m.renderSummaryTabs()}

	if m.summaryState.Empty() {
		lines = append(lines, "")
		if m.session != nil && m.session.State() == stream.StateStreaming {
			lines = append(lines, ui.DimStyle.Render("  Summary arrives after transcription"))
		} else {
			lines = append(lines, ui.DimStyle.Render("  No summary yet"))
		}
		return clampLines(lines, width, height)
	}

	switch m.summaryState.Active() {
	case summary.ViewGraph:
		lines = append(lines, m.renderGraph(width, height-1)...)
	default:
		lines = append(lines, strings.Split(m.viewport.View(), "\n")...)
	}

	return clampLines(lines, width, height)
}

func (m Model) renderSummaryTabs() string {
	var tabs []string
	for _, v := range []summary.View{summary.ViewGraph, summary.ViewRendered, summary.ViewSource} {
		name := strings.ToUpper(v.String())
		if v == m.summaryState.Active() && m.focus == FocusSummary {
			tabs = append(tabs, ui.TabActiveStyle.Render(name))
		} else if v == m.summaryState.Active() {
			tabs = append(tabs, ui.PanelTitleStyle.Render(name))
		} else {
			tabs = append(tabs, ui.TabStyle.Render(name))
		}
	}
	return strings.Join(tabs, ui.DimStyle.Render(" · "))
}

// renderGraph draws the outline rows with the current pan and collapse
// transform applied.
func (m Model) renderGraph(width, height int) []string {
	if !m.graphView.Visible() {
		return []string{"", ui.DimStyle.Render("  [s] show summary graph")}
	}

	rows := summary.LayoutOutline(m.outline, m.transform.Depth)
	var lines []string
	for i, row := range rows {
		if i < m.transform.Y {
			continue
		}
		glyph := "·"
		if row.Collapsed {
			glyph = "▸"
		}
		indent := strings.Repeat("  ", max(0, row.Depth-1))
		text := indent + ui.OutlineBranchStyle.Render(glyph) + " " + ui.OutlineNodeStyle.Render(row.Text)
		lines = append(lines, truncateToWidth(shiftLeft(text, m.transform.X), width))
		if len(lines) >= height {
			break
		}
	}
	if len(lines) == 0 {
		lines = append(lines, ui.DimStyle.Render("  (empty outline)"))
	}
	return lines
}

// shiftLeft drops n leading display columns, used for horizontal panning.
// Styled text is panned before styling would matter, so the plain-rune cut
// is fine for the indent region.
func shiftLeft(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if n >= len(runes) {
		return ""
	}
	return string(runes[n:])
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string
	parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Select"))
	parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Play"))
	parts = append(parts, ui.FooterKeyStyle.Render("←→")+ui.FooterDescStyle.Render(" Seek"))
	parts = append(parts, ui.FooterKeyStyle.Render("c")+ui.FooterDescStyle.Render(" Captions"))
	parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Graph"))
	parts = append(parts, ui.FooterKeyStyle.Render("v")+ui.FooterDescStyle.Render(" View"))
	parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" Focus"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))
	return strings.Join(parts, "  ")
}

// Helpers

func formatClock(sec float64) string {
	total := int(sec)
	h := total / 3600
	mnt := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%02d:%02d", mnt, s)
}

func clampLines(lines []string, width, height int) string {
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}
