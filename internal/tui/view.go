package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// statusTTL is how long a status message stays on screen.
const statusTTL = 5 * time.Second

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrWhite     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	headerStyle   = lipgloss.NewStyle().Foreground(clrWhite)
	dimStyle      = lipgloss.NewStyle().Foreground(clrDim)
	subtleStyle   = lipgloss.NewStyle().Foreground(clrSubtle)
	selectedStyle = lipgloss.NewStyle().Foreground(clrHighlight).Bold(true)
	weekendStyle  = lipgloss.NewStyle().Foreground(clrDim)
	todayStyle    = lipgloss.NewStyle().Foreground(clrRed)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(60)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(clrYellow)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

// View implements tea.Model.
func (m Model) View() string {
	content := m.viewChart()

	// Overlay popup if active.
	if m.popup != popupNone {
		content = m.overlayPopup(content)
	}

	return content
}

func (m Model) viewChart() string {
	var b strings.Builder
	f := m.frame()

	// Header.
	p := m.session.Project()
	header := titleStyle.Render(p.Name)
	header += dimStyle.Render(fmt.Sprintf(" · %d tasks · %s", len(m.editor.Tasks()), m.scale))
	if m.opts.ReadOnly {
		header += warnStyle.Render(" · read-only")
	}
	right := m.saveIndicator()
	headerLine := header
	if m.width > 0 {
		pad := m.width - lipgloss.Width(header) - lipgloss.Width(right)
		if pad > 0 {
			headerLine = header + strings.Repeat(" ", pad) + right
		} else {
			headerLine = header + "  " + right
		}
	}
	b.WriteString(headerLine + "\n")

	labels, ruler := f.headerLines()
	b.WriteString(labels + "\n" + ruler + "\n")

	visible := f.tasks
	rows := m.taskRows()
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  No tasks yet. Press ") +
			footerKeyStyle.Render("n") +
			dimStyle.Render(" to add one.") + "\n")
		rows--
	}
	end := min(len(visible), m.scrollY+rows)
	for i := m.scrollY; i < end; i++ {
		b.WriteString(f.row(i) + "\n")
	}
	for i := end - m.scrollY; i < rows; i++ {
		b.WriteString("\n")
	}

	// Count-remaining indicator.
	if hidden := m.canvas.Hidden(); hidden > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  + %d more tasks not shown", hidden)))
	} else if d, ok := m.canvas.Session(); ok {
		t, _ := m.editor.Task(d.TaskID)
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s %s → %s..%s", d.Mode, t.Name, t.StartDate, t.EndDate)))
	}
	b.WriteString("\n")

	// Status bar.
	if m.statusMsg != "" {
		lower := strings.ToLower(m.statusMsg)
		if strings.HasPrefix(lower, "failed") || strings.Contains(lower, "failed:") || strings.HasPrefix(lower, "conflict") {
			b.WriteString(errorStyle.Render("  " + m.statusMsg))
		} else {
			b.WriteString(statusStyle.Render("  " + m.statusMsg))
		}
	}
	b.WriteString("\n")

	// Footer.
	b.WriteString(m.chartFooter())

	return b.String()
}

func (m Model) saveIndicator() string {
	st := m.save
	switch {
	case st.Conflict:
		return errorStyle.Render("● conflict")
	case st.Error != "":
		return errorStyle.Render("● save failed")
	case st.IsSaving:
		return warnStyle.Render("● saving")
	case st.Dirty:
		return warnStyle.Render("● unsaved")
	case !st.LastSavedAt.IsZero():
		return statusStyle.Render("● saved " + st.LastSavedAt.Format("15:04:05"))
	default:
		return dimStyle.Render("● saved")
	}
}

func (m Model) chartFooter() string {
	if m.opts.ReadOnly {
		return renderFooter(helpFor(keys.Up, keys.ZoomIn, keys.PickScale, keys.ScrollLeft, keys.Today, keys.Export, keys.Versions, keys.Quit))
	}
	return renderFooter(helpFor(
		keys.Up, keys.MoveLeft, keys.EndLeft, keys.StartLeft, keys.New, keys.Delete,
		keys.ZoomIn, keys.ScrollLeft, keys.Undo, keys.Redo, keys.Version, keys.Export, keys.Quit,
	))
}

// --- Popups ---

func (m Model) overlayPopup(bg string) string {
	var popup string

	switch m.popup {
	case popupCreate:
		popup = m.viewCreatePopup()
	case popupRename:
		popup = m.viewRenamePopup()
	case popupVersions:
		popup = m.viewVersionsPopup()
	default:
		return bg
	}

	// Place popup in center of screen.
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			popup,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return popup
}

func (m Model) viewCreatePopup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New task") + "\n\n")
	labels := []string{"Name ", "Start", "End  "}
	for i, in := range m.inputs {
		label := subtleStyle.Render(labels[i])
		if i == m.inputFocused {
			label = selectedStyle.Render(labels[i])
		}
		b.WriteString(label + "  " + in.View() + "\n")
	}
	if strings.HasPrefix(m.statusMsg, "Invalid") || strings.HasPrefix(m.statusMsg, "Name") {
		b.WriteString("\n" + errorStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString("\n" + renderFooter([]struct{ key, desc string }{
		{"tab", "next field"},
		{"enter", "add"},
		{"esc", "cancel"},
	}))
	return popupStyle.Render(b.String())
}

func (m Model) viewRenamePopup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Rename task") + "\n\n")
	b.WriteString(m.inputs[0].View() + "\n\n")
	b.WriteString(renderFooter([]struct{ key, desc string }{
		{"enter", "save"},
		{"esc", "cancel"},
	}))
	return popupStyle.Render(b.String())
}

func (m Model) viewVersionsPopup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Versions") + "\n\n")
	for i, v := range m.versions {
		line := fmt.Sprintf("v%-3d %s  %2d tasks  %s",
			v.VersionNumber, v.CreatedAt.Local().Format("2006-01-02 15:04"), len(v.Tasks), truncate(v.CreatedBy, 16))
		if i == m.versionCursor {
			b.WriteString(selectedStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(subtleStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n" + renderFooter([]struct{ key, desc string }{
		{"j/k", "navigate"},
		{"enter", "restore"},
		{"esc", "close"},
	}))
	return popupStyle.Render(b.String())
}

func renderFooter(keys []struct{ key, desc string }) string {
	var parts []string
	for _, k := range keys {
		key := footerKeyStyle.Render(k.key)
		desc := footerDescStyle.Render(k.desc)
		parts = append(parts, key+" "+desc)
	}
	return "  " + strings.Join(parts, "  ")
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
