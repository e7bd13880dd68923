package tui

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imkarma/gantt/internal/autosave"
	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/canvas"
	"github.com/imkarma/gantt/internal/store"
	"github.com/imkarma/gantt/internal/timescale"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		// If popup is active, handle popup keys first.
		if m.popup != popupNone {
			return m.handlePopupKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.popup != popupNone {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		first := m.width == 0
		m.width = msg.Width
		m.height = msg.Height
		m.syncCanvas()
		if first {
			m.scrollToToday()
		}
		return m, nil

	case saveStateMsg:
		prev := m.save
		m.save = autosave.State(msg)
		if m.save.Conflict && !prev.Conflict {
			m.setStatus("Conflict: project changed elsewhere. Press R to reload")
		} else if m.save.Error != "" && prev.Error == "" {
			m.setStatus("Save failed: " + m.save.Error)
		}
		return m, waitForSave(m.session.States())

	case versionsMsg:
		if msg.err != nil {
			m.setStatus("Failed to load versions: " + msg.err.Error())
			return m, nil
		}
		if len(msg.versions) == 0 {
			m.setStatus("No versions yet. Press v to take a snapshot")
			return m, nil
		}
		m.versions = msg.versions
		m.versionCursor = 0
		m.popup = popupVersions
		return m, nil

	case quitMsg:
		if msg.err != nil {
			log.Printf("flush on quit: %v", msg.err)
			m.quitting = false
			m.forceQuit = true
			m.setStatus("Save failed: " + msg.err.Error() + ". Press q again to quit anyway")
			return m, nil
		}
		return m, tea.Quit

	case tickMsg:
		if m.statusMsg != "" && m.opts.Now().Sub(m.statusTime) > statusTTL {
			m.statusMsg = ""
		}
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.exportPending {
		m.exportPending = false
		switch msg.String() {
		case "p":
			m.canvas.Export(canvas.FormatPNG)
		case "d":
			m.canvas.Export(canvas.FormatPDF)
		default:
			m.setStatus("Export cancelled")
		}
		m.drain()
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Cancel):
		if _, ok := m.canvas.Session(); ok {
			m.canvas.PointerLeave()
		}
		m.statusMsg = ""
		return m, nil

	case key.Matches(msg, keys.Save, keys.Undo, keys.Redo):
		if m.opts.ReadOnly {
			m.setStatus("Read-only")
			return m, nil
		}
		// ctrl+shift+z arrives under several names depending on the terminal.
		name := msg.String()
		if key.Matches(msg, keys.Redo) {
			name = "ctrl+y"
		}
		m.editor.HandleShortcut(name)
		m.syncCanvas()
		switch {
		case key.Matches(msg, keys.Save):
			m.setStatus("Saving...")
		case key.Matches(msg, keys.Undo):
			m.setStatus("Undo")
		default:
			m.setStatus("Redo")
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		m.canvas.KeyDown(canvas.KeyUp)
	case key.Matches(msg, keys.Down):
		m.canvas.KeyDown(canvas.KeyDown)
	case key.Matches(msg, keys.Delete):
		if m.opts.ReadOnly {
			m.setStatus("Read-only")
			return m, nil
		}
		m.canvas.KeyDown(canvas.KeyDelete)

	case key.Matches(msg, keys.MoveLeft):
		m.nudge(canvas.Move, -1)
	case key.Matches(msg, keys.MoveRight):
		m.nudge(canvas.Move, 1)
	case key.Matches(msg, keys.EndLeft):
		m.nudge(canvas.ResizeEnd, -1)
	case key.Matches(msg, keys.EndRight):
		m.nudge(canvas.ResizeEnd, 1)
	case key.Matches(msg, keys.StartLeft):
		m.nudge(canvas.ResizeStart, -1)
	case key.Matches(msg, keys.StartRight):
		m.nudge(canvas.ResizeStart, 1)

	case key.Matches(msg, keys.ZoomIn):
		m.setScale(m.scale.ZoomIn())
	case key.Matches(msg, keys.ZoomOut):
		m.setScale(m.scale.ZoomOut())
	case key.Matches(msg, keys.PickScale):
		i := int(msg.String()[0] - '1')
		m.setScale(timescale.Scales[i])

	case key.Matches(msg, keys.ScrollLeft):
		m.scrollX -= m.chartCells() / 4
		m.clampScroll()
	case key.Matches(msg, keys.ScrollRight):
		m.scrollX += m.chartCells() / 4
		m.clampScroll()
	case key.Matches(msg, keys.Today):
		m.scrollToToday()

	case key.Matches(msg, keys.New):
		if m.opts.ReadOnly {
			m.setStatus("Read-only")
			return m, nil
		}
		return m.openCreate()
	case key.Matches(msg, keys.Rename):
		if m.opts.ReadOnly || m.editor.Selected() == "" {
			return m, nil
		}
		return m.openRename()
	case key.Matches(msg, keys.Reload):
		if err := m.session.Reload(context.Background()); err != nil {
			m.setStatus("Reload failed: " + err.Error())
			return m, nil
		}
		m.save = m.session.SaveState()
		m.syncCanvas()
		m.setStatus("Reloaded from store")
		return m, nil

	case key.Matches(msg, keys.Export):
		m.exportPending = true
		m.setStatus("Export: p = png, d = pdf")
		return m, nil
	case key.Matches(msg, keys.Version):
		if m.opts.ReadOnly {
			m.setStatus("Read-only")
			return m, nil
		}
		v, err := m.session.CreateVersion(m.opts.User)
		if err != nil {
			m.setStatus("Snapshot failed: " + err.Error())
			return m, nil
		}
		m.setStatus("Saved version " + strconv.Itoa(v.VersionNumber))
		return m, nil
	case key.Matches(msg, keys.Versions):
		return m, m.loadVersions()

	default:
		return m, nil
	}

	m.syncCanvas()
	m.revealSelected()
	m.drain()
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.forceQuit {
		return m, tea.Quit
	}
	if _, ok := m.canvas.Session(); ok {
		m.canvas.PointerUp()
	}
	st := m.session.SaveState()
	if st.Dirty || st.IsSaving {
		m.quitting = true
		m.setStatus("Saving before quit...")
		return m, m.flushAndQuit()
	}
	return m, tea.Quit
}

func (m *Model) nudge(mode canvas.Mode, days int) {
	if m.opts.ReadOnly {
		m.setStatus("Read-only")
		return
	}
	if m.editor.Selected() == "" {
		m.setStatus("Select a task first")
		return
	}
	if _, ok := m.canvas.Nudge(mode, days); !ok && mode != canvas.Move {
		m.setStatus("Milestones can only be moved or widened")
	}
}

func (m *Model) setScale(s timescale.Scale) {
	if s == m.scale {
		return
	}
	m.scale = s
	m.syncCanvas()
	m.scrollToToday()
	m.setStatus("Scale: " + string(s))
}

// --- Mouse ---

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollY--
		m.clampScroll()
		return m, nil
	case tea.MouseButtonWheelDown:
		m.scrollY++
		m.clampScroll()
		return m, nil
	case tea.MouseButtonWheelLeft:
		m.scrollX -= 4
		m.clampScroll()
		return m, nil
	case tea.MouseButtonWheelRight:
		m.scrollX += 4
		m.clampScroll()
		return m, nil
	}

	_, dragging := m.canvas.Session()
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.pointerDown(msg.X, msg.Y)

	case tea.MouseActionMotion:
		if !dragging {
			return m, nil
		}
		if !m.insideChart(msg.X, msg.Y) {
			m.canvas.PointerLeave()
			break
		}
		m.canvas.PointerMove(m.pxAt(msg.X))

	case tea.MouseActionRelease:
		if dragging {
			m.canvas.PointerUp()
		}
	}

	m.syncCanvas()
	m.drain()
	return m, nil
}

func (m *Model) pointerDown(x, y int) {
	i, ok := m.rowAt(y)
	if !ok {
		return
	}
	t := m.canvas.Visible()[i]
	if x < gutterWidth {
		m.canvas.Select(t.ID)
		return
	}
	mode, onBar := m.hitTest(i, m.scrollX+x-gutterWidth)
	if !onBar || m.opts.ReadOnly {
		m.canvas.Select(t.ID)
		return
	}
	m.canvas.PointerDown(t.ID, mode, m.pxAt(x))
}

// rowAt maps a screen row to an index into the visible tasks.
func (m Model) rowAt(y int) (int, bool) {
	r := y - chartTop
	if r < 0 || r >= m.taskRows() {
		return 0, false
	}
	i := r + m.scrollY
	if i >= len(m.canvas.Visible()) {
		return 0, false
	}
	return i, true
}

func (m Model) insideChart(x, y int) bool {
	_, ok := m.rowAt(y)
	return ok && x >= gutterWidth && x < gutterWidth+m.chartCells()
}

// pxAt returns the chart px at the middle of screen column x.
func (m Model) pxAt(x int) float64 {
	return (float64(m.scrollX+x-gutterWidth) + 0.5) * m.opts.CellPx
}

// hitTest decides what a press on chart cell c of row i grabs.
func (m Model) hitTest(i, c int) (canvas.Mode, bool) {
	f := m.frame()
	bar := f.layout.Bars[i]
	s, e := span(bar.Position, f.cellPx)
	if bar.Milestone {
		e = s + 1
	}
	if c < s || c >= e {
		return 0, false
	}
	if f.hasHandles(bar.Milestone, e-s) {
		switch c {
		case s:
			return canvas.ResizeStart, true
		case e - 1:
			return canvas.ResizeEnd, true
		}
	}
	return canvas.Move, true
}

// --- Popups ---

func (m Model) openCreate() (tea.Model, tea.Cmd) {
	start := m.today()
	if t, ok := m.editor.Task(m.editor.Selected()); ok {
		start = t.EndDate
	}
	m.inputs[0].SetValue("")
	m.inputs[1].SetValue(start.String())
	m.inputs[2].SetValue(start.AddDays(3).String())
	m.focusInput(0)
	m.popup = popupCreate
	return m, textinput.Blink
}

func (m Model) openRename() (tea.Model, tea.Cmd) {
	t, ok := m.editor.Task(m.editor.Selected())
	if !ok {
		return m, nil
	}
	m.inputs[0].SetValue(t.Name)
	m.inputs[0].CursorEnd()
	m.focusInput(0)
	m.popup = popupRename
	return m, textinput.Blink
}

func (m *Model) focusInput(i int) {
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	m.inputFocused = i
}

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.popup {
	case popupCreate:
		return m.handleCreatePopup(msg)
	case popupRename:
		return m.handleRenamePopup(msg)
	case popupVersions:
		return m.handleVersionsPopup(msg)
	}
	return m, nil
}

func (m Model) handleCreatePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.popup = popupNone
		return m, nil
	case "tab", "shift+tab":
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.inputs) - 1
		}
		m.focusInput((m.inputFocused + step) % len(m.inputs))
		return m, textinput.Blink
	case "enter":
		name := strings.TrimSpace(m.inputs[0].Value())
		if name == "" {
			m.setStatus("Name cannot be empty")
			return m, nil
		}
		start, err := calendar.Parse(m.inputs[1].Value())
		if err != nil {
			m.setStatus("Invalid start date: " + err.Error())
			return m, nil
		}
		end, err := calendar.Parse(m.inputs[2].Value())
		if err != nil {
			m.setStatus("Invalid end date: " + err.Error())
			return m, nil
		}
		start, end = canvas.Clamp(start, end)
		t := m.editor.AddTask(store.Task{Name: name, StartDate: start, EndDate: end})
		m.popup = popupNone
		m.syncCanvas()
		m.canvas.Select(t.ID)
		m.revealSelected()
		m.drain()
		m.setStatus("Added " + name)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.inputFocused], cmd = m.inputs[m.inputFocused].Update(msg)
	return m, cmd
}

func (m Model) handleRenamePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.popup = popupNone
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.inputs[0].Value())
		if name == "" {
			m.setStatus("Name cannot be empty")
			return m, nil
		}
		m.editor.UpdateTask(m.editor.Selected(), store.TaskPatch{Name: &name})
		m.popup = popupNone
		m.syncCanvas()
		m.setStatus("Renamed to " + name)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[0], cmd = m.inputs[0].Update(msg)
	return m, cmd
}

func (m Model) handleVersionsPopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.popup = popupNone
	case "j", "down":
		m.versionCursor = min(m.versionCursor+1, len(m.versions)-1)
	case "k", "up":
		m.versionCursor = max(m.versionCursor-1, 0)
	case "enter":
		if m.opts.ReadOnly {
			m.setStatus("Read-only")
			m.popup = popupNone
			return m, nil
		}
		v := m.versions[m.versionCursor]
		if _, err := m.session.RestoreVersion(v.VersionNumber); err != nil {
			m.setStatus("Restore failed: " + err.Error())
		} else {
			m.setStatus("Restored version " + strconv.Itoa(v.VersionNumber))
		}
		m.popup = popupNone
		m.syncCanvas()
	}
	return m, nil
}
