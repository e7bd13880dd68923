package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imkarma/gantt/internal/autosave"
	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/canvas"
	"github.com/imkarma/gantt/internal/project"
	"github.com/imkarma/gantt/internal/store"
	"github.com/imkarma/gantt/internal/timescale"
)

// popup represents which dialog, if any, is on top of the chart.
type popup int

const (
	popupNone     popup = iota
	popupCreate         // new task: name, start, end
	popupRename         // rename the selected task
	popupVersions       // pick a version to restore
)

// Rows above the first task row: title, column labels, ruler.
const chartTop = 3

// Rows below the last task row: indicator, status, footer.
const chartBottom = 3

// Options configure the interactive chart.
type Options struct {
	ReadOnly        bool
	Scale           timescale.Scale
	ContainerWidth  float64 // used until the terminal size is known
	CellPx          float64
	MaxVisibleTasks int
	DefaultColor    string
	User            string // recorded as the author of snapshots
	Now             func() time.Time
}

// sink collects what the canvas reports while one message is handled.
type sink struct {
	announcements []string
}

// Model is the top-level bubbletea model.
type Model struct {
	session *project.Session
	editor  *project.Editor
	canvas  *canvas.Canvas
	memo    *timescale.Memo
	sink    *sink
	opts    Options

	scale   timescale.Scale
	width   int
	height  int
	scrollX int // first chart cell on screen
	scrollY int // first task row on screen

	save autosave.State

	// Text inputs for the create/rename dialogs.
	popup        popup
	inputs       []textinput.Model
	inputFocused int

	versions      []store.Version
	versionCursor int

	exportPending bool

	statusMsg  string
	statusTime time.Time

	quitting  bool
	forceQuit bool
}

// New creates a new TUI model for an open project session.
func New(session *project.Session, opts Options) Model {
	if opts.CellPx <= 0 {
		opts.CellPx = 8
	}
	if opts.ContainerWidth <= 0 {
		opts.ContainerWidth = 1200
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = store.DefaultColor
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scale == "" {
		opts.Scale = timescale.Week
	}

	ed := session.Editor()
	sk := &sink{}
	cv := canvas.New(canvas.Options{
		ReadOnly:        opts.ReadOnly,
		MaxVisibleTasks: opts.MaxVisibleTasks,
		OnUpdate:        func(id string, p store.TaskPatch) { ed.UpdateTask(id, p) },
		OnDelete:        func(id string) { ed.RemoveTask(id) },
		OnSelect:        ed.Select,
		OnExport:        session.RequestExport,
		Announce:        func(msg string) { sk.announcements = append(sk.announcements, msg) },
	})

	name := textinput.New()
	name.Placeholder = "Task name..."
	name.CharLimit = 120
	name.Width = 40

	start := textinput.New()
	start.Placeholder = calendar.ISOLayout
	start.CharLimit = 10
	start.Width = 12

	end := textinput.New()
	end.Placeholder = calendar.ISOLayout
	end.CharLimit = 10
	end.Width = 12

	m := Model{
		session: session,
		editor:  ed,
		canvas:  cv,
		memo:    &timescale.Memo{},
		sink:    sk,
		opts:    opts,
		scale:   opts.Scale,
		save:    session.SaveState(),
		inputs:  []textinput.Model{name, start, end},
	}
	m.syncCanvas()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSave(m.session.States()), tickCmd())
}

type saveStateMsg autosave.State

type tickMsg time.Time

type quitMsg struct{ err error }

type versionsMsg struct {
	versions []store.Version
	err      error
}

// waitForSave delivers the next autosave state change.
func waitForSave(ch <-chan autosave.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return saveStateMsg(st)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) loadVersions() tea.Cmd {
	return func() tea.Msg {
		vs, err := m.session.Versions()
		return versionsMsg{versions: vs, err: err}
	}
}

func (m Model) flushAndQuit() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return quitMsg{err: m.session.Flush(ctx)}
	}
}

func (m Model) today() calendar.Date {
	return calendar.Today(m.opts.Now())
}

// chartCells is how many chart cells fit next to the gutter.
func (m Model) chartCells() int {
	if m.width <= 0 {
		return int(m.opts.ContainerWidth / m.opts.CellPx)
	}
	return max(10, m.width-gutterWidth)
}

// taskRows is how many task rows fit on screen.
func (m Model) taskRows() int {
	if m.height <= 0 {
		return 20
	}
	return max(1, m.height-chartTop-chartBottom)
}

func (m Model) containerWidth() float64 {
	if m.width <= 0 {
		return m.opts.ContainerWidth
	}
	return float64(m.chartCells()) * m.opts.CellPx
}

func (m Model) layout() timescale.Layout {
	return m.memo.Get(spansOf(m.editor.Tasks()), m.scale, m.containerWidth(), m.today())
}

// syncCanvas hands the canvas the editor's current list and density.
func (m *Model) syncCanvas() {
	l := m.layout()
	m.canvas.Sync(m.editor.Tasks(), l.PixelsPerDay)
	m.canvas.SetSelected(m.editor.Selected())
	m.clampScroll()
}

func (m Model) frame() frame {
	drag := ""
	if s, ok := m.canvas.Session(); ok {
		drag = s.TaskID
	}
	return frame{
		layout:   m.layout(),
		tasks:    m.canvas.Visible(),
		cellPx:   m.opts.CellPx,
		offset:   m.scrollX,
		cells:    m.chartCells(),
		selected: m.editor.Selected(),
		dragging: drag,
		readOnly: m.opts.ReadOnly,
		color:    m.opts.DefaultColor,
	}
}

func (m *Model) clampScroll() {
	maxX := max(0, totalCells(m.layout(), m.opts.CellPx)-m.chartCells())
	m.scrollX = min(max(m.scrollX, 0), maxX)
	maxY := max(0, len(m.canvas.Visible())-m.taskRows())
	m.scrollY = min(max(m.scrollY, 0), maxY)
}

// scrollToToday puts the today marker a third of the way into the view.
func (m *Model) scrollToToday() {
	f := m.frame()
	if c, ok := f.todayCell(); ok {
		m.scrollX = c - m.chartCells()/3
	}
	m.clampScroll()
}

// revealSelected scrolls so the selected row is on screen.
func (m *Model) revealSelected() {
	for i, t := range m.canvas.Visible() {
		if t.ID != m.editor.Selected() {
			continue
		}
		if i < m.scrollY {
			m.scrollY = i
		}
		if i >= m.scrollY+m.taskRows() {
			m.scrollY = i - m.taskRows() + 1
		}
		break
	}
	m.clampScroll()
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTime = m.opts.Now()
}

// drain moves canvas announcements into the status line.
func (m *Model) drain() {
	if n := len(m.sink.announcements); n > 0 {
		m.setStatus(m.sink.announcements[n-1])
		m.sink.announcements = m.sink.announcements[:0]
	}
}
