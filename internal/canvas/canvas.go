// Package canvas turns pointer and keyboard input over the chart into task
// updates. It never writes tasks itself; accepted gestures are reported
// through the callbacks in Options.
package canvas

import (
	"fmt"
	"slices"

	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/store"
	"github.com/imkarma/gantt/internal/timescale"
)

// DefaultMaxVisibleTasks caps how many tasks are rendered and interactive.
const DefaultMaxVisibleTasks = 200

// Mode is the kind of drag in progress.
type Mode int

const (
	Move Mode = iota + 1
	ResizeStart
	ResizeEnd
)

func (m Mode) String() string {
	switch m {
	case Move:
		return "move"
	case ResizeStart:
		return "resize-start"
	case ResizeEnd:
		return "resize-end"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Session is the reference frame of one drag. Start and End are the task's
// dates at pointer-down; every move is computed against them.
type Session struct {
	Mode    Mode
	TaskID  string
	OriginX float64
	Start   calendar.Date
	End     calendar.Date
}

// Export formats accepted by Export.
const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Options wires the canvas to its owner. Nil callbacks are skipped.
type Options struct {
	ReadOnly        bool
	MaxVisibleTasks int

	OnUpdate func(taskID string, patch store.TaskPatch)
	OnDelete func(taskID string)
	OnSelect func(taskID string)
	OnExport func(format string)
	Announce func(message string)
}

// Canvas is owned by a single goroutine.
type Canvas struct {
	opts         Options
	tasks        []store.Task
	pixelsPerDay float64
	selected     string
	session      *Session
}

// New creates a canvas.
func New(opts Options) *Canvas {
	if opts.MaxVisibleTasks <= 0 {
		opts.MaxVisibleTasks = DefaultMaxVisibleTasks
	}
	return &Canvas{opts: opts}
}

// ReadOnly reports whether mutation is disabled.
func (c *Canvas) ReadOnly() bool { return c.opts.ReadOnly }

// Sync hands the canvas the current task list and density. The slice is
// only read.
func (c *Canvas) Sync(tasks []store.Task, pixelsPerDay float64) {
	c.tasks = tasks
	c.pixelsPerDay = pixelsPerDay
	if c.session != nil && c.visibleIndex(c.session.TaskID) < 0 {
		c.session = nil
	}
}

// Visible returns the tasks that are rendered, in order.
func (c *Canvas) Visible() []store.Task {
	if len(c.tasks) > c.opts.MaxVisibleTasks {
		return c.tasks[:c.opts.MaxVisibleTasks]
	}
	return c.tasks
}

// Hidden returns how many tasks were cut off by the visible cap.
func (c *Canvas) Hidden() int {
	return max(0, len(c.tasks)-c.opts.MaxVisibleTasks)
}

func (c *Canvas) visibleIndex(id string) int {
	return slices.IndexFunc(c.Visible(), func(t store.Task) bool { return t.ID == id })
}

// Selected returns the selected task id, or "".
func (c *Canvas) Selected() string { return c.selected }

// SetSelected mirrors a selection made elsewhere without announcing it.
func (c *Canvas) SetSelected(id string) { c.selected = id }

// Select selects a visible task and announces it.
func (c *Canvas) Select(id string) bool {
	i := c.visibleIndex(id)
	if i < 0 {
		return false
	}
	c.selected = id
	if c.opts.OnSelect != nil {
		c.opts.OnSelect(id)
	}
	c.announce("Selected " + c.Visible()[i].Name)
	return true
}

// Session returns the active drag, if any.
func (c *Canvas) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// PointerDown starts a drag on a visible task. It is refused in read-only
// mode, while another drag is active, and for resizing a milestone.
func (c *Canvas) PointerDown(taskID string, mode Mode, x float64) bool {
	if c.opts.ReadOnly || c.session != nil {
		return false
	}
	i := c.visibleIndex(taskID)
	if i < 0 {
		return false
	}
	t := c.Visible()[i]
	if mode != Move && timescale.IsMilestone(t.StartDate, t.EndDate) {
		return false
	}
	switch mode {
	case Move, ResizeStart, ResizeEnd:
	default:
		return false
	}
	if c.selected != taskID {
		c.Select(taskID)
	}
	c.session = &Session{Mode: mode, TaskID: taskID, OriginX: x, Start: t.StartDate, End: t.EndDate}
	return true
}

// PointerMove converts the pointer offset into whole days and, when that is
// not zero, emits the clamped update. It returns the emitted patch.
func (c *Canvas) PointerMove(x float64) (store.TaskPatch, bool) {
	if c.session == nil || c.opts.ReadOnly {
		return store.TaskPatch{}, false
	}
	delta := timescale.DeltaDays(x-c.session.OriginX, c.pixelsPerDay)
	if delta == 0 {
		return store.TaskPatch{}, false
	}
	patch := SessionPatch(*c.session, delta)
	c.emit(c.session.TaskID, patch)
	return patch, true
}

// PointerUp ends the drag where it is.
func (c *Canvas) PointerUp() { c.session = nil }

// PointerLeave cancels the drag at its last emitted position. Nothing is
// rolled back.
func (c *Canvas) PointerLeave() { c.session = nil }

// Shift moves the range delta days according to mode, then clamps.
func Shift(mode Mode, start, end calendar.Date, delta int) (calendar.Date, calendar.Date) {
	switch mode {
	case Move:
		start, end = start.AddDays(delta), end.AddDays(delta)
	case ResizeStart:
		start = start.AddDays(delta)
	case ResizeEnd:
		end = end.AddDays(delta)
	}
	return Clamp(start, end)
}

// Clamp forces end = start + 1 day when start >= end.
func Clamp(start, end calendar.Date) (calendar.Date, calendar.Date) {
	if !start.Before(end) {
		end = start.AddDays(1)
	}
	return start, end
}

// SessionPatch builds the update for a drag that has travelled delta days.
// Only dates that differ from the session's reference frame are set.
func SessionPatch(s Session, delta int) store.TaskPatch {
	start, end := Shift(s.Mode, s.Start, s.End, delta)
	var p store.TaskPatch
	if !start.Equal(s.Start) || s.Mode == Move {
		p.StartDate = &start
	}
	if !end.Equal(s.End) || s.Mode == Move {
		p.EndDate = &end
	}
	return p
}

// Nudge applies a one-off keyboard drag of delta days to the selected task.
// It goes through the same gates and clamp as a pointer drag.
func (c *Canvas) Nudge(mode Mode, delta int) (store.TaskPatch, bool) {
	if c.opts.ReadOnly || c.session != nil || delta == 0 {
		return store.TaskPatch{}, false
	}
	i := c.visibleIndex(c.selected)
	if i < 0 {
		return store.TaskPatch{}, false
	}
	t := c.Visible()[i]
	if mode != Move && timescale.IsMilestone(t.StartDate, t.EndDate) {
		// A milestone can only be widened from its end.
		if mode != ResizeEnd || delta < 0 {
			return store.TaskPatch{}, false
		}
	}
	patch := SessionPatch(Session{Mode: mode, TaskID: t.ID, Start: t.StartDate, End: t.EndDate}, delta)
	if patch.IsEmpty() {
		return patch, false
	}
	c.emit(t.ID, patch)
	return patch, true
}

func (c *Canvas) emit(id string, patch store.TaskPatch) {
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(id, patch)
	}
}

// Key names understood by KeyDown.
const (
	KeyUp     = "up"
	KeyDown   = "down"
	KeyDelete = "delete"
)

// KeyDown handles selection and deletion keys. It reports whether the key
// was consumed.
func (c *Canvas) KeyDown(key string) bool {
	switch key {
	case KeyUp, KeyDown:
		visible := c.Visible()
		if len(visible) == 0 {
			return false
		}
		i := c.visibleIndex(c.selected)
		if key == KeyDown {
			i = min(i+1, len(visible)-1)
		} else {
			i = max(i-1, 0)
		}
		if visible[i].ID != c.selected {
			c.Select(visible[i].ID)
		}
		return true
	case KeyDelete:
		if c.opts.ReadOnly || c.selected == "" || c.visibleIndex(c.selected) < 0 {
			return false
		}
		id := c.selected
		c.selected = ""
		if c.session != nil && c.session.TaskID == id {
			c.session = nil
		}
		if c.opts.OnDelete != nil {
			c.opts.OnDelete(id)
		}
		c.announce("Task deleted")
		return true
	}
	return false
}

// Export asks the owner to render the chart in format.
func (c *Canvas) Export(format string) error {
	switch format {
	case FormatPNG, FormatPDF:
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if c.opts.OnExport != nil {
		c.opts.OnExport(format)
	}
	c.announce("Export requested: " + format)
	return nil
}

func (c *Canvas) announce(msg string) {
	if c.opts.Announce != nil {
		c.opts.Announce(msg)
	}
}
