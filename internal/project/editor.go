// Package project holds the authoritative task list of an open project.
//
// Every mutation builds a new slice, records the previous one for undo and
// hands the new one to the save queue. Nothing else writes tasks.
package project

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/imkarma/gantt/internal/store"
)

// DefaultHistoryLimit caps the undo stack.
const DefaultHistoryLimit = 20

// Queue receives every list the editor settles on.
type Queue interface {
	Enqueue(tasks []store.Task)
}

// Options configures an Editor.
type Options struct {
	ProjectID    string
	HistoryLimit int
	NewID        func() string
	Now          func() time.Time
}

// Editor is owned by a single goroutine.
type Editor struct {
	wired    bool
	queue    Queue
	opts     Options
	tasks    []store.Task
	undo     [][]store.Task // oldest first
	redo     [][]store.Task
	selected string
}

// NewEditor returns an editor feeding q. A nil queue panics.
func NewEditor(q Queue, opts Options) *Editor {
	if q == nil {
		panic("project: NewEditor called with a nil queue")
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Editor{wired: true, queue: q, opts: opts}
}

func (e *Editor) check() {
	if e == nil || !e.wired {
		panic("project: Editor used without NewEditor")
	}
}

// SetTasks loads a freshly fetched list. History is cleared and nothing is
// enqueued.
func (e *Editor) SetTasks(tasks []store.Task) {
	e.check()
	e.tasks = slices.Clone(tasks)
	e.undo = nil
	e.redo = nil
	if _, ok := e.Task(e.selected); !ok {
		e.selected = ""
	}
}

// Tasks returns a copy of the current list.
func (e *Editor) Tasks() []store.Task {
	e.check()
	return slices.Clone(e.tasks)
}

// Task looks up one task by id.
func (e *Editor) Task(id string) (store.Task, bool) {
	e.check()
	i := e.index(id)
	if i < 0 {
		return store.Task{}, false
	}
	return e.tasks[i], true
}

func (e *Editor) index(id string) int {
	return slices.IndexFunc(e.tasks, func(t store.Task) bool { return t.ID == id })
}

// UpdateTask applies patch to the task with the given id.
// It reports false, and records nothing, when the id is unknown or the patch
// is empty.
func (e *Editor) UpdateTask(id string, patch store.TaskPatch) bool {
	e.check()
	i := e.index(id)
	if i < 0 || patch.IsEmpty() {
		return false
	}
	next := slices.Clone(e.tasks)
	next[i] = patch.Apply(next[i])
	e.commit(next)
	return true
}

// AddTask appends t, filling in id, project, position and creation time
// when unset, and returns the stored task.
func (e *Editor) AddTask(t store.Task) store.Task {
	e.check()
	if t.ID == "" {
		t.ID = e.opts.NewID()
	}
	if t.ProjectID == "" {
		t.ProjectID = e.opts.ProjectID
	}
	if t.Position == 0 {
		t.Position = e.nextPosition()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = e.opts.Now()
	}
	next := append(slices.Clone(e.tasks), t)
	e.commit(next)
	return t
}

func (e *Editor) nextPosition() int {
	pos := 0
	for _, t := range e.tasks {
		pos = max(pos, t.Position)
	}
	return pos + 1
}

// RemoveTask deletes the task with the given id.
func (e *Editor) RemoveTask(id string) bool {
	e.check()
	i := e.index(id)
	if i < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(e.tasks), i, i+1)
	if e.selected == id {
		e.selected = ""
	}
	e.commit(next)
	return true
}

// ReplaceAll swaps in a whole list, e.g. a restored version, as one
// undoable edit.
func (e *Editor) ReplaceAll(tasks []store.Task) {
	e.check()
	e.commit(slices.Clone(tasks))
}

func (e *Editor) commit(next []store.Task) {
	e.undo = append(e.undo, e.tasks)
	if over := len(e.undo) - e.opts.HistoryLimit; over > 0 {
		e.undo = slices.Delete(e.undo, 0, over)
	}
	e.redo = nil
	e.tasks = next
	e.enqueue()
}

// Undo restores the previous list and saves it.
func (e *Editor) Undo() bool {
	e.check()
	if len(e.undo) == 0 {
		return false
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, e.tasks)
	e.tasks = prev
	e.enqueue()
	return true
}

// Redo re-applies the last undone list and saves it.
func (e *Editor) Redo() bool {
	e.check()
	if len(e.redo) == 0 {
		return false
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, e.tasks)
	e.tasks = next
	e.enqueue()
	return true
}

// Save enqueues the current list without touching history.
func (e *Editor) Save() {
	e.check()
	e.enqueue()
}

func (e *Editor) enqueue() {
	e.queue.Enqueue(slices.Clone(e.tasks))
}

// CanUndo reports whether Undo would do anything.
func (e *Editor) CanUndo() bool { e.check(); return len(e.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (e *Editor) CanRedo() bool { e.check(); return len(e.redo) > 0 }

// Select marks a task as selected. An empty id clears the selection.
func (e *Editor) Select(id string) {
	e.check()
	e.selected = id
}

// Selected returns the selected task id, or "".
func (e *Editor) Selected() string {
	e.check()
	return e.selected
}

// HandleShortcut routes the global save/undo/redo keys. It reports whether
// key was one of them.
func (e *Editor) HandleShortcut(key string) bool {
	e.check()
	switch key {
	case "ctrl+s":
		e.Save()
	case "ctrl+z":
		e.Undo()
	case "ctrl+y", "ctrl+shift+z":
		e.Redo()
	default:
		return false
	}
	return true
}
