package store

import (
	"time"

	"github.com/imkarma/gantt/internal/calendar"
)

// DefaultColor is used for bars whose task has no color set.
const DefaultColor = "#5c7cfa"

// Project groups the tasks of one Gantt chart.
// Revision increments on every successful task save and is the basis for
// conflict detection.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is one bar on the chart. Start is inclusive, End exclusive.
type Task struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"projectId"`
	Name      string        `json:"name"`
	StartDate calendar.Date `json:"startDate"`
	EndDate   calendar.Date `json:"endDate"`
	Color     string        `json:"color,omitempty"` // empty = DefaultColor
	Position  int           `json:"position"`
	CreatedAt time.Time     `json:"createdAt"`
}

// DisplayColor returns the task color or DefaultColor.
func (t Task) DisplayColor() string {
	if t.Color == "" {
		return DefaultColor
	}
	return t.Color
}

// TaskPatch carries only the fields being changed. Nil means unchanged.
type TaskPatch struct {
	Name      *string        `json:"name,omitempty"`
	StartDate *calendar.Date `json:"startDate,omitempty"`
	EndDate   *calendar.Date `json:"endDate,omitempty"`
	Color     *string        `json:"color,omitempty"`
	Position  *int           `json:"position,omitempty"`
}

// DatePatch builds a patch that sets both dates.
func DatePatch(start, end calendar.Date) TaskPatch {
	return TaskPatch{StartDate: &start, EndDate: &end}
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.StartDate == nil && p.EndDate == nil && p.Color == nil && p.Position == nil
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	return t
}

// Version is a saved snapshot of a project's task list.
type Version struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	VersionNumber int       `json:"versionNumber"`
	Tasks         []Task    `json:"tasks"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Event represents something that happened to a project.
type Event struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Type      string    `json:"event_type"` // created, saved, conflict, version, restored, export_requested
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
