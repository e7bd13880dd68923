package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/store"
	"github.com/imkarma/gantt/internal/timescale"
)

const gutterWidth = 22

// cell kinds inside a chart row
type cellKind int

const (
	cellBlank cellKind = iota
	cellWeekend
	cellToday
	cellBar
	cellHandle
	cellMilestone
)

// frame is one horizontal window onto a laid-out chart.
type frame struct {
	layout   timescale.Layout
	tasks    []store.Task // the visible prefix of the laid-out tasks
	cellPx   float64
	offset   int // first chart cell shown
	cells    int // chart cells shown
	selected string
	dragging string
	readOnly bool
	color    string
}

// cellOf maps a px offset to the terminal cell containing it.
func cellOf(px, cellPx float64) int {
	return int(math.Floor(px/cellPx + 1e-9))
}

// span returns the [first, last) cells covered by a position. It always
// covers at least one cell.
func span(p timescale.Position, cellPx float64) (int, int) {
	s := cellOf(p.Left, cellPx)
	e := int(math.Ceil(p.Right()/cellPx - 1e-9))
	if e <= s {
		e = s + 1
	}
	return s, e
}

// totalCells is the width of the whole chart in cells.
// spansOf projects tasks onto the fields the layout reads.
func spansOf(tasks []store.Task) []timescale.Span {
	out := make([]timescale.Span, len(tasks))
	for i, t := range tasks {
		out[i] = timescale.Span{ID: t.ID, Start: t.StartDate, End: t.EndDate}
	}
	return out
}

func totalCells(l timescale.Layout, cellPx float64) int {
	return int(math.Ceil(l.TotalWidth/cellPx - 1e-9))
}

// dateAtCell returns the day under the middle of a cell.
func (f frame) dateAtCell(c int) calendar.Date {
	return timescale.DateAt((float64(c)+0.5)*f.cellPx, f.layout.Range.Start, f.layout.PixelsPerDay)
}

func (f frame) todayCell() (int, bool) {
	if !f.layout.ShowToday {
		return 0, false
	}
	return cellOf(f.layout.Today, f.cellPx), true
}

// hasHandles reports whether a bar spanning n cells gets resize handles.
func (f frame) hasHandles(milestone bool, n int) bool {
	return !f.readOnly && !milestone && n >= 3
}

func (f frame) headerLines() (string, string) {
	labels := []rune(strings.Repeat(" ", f.cells))
	ruler := []rune(strings.Repeat("─", f.cells))
	x := 0.0
	for _, col := range f.layout.Columns {
		s, e := span(timescale.Position{Left: x, Width: col.Width}, f.cellPx)
		x += col.Width
		if e <= f.offset || s >= f.offset+f.cells {
			continue
		}
		if i := s - f.offset; i >= 0 {
			ruler[i] = '┬'
		}
		label := []rune(col.Label)
		room := e - s - 1
		for j := 0; j < len(label) && j < room; j++ {
			if i := s - f.offset + j; i >= 0 && i < f.cells {
				labels[i] = label[j]
			}
		}
	}
	if c, ok := f.todayCell(); ok {
		if i := c - f.offset; i >= 0 && i < f.cells {
			ruler[i] = '▼'
		}
	}
	pad := strings.Repeat(" ", gutterWidth)
	return pad + headerStyle.Render(string(labels)), pad + dimStyle.Render(string(ruler))
}

func (f frame) row(i int) string {
	t := f.tasks[i]
	bar := f.layout.Bars[i]

	runes := make([]rune, f.cells)
	kinds := make([]cellKind, f.cells)

	weekends := f.layout.Scale == timescale.Day
	today, showToday := f.todayCell()
	for j := range runes {
		c := f.offset + j
		runes[j] = ' '
		switch {
		case showToday && c == today:
			runes[j], kinds[j] = '│', cellToday
		case weekends && f.dateAtCell(c).IsWeekend():
			runes[j], kinds[j] = '·', cellWeekend
		}
	}

	s, e := span(bar.Position, f.cellPx)
	if bar.Milestone {
		e = s + 1
	}
	handles := f.hasHandles(bar.Milestone, e-s)
	name := []rune(" " + t.Name)
	for c := s; c < e; c++ {
		j := c - f.offset
		if j < 0 || j >= f.cells {
			continue
		}
		switch {
		case bar.Milestone:
			runes[j], kinds[j] = '◆', cellMilestone
		case handles && (c == s || c == e-1):
			runes[j], kinds[j] = '┃', cellHandle
		default:
			k := c - s
			if handles {
				k--
			}
			r := ' '
			if k >= 0 && k < len(name) {
				r = name[k]
			}
			runes[j], kinds[j] = r, cellBar
		}
	}

	var b strings.Builder
	b.WriteString(f.gutter(t))
	barStyle := f.barStyle(t)
	for j := 0; j < len(runes); {
		k := j
		for k < len(runes) && kinds[k] == kinds[j] {
			k++
		}
		seg := string(runes[j:k])
		switch kinds[j] {
		case cellWeekend:
			b.WriteString(weekendStyle.Render(seg))
		case cellToday:
			b.WriteString(todayStyle.Render(seg))
		case cellBar:
			b.WriteString(barStyle.Render(seg))
		case cellHandle:
			b.WriteString(barStyle.Bold(true).Render(seg))
		case cellMilestone:
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(f.colorOf(t))).Bold(true).Render(seg))
		default:
			b.WriteString(seg)
		}
		j = k
	}
	return b.String()
}

func (f frame) colorOf(t store.Task) string {
	if t.Color != "" {
		return t.Color
	}
	return f.color
}

func (f frame) barStyle(t store.Task) lipgloss.Style {
	st := lipgloss.NewStyle().
		Background(lipgloss.Color(f.colorOf(t))).
		Foreground(lipgloss.Color("#FFFFFF"))
	if t.ID == f.selected {
		st = st.Bold(true).Underline(true)
	}
	if t.ID == f.dragging {
		st = st.Reverse(true)
	}
	return st
}

func (f frame) gutter(t store.Task) string {
	marker := "  "
	style := subtleStyle
	if t.ID == f.selected {
		marker = "▸ "
		style = selectedStyle
	}
	label := truncate(t.Name, gutterWidth-3)
	return style.Render(fmt.Sprintf("%s%-*s ", marker, gutterWidth-3, label))
}

// ChartOptions configure a static chart rendering.
type ChartOptions struct {
	Scale           timescale.Scale
	ContainerWidth  float64
	CellPx          float64
	MaxVisibleTasks int
	DefaultColor    string
	Today           calendar.Date
}

// RenderChart draws the whole chart for tasks, without interaction.
func RenderChart(tasks []store.Task, opts ChartOptions) string {
	if opts.CellPx <= 0 {
		opts.CellPx = 8
	}
	if opts.ContainerWidth <= 0 {
		opts.ContainerWidth = 1200
	}
	if opts.MaxVisibleTasks <= 0 {
		opts.MaxVisibleTasks = 200
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = store.DefaultColor
	}
	l := timescale.Compute(spansOf(tasks), opts.Scale, opts.ContainerWidth, opts.Today)

	visible := tasks
	if len(visible) > opts.MaxVisibleTasks {
		visible = visible[:opts.MaxVisibleTasks]
	}
	f := frame{
		layout:   l,
		tasks:    visible,
		cellPx:   opts.CellPx,
		cells:    totalCells(l, opts.CellPx),
		readOnly: true,
		color:    opts.DefaultColor,
	}

	var b strings.Builder
	labels, ruler := f.headerLines()
	b.WriteString(labels + "\n" + ruler + "\n")
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  No tasks yet.") + "\n")
	}
	for i := range visible {
		b.WriteString(f.row(i) + "\n")
	}
	if hidden := len(tasks) - len(visible); hidden > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  + %d more tasks not shown", hidden)) + "\n")
	}
	return b.String()
}
