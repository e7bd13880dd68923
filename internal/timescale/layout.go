package timescale

import (
	"hash/fnv"
	"io"
	"strconv"

	"github.com/imkarma/gantt/internal/calendar"
)

// Span is the part of a task that layout cares about.
type Span struct {
	ID         string
	Start, End calendar.Date
}

// Bar is the laid-out geometry of one task.
type Bar struct {
	TaskID    string
	Position  Position
	Milestone bool
}

// Layout is everything the canvas needs for one render pass.
type Layout struct {
	Scale        Scale
	Range        VisibleRange
	Columns      []Column
	PixelsPerDay float64
	TotalWidth   float64
	Bars         []Bar // same order as the input spans
	Today        float64
	ShowToday    bool
}

// EffectiveRange is the default window around today widened to cover the
// earliest task start and the latest task end.
func EffectiveRange(spans []Span, s Scale, today calendar.Date) VisibleRange {
	r := GetVisibleDateRange(s, today)
	for _, sp := range spans {
		end := sp.End
		if !end.After(sp.Start) {
			end = sp.Start.AddDays(1)
		}
		r = r.Widen(sp.Start, end)
	}
	return r
}

// Compute lays out spans for the given scale, container width and day.
// It is a pure function of its arguments.
func Compute(spans []Span, s Scale, containerWidth float64, today calendar.Date) Layout {
	r := EffectiveRange(spans, s, today)
	cols, dayWidth := GenerateHeaders(r.Start, r.End, s, containerWidth)

	bars := make([]Bar, len(spans))
	for i, sp := range spans {
		bars[i] = Bar{
			TaskID:    sp.ID,
			Position:  PositionAt(sp.Start, sp.End, r.Start, dayWidth),
			Milestone: IsMilestone(sp.Start, sp.End),
		}
	}

	l := Layout{
		Scale:        s,
		Range:        r,
		Columns:      cols,
		PixelsPerDay: dayWidth,
		TotalWidth:   TotalWidth(cols),
		Bars:         bars,
	}
	l.Today, l.ShowToday = TodayOffset(today, r, dayWidth)
	return l
}

// Bar returns the bar for taskID.
func (l Layout) Bar(taskID string) (Bar, bool) {
	for _, b := range l.Bars {
		if b.TaskID == taskID {
			return b, true
		}
	}
	return Bar{}, false
}

type memoKey struct {
	spans uint64
	scale Scale
	width float64
	today calendar.Date
}

// Memo caches the last Layout keyed on (spans, scale, width, today).
// It is not safe for concurrent use.
type Memo struct {
	key   memoKey
	value Layout
	valid bool
	hits  int
}

// Get returns the cached layout when the inputs are unchanged and
// recomputes it otherwise.
func (m *Memo) Get(spans []Span, s Scale, containerWidth float64, today calendar.Date) Layout {
	k := memoKey{spans: fingerprint(spans), scale: s, width: containerWidth, today: today}
	if m.valid && m.key == k {
		m.hits++
		return m.value
	}
	m.key = k
	m.value = Compute(spans, s, containerWidth, today)
	m.valid = true
	return m.value
}

// Hits reports how many Get calls were served from cache.
func (m *Memo) Hits() int { return m.hits }

// fingerprint hashes the spans in order.
func fingerprint(spans []Span) uint64 {
	h := fnv.New64a()
	for _, sp := range spans {
		io.WriteString(h, sp.ID)
		h.Write([]byte{0})
		io.WriteString(h, sp.Start.String())
		io.WriteString(h, sp.End.String())
		h.Write([]byte{0})
	}
	io.WriteString(h, strconv.Itoa(len(spans)))
	return h.Sum64()
}
