package timescale

import (
	"math"

	"github.com/imkarma/gantt/internal/calendar"
)

// Position is the horizontal geometry of one task bar in px.
type Position struct {
	Left  float64
	Width float64
}

// Right returns Left + Width.
func (p Position) Right() float64 { return p.Left + p.Width }

// DurationDays returns the rendered duration of [start, end) in days. A
// degenerate range (end <= start) renders as one day so the bar stays
// visible and grabbable.
func DurationDays(start, end calendar.Date) int {
	n := calendar.DaysBetween(start, end)
	if n < 1 {
		return 1
	}
	return n
}

// IsMilestone reports whether the range renders as a single day-unit point
// marker instead of a bar.
func IsMilestone(start, end calendar.Date) bool {
	return DurationDays(start, end) == 1
}

// CalculateTaskPosition maps a span onto the canvas for the given scale,
// container width and visible range.
func CalculateTaskPosition(span Span, s Scale, containerWidth float64, rangeStart, rangeEnd calendar.Date) Position {
	totalDays := calendar.DaysBetween(rangeStart, rangeEnd)
	if totalDays < 1 {
		totalDays = 1
	}
	return PositionAt(span.Start, span.End, rangeStart, DayWidth(s, containerWidth, totalDays))
}

// PositionAt maps [start, end) to px for a known pixels-per-day density.
func PositionAt(start, end, rangeStart calendar.Date, dayWidth float64) Position {
	return Position{
		Left:  float64(calendar.DaysBetween(rangeStart, start)) * dayWidth,
		Width: float64(DurationDays(start, end)) * dayWidth,
	}
}

// TodayOffset returns the px offset of the today marker and whether it is
// shown at all. Today outside [rangeStart, rangeEnd] is omitted.
func TodayOffset(today calendar.Date, r VisibleRange, dayWidth float64) (float64, bool) {
	if !r.Contains(today) {
		return 0, false
	}
	return float64(calendar.DaysBetween(r.Start, today)) * dayWidth, true
}

// DeltaDays converts a horizontal pointer delta in px to whole days,
// rounding half away from zero.
func DeltaDays(deltaX, dayWidth float64) int {
	if dayWidth <= 0 {
		return 0
	}
	return int(math.Round(deltaX / dayWidth))
}

// DateAt returns the calendar day under canvas offset x.
func DateAt(x float64, rangeStart calendar.Date, dayWidth float64) calendar.Date {
	if dayWidth <= 0 || x <= 0 {
		return rangeStart
	}
	return rangeStart.AddDays(int(math.Floor(x / dayWidth)))
}
