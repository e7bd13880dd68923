package timescale

import "github.com/imkarma/gantt/internal/calendar"

// Column is one header bucket of the time axis.
type Column struct {
	Label string
	Start calendar.Date
	End   calendar.Date // exclusive
	Width float64       // px
}

// Days returns the number of calendar days the column spans.
func (c Column) Days() int {
	return calendar.DaysBetween(c.Start, c.End)
}

// GenerateHeaders tiles [rangeStart, rangeEnd) with the buckets of scale s
// and returns them together with the pixels-per-day density.
//
// Every column width is pixelsPerDay times the true number of days in the
// bucket, so month and quarter columns stay proportional to elapsed time.
// A bucket that would cross rangeEnd is cut at rangeEnd.
func GenerateHeaders(rangeStart, rangeEnd calendar.Date, s Scale, containerWidth float64) ([]Column, float64) {
	totalDays := calendar.DaysBetween(rangeStart, rangeEnd)
	if totalDays == 0 {
		totalDays = 1
	}
	dayWidth := DayWidth(s, containerWidth, totalDays)

	var cols []Column
	cursor := rangeStart
	for cursor.Before(rangeEnd) {
		next := bucketEnd(cursor, s)
		if next.After(rangeEnd) {
			next = rangeEnd
		}
		cols = append(cols, Column{
			Label: headerLabel(cursor, next, s),
			Start: cursor,
			End:   next,
			Width: dayWidth * float64(calendar.DaysBetween(cursor, next)),
		})
		cursor = next
	}
	return cols, dayWidth
}

func bucketEnd(start calendar.Date, s Scale) calendar.Date {
	switch s {
	case Day:
		return start.AddDays(1)
	case Week:
		return start.AddDays(7)
	case Sprint:
		return start.AddDays(14)
	case Month:
		return start.AddMonths(1)
	default:
		return start.AddMonths(3)
	}
}

func headerLabel(start, end calendar.Date, s Scale) string {
	switch s {
	case Day:
		return start.Format("Jan 2")
	case Week, Sprint:
		last := end.AddDays(-1)
		return start.Format("Jan 2") + "–" + last.Format("Jan 2")
	case Month:
		return start.Format("Jan 2006")
	default:
		return start.Format("Jan") + "–" + start.AddMonths(2).Format("Jan 2006")
	}
}

// TotalWidth sums the column widths; it is the canvas width in px.
func TotalWidth(cols []Column) float64 {
	var w float64
	for _, c := range cols {
		w += c.Width
	}
	return w
}
