// Package timescale converts between calendar time and canvas pixels.
//
// It generates the header columns for a zoom level, derives the
// pixels-per-day density, maps task date ranges to bar geometry and back,
// and memoizes the whole layout per render input.
package timescale

import (
	"fmt"
	"strings"

	"github.com/imkarma/gantt/internal/calendar"
)

// Scale is a named zoom granularity.
type Scale string

const (
	Day     Scale = "day"
	Week    Scale = "week"
	Sprint  Scale = "sprint"
	Month   Scale = "month"
	Quarter Scale = "quarter"
)

// Scales lists every scale from finest to coarsest.
var Scales = []Scale{Day, Week, Sprint, Month, Quarter}

// ParseScale accepts a scale name, case-insensitively.
func ParseScale(s string) (Scale, error) {
	sc := Scale(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Scales {
		if sc == known {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown time scale %q (want day, week, sprint, month or quarter)", s)
}

// ZoomIn returns the next finer scale, or s itself at the finest level.
func (s Scale) ZoomIn() Scale {
	i := s.index()
	if i <= 0 {
		return Scales[0]
	}
	return Scales[i-1]
}

// ZoomOut returns the next coarser scale, or s itself at the coarsest level.
func (s Scale) ZoomOut() Scale {
	i := s.index()
	if i < 0 {
		return Scales[0]
	}
	if i >= len(Scales)-1 {
		return Scales[len(Scales)-1]
	}
	return Scales[i+1]
}

func (s Scale) index() int {
	for i, known := range Scales {
		if s == known {
			return i
		}
	}
	return -1
}

// Pixel-per-day bands. Every scale shares the floor; the ceiling shrinks as
// buckets get wider.
const (
	minDayWidth     = 8.0
	fallbackDayWide = 20.0
)

func maxDayWidth(s Scale) float64 {
	switch s {
	case Day:
		return 32
	case Week:
		return 28
	case Sprint:
		return 24
	case Month:
		return 16
	default:
		return 14
	}
}

// DayWidth derives pixels-per-day from the container width and the number of
// visible days, clamped to the scale's band.
func DayWidth(s Scale, containerWidth float64, days int) float64 {
	if days <= 0 {
		return fallbackDayWide
	}
	w := containerWidth / float64(days)
	if w < minDayWidth {
		return minDayWidth
	}
	if max := maxDayWidth(s); w > max {
		return max
	}
	return w
}

// VisibleRange is a half-open [Start, End) window of calendar days.
type VisibleRange struct {
	Start calendar.Date
	End   calendar.Date
}

// Days returns the number of days in the range.
func (r VisibleRange) Days() int {
	return calendar.DaysBetween(r.Start, r.End)
}

// Contains reports whether d lies in [Start, End].
func (r VisibleRange) Contains(d calendar.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// GetVisibleDateRange returns the default window around center for s.
func GetVisibleDateRange(s Scale, center calendar.Date) VisibleRange {
	switch s {
	case Day:
		return VisibleRange{Start: center.AddDays(-7), End: center.AddDays(21)}
	case Week:
		return VisibleRange{Start: center.AddDays(-21), End: center.AddDays(35)}
	case Sprint:
		return VisibleRange{Start: center.AddDays(-28), End: center.AddDays(56)}
	case Month:
		return VisibleRange{Start: center.AddMonths(-2), End: center.AddMonths(4)}
	default:
		return VisibleRange{Start: center.AddMonths(-3), End: center.AddMonths(6)}
	}
}

// Widen grows r so it covers [start, end]. It never narrows r.
func (r VisibleRange) Widen(start, end calendar.Date) VisibleRange {
	return VisibleRange{
		Start: calendar.Min(r.Start, start),
		End:   calendar.Max(r.End, end),
	}
}

// SnapToGrid rounds d down to the start of its bucket on scale s.
func SnapToGrid(d calendar.Date, s Scale) calendar.Date {
	switch s {
	case Day:
		return d
	case Week, Sprint:
		return d.AddDays(-int(d.Weekday()))
	case Month:
		return calendar.New(d.Year, d.Month, 1)
	default:
		m := d.Month - (d.Month-1)%3
		return calendar.New(d.Year, m, 1)
	}
}
