// Package grid holds the calendar grid geometry math: converting between
// pixel offsets and wall-clock times, snapping to the minute grid, and
// clamping drag/resize ranges to the visible day.
package grid

import (
	"time"
)

// MinEventDuration is the shortest range a resize may produce.
const MinEventDuration = 15 * time.Minute

// Geometry describes one day column of the calendar grid.
type Geometry struct {
	DayStartHour  int     // First visible hour (inclusive)
	DayEndHour    int     // Last visible hour (exclusive)
	PixelsPerHour float64 // Vertical scale
	SnapMinutes   int     // Snap interval; 0 disables snapping
}

// DayBounds returns the visible start and end instants for the day
// containing t, in t's location.
func (g Geometry) DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, g.DayStartHour, 0, 0, 0, t.Location())
	end := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(time.Duration(g.DayEndHour) * time.Hour)
	return start, end
}

// TimeAtOffset converts a pixel offset from the top of a day column into a
// time within that day. The result is clamped to the visible range and
// snapped to the grid.
func (g Geometry) TimeAtOffset(day time.Time, offsetPx float64) time.Time {
	start, end := g.DayBounds(day)
	if g.PixelsPerHour <= 0 {
		return start
	}

	minutes := offsetPx / g.PixelsPerHour * 60
	t := start.Add(time.Duration(minutes * float64(time.Minute)))
	t = g.Snap(t)

	if t.Before(start) {
		return start
	}
	if t.After(end) {
		return end
	}
	return t
}

// OffsetForTime converts a time into the pixel offset from the top of its
// day column. Times outside the visible range clamp to the column edges.
func (g Geometry) OffsetForTime(t time.Time) float64 {
	start, end := g.DayBounds(t)
	if t.Before(start) {
		t = start
	}
	if t.After(end) {
		t = end
	}
	return t.Sub(start).Hours() * g.PixelsPerHour
}

// Snap rounds t to the nearest snap interval. A zero interval returns t
// unchanged.
func (g Geometry) Snap(t time.Time) time.Time {
	if g.SnapMinutes <= 0 {
		return t
	}
	interval := time.Duration(g.SnapMinutes) * time.Minute
	return t.Round(interval)
}

// ClampRange forces [start, end) inside the visible day and keeps the
// range at least MinEventDuration long. The start edge wins: when the
// range must shrink, the end moves.
func (g Geometry) ClampRange(start, end time.Time) (time.Time, time.Time) {
	dayStart, dayEnd := g.DayBounds(start)

	if start.Before(dayStart) {
		start = dayStart
	}
	if start.After(dayEnd.Add(-MinEventDuration)) {
		start = dayEnd.Add(-MinEventDuration)
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	if end.Before(start.Add(MinEventDuration)) {
		end = start.Add(MinEventDuration)
	}
	return start, end
}

// Drag moves an event range by a vertical pixel delta, preserving its
// duration and keeping it inside the day.
func (g Geometry) Drag(start, end time.Time, deltaPx float64) (time.Time, time.Time) {
	if g.PixelsPerHour <= 0 {
		return start, end
	}
	duration := end.Sub(start)

	minutes := deltaPx / g.PixelsPerHour * 60
	moved := g.Snap(start.Add(time.Duration(minutes * float64(time.Minute))))

	dayStart, dayEnd := g.DayBounds(start)
	if moved.Before(dayStart) {
		moved = dayStart
	}
	if moved.Add(duration).After(dayEnd) {
		moved = dayEnd.Add(-duration)
	}
	return moved, moved.Add(duration)
}

// Resize moves the end edge of an event range by a vertical pixel delta.
// The result stays inside the day and never undercuts MinEventDuration.
func (g Geometry) Resize(start, end time.Time, deltaPx float64) (time.Time, time.Time) {
	if g.PixelsPerHour <= 0 {
		return start, end
	}

	minutes := deltaPx / g.PixelsPerHour * 60
	newEnd := g.Snap(end.Add(time.Duration(minutes * float64(time.Minute))))
	return g.ClampRange(start, newEnd)
}

// SnapRange snaps both edges of a range, preserving a non-empty result.
func (g Geometry) SnapRange(start, end time.Time) (time.Time, time.Time) {
	s := g.Snap(start)
	e := g.Snap(end)
	if !e.After(s) {
		e = s.Add(MinEventDuration)
	}
	return s, e
}
