package sequence

import (
	"fmt"
	"math"
)

// Interval is the span during which entry Index is on screen. The first
// Overlap seconds are shared with the previous entry.
type Interval struct {
	Index   int
	Start   float64
	End     float64
	Length  float64
	Overlap float64
}

// Duration returns the entry's display time. It is kept separately from
// End - Start so rounding never makes a clamped overlap look too long.
func (iv Interval) Duration() float64 { return iv.Length }

// Timeline is the explicit list of intervals and the resulting length.
type Timeline struct {
	Intervals []Interval
	Total     float64
}

// NewTimeline places each entry so that it starts when the previous one
// ends minus the shared overlap.
func NewTimeline(entries []Entry) *Timeline {
	tl := &Timeline{Intervals: make([]Interval, len(entries))}

	end := 0.0
	for i, e := range entries {
		start := 0.0
		if i > 0 {
			start = end - e.TransitionIn
		}
		end = start + e.Duration
		tl.Intervals[i] = Interval{Index: i, Start: start, End: end, Length: e.Duration, Overlap: e.TransitionIn}
	}
	tl.Total = end

	return tl
}

// SumDurations returns the sum of every interval's length.
func (tl *Timeline) SumDurations() float64 {
	sum := 0.0
	for _, iv := range tl.Intervals {
		sum += iv.Duration()
	}
	return sum
}

// SumOverlaps returns the time shared between neighbours.
func (tl *Timeline) SumOverlaps() float64 {
	sum := 0.0
	for _, iv := range tl.Intervals {
		sum += iv.Overlap
	}
	return sum
}

// Validate checks that no overlap exceeds half of either neighbour and that
// every interval has a positive, finite length. NaN fails every check.
func (tl *Timeline) Validate() error {
	for i, iv := range tl.Intervals {
		if !(iv.Duration() > 0) || math.IsInf(iv.Duration(), 1) {
			return fmt.Errorf("interval %d has invalid length %v", i, iv.Duration())
		}
		if !(iv.Overlap >= 0) {
			return fmt.Errorf("interval %d has invalid overlap %v", i, iv.Overlap)
		}
		if i == 0 {
			if iv.Overlap != 0 {
				return fmt.Errorf("first interval cannot overlap")
			}
			continue
		}
		prev := tl.Intervals[i-1]
		if iv.Overlap > iv.Duration()/2 || iv.Overlap > prev.Duration()/2 {
			return fmt.Errorf("overlap %.3f at interval %d exceeds half of a neighbour", iv.Overlap, i)
		}
		if iv.Start < prev.Start {
			return fmt.Errorf("interval %d starts before interval %d", i, i-1)
		}
	}
	return nil
}
