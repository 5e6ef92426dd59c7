// Package sequence lays prepared clips onto a single timeline with
// overlapping transition windows.
package sequence

import (
	"errors"
	"fmt"
	"math"

	"sly/models"
)

// Entry is one clip in the plan.
type Entry struct {
	Clip     *models.Clip
	Duration float64
	// TransitionIn is the overlap with the previous entry. Always 0 for
	// the first entry.
	TransitionIn float64
	Title        bool
}

// Plan is the ordered, immutable sequence of entries.
type Plan struct {
	entries []Entry
}

// ClampTransition limits a transition so that neither neighbour gives up
// more than half of its display time to the overlap.
func ClampTransition(transition, prev, cur float64) float64 {
	if transition <= 0 {
		return 0
	}
	return math.Min(transition, math.Min(prev/2, cur/2))
}

// BuildPlan orders the title clip (if any) ahead of clips and assigns every
// non-first entry its clamped transition-in. The title never overlaps on its
// leading edge because it is always entry 0.
func BuildPlan(title *models.Clip, clips []*models.Clip, transition float64) (*Plan, error) {
	if transition < 0 || math.IsNaN(transition) || math.IsInf(transition, 0) {
		return nil, &models.ConfigError{Problems: []string{"transition duration cannot be negative"}}
	}

	all := make([]*models.Clip, 0, len(clips)+1)
	if title != nil {
		all = append(all, title)
	}
	all = append(all, clips...)

	if len(all) == 0 {
		return nil, errors.New("cannot build a slideshow from zero clips")
	}

	entries := make([]Entry, len(all))
	for i, clip := range all {
		if clip == nil {
			return nil, fmt.Errorf("clip %d is nil", i)
		}
		if err := clip.Validate(); err != nil {
			return nil, fmt.Errorf("clip %d (%s): %w", i, clip.Label(), err)
		}

		entry := Entry{
			Clip:     clip,
			Duration: clip.Duration,
			Title:    clip.Kind == models.KindTitle,
		}
		if i > 0 {
			entry.TransitionIn = ClampTransition(transition, entries[i-1].Duration, clip.Duration)
		}
		entries[i] = entry
	}

	return &Plan{entries: entries}, nil
}

// Entries returns a copy of the plan's entries.
func (p *Plan) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p *Plan) Len() int { return len(p.entries) }

// Clips returns the clips in playback order.
func (p *Plan) Clips() []*models.Clip {
	out := make([]*models.Clip, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Clip
	}
	return out
}

// HasTitle reports whether entry 0 is a title card.
func (p *Plan) HasTitle() bool {
	return len(p.entries) > 0 && p.entries[0].Title
}

// Timeline derives the interval list for the plan.
func (p *Plan) Timeline() *Timeline {
	return NewTimeline(p.entries)
}
