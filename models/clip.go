package models

import (
	"fmt"
	"math"
	"strings"
)

// Clip is a prepared, renderable input for the encoder.
//
// For images and the title card SourcePath points at a still that has
// already been oriented and cropped to the output size. For videos it is
// the original file; scaling and trimming happen in the filter graph.
//
// Use NewClip to create a validated Clip.
type Clip struct {
	Index      int        `json:"index"`
	SourcePath string     `json:"source_path"`
	Kind       MediaKind  `json:"kind"`
	Duration   float64    `json:"duration"`
	Origin     *MediaItem `json:"origin,omitempty"`
}

// NewClip creates a new Clip with validation.
//
// Returns an error if the clip parameters are invalid:
//   - SourcePath cannot be empty or whitespace-only
//   - Duration must be greater than 0 and finite
//
// Example:
//
//	clip, err := models.NewClip(0, "/tmp/sly/frame_000.png", models.KindImage, 3.0)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewClip(index int, sourcePath string, kind MediaKind, duration float64) (*Clip, error) {
	c := &Clip{
		Index:      index,
		SourcePath: sourcePath,
		Kind:       kind,
		Duration:   duration,
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid clip: %w", err)
	}

	return c, nil
}

// Validate checks if the Clip has valid data.
func (c *Clip) Validate() error {
	if strings.TrimSpace(c.SourcePath) == "" {
		return fmt.Errorf("source_path cannot be empty")
	}

	if !(c.Duration > 0) || math.IsInf(c.Duration, 1) {
		return fmt.Errorf("duration must be greater than 0 and finite, got %v", c.Duration)
	}

	switch c.Kind {
	case KindImage, KindVideo, KindTitle:
	default:
		return fmt.Errorf("unknown kind %q", c.Kind)
	}

	return nil
}

// IsStill reports whether the clip is fed to ffmpeg as a looped still frame.
func (c *Clip) IsStill() bool {
	return c.Kind == KindImage || c.Kind == KindTitle
}

// Label returns a short human-readable name for logs.
func (c *Clip) Label() string {
	if c.Kind == KindTitle {
		return "title"
	}
	if c.Origin != nil {
		return c.Origin.Name()
	}
	return c.SourcePath
}
