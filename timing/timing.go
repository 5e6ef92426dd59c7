// Package timing decides how long each discovered item stays on screen.
package timing

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"sly/ffprobe"
	"sly/internal/logging"
	"sly/models"
)

// Mode is the policy applied to video items.
type Mode string

const (
	// ModeOriginal shows the whole video.
	ModeOriginal Mode = "original"
	// ModeFixed shows every video for the image duration.
	ModeFixed Mode = "fixed"
	// ModeLimit shows the video up to LimitMultiplier image durations.
	ModeLimit Mode = "limit"
)

// LimitMultiplier caps videos in ModeLimit at this many image durations.
const LimitMultiplier = 3.0

// Resolved is one item with its on-screen duration.
type Resolved struct {
	Item     *models.MediaItem
	Duration float64

	// Probe is set for videos that ffprobe could read.
	Probe    *ffprobe.ProbeResult
	ProbeErr error

	// Fallback is set when a video's length was unknown and the image
	// duration was used instead.
	Fallback *models.DecodeWarning
}

// Resolver assigns durations. Videos are probed once; the cached length
// travels on a copy of the item.
type Resolver struct {
	prober        ffprobe.Prober
	imageDuration float64
	mode          Mode
	log           zerolog.Logger
}

// NewResolver validates the timing settings.
func NewResolver(prober ffprobe.Prober, imageDuration float64, mode Mode) (*Resolver, error) {
	var problems []string
	if imageDuration <= 0 || math.IsNaN(imageDuration) || math.IsInf(imageDuration, 0) {
		problems = append(problems, fmt.Sprintf("image duration must be positive, got %v", imageDuration))
	}
	switch mode {
	case ModeOriginal, ModeFixed, ModeLimit:
	default:
		problems = append(problems, fmt.Sprintf("invalid video duration mode '%s'", mode))
	}
	if len(problems) > 0 {
		return nil, &models.ConfigError{Problems: problems}
	}

	return &Resolver{
		prober:        prober,
		imageDuration: imageDuration,
		mode:          mode,
		log:           logging.WithComponent("timing"),
	}, nil
}

// VideoDuration applies mode to a video of the given native length.
// native <= 0 means the length is unknown. The boolean reports whether the
// image duration was used because the length was unknown.
func VideoDuration(mode Mode, native, imageDuration float64) (float64, bool) {
	switch mode {
	case ModeFixed:
		return imageDuration, false
	case ModeLimit:
		if native <= 0 {
			return imageDuration, true
		}
		return math.Min(native, imageDuration*LimitMultiplier), false
	default:
		if native <= 0 {
			return imageDuration, true
		}
		return native, false
	}
}

// Resolve returns the duration for a single item.
func (r *Resolver) Resolve(ctx context.Context, item *models.MediaItem) Resolved {
	if !item.IsVideo() {
		return Resolved{Item: item, Duration: r.imageDuration}
	}

	res := Resolved{Item: item}

	probe, err := r.prober.Probe(ctx, item.Path)
	if err != nil {
		res.ProbeErr = err
	} else {
		res.Probe = probe
		if native, derr := probe.GetDuration(); derr == nil {
			res.Item = item.WithNativeDuration(native)
		} else {
			res.ProbeErr = derr
		}
	}

	duration, fellBack := VideoDuration(r.mode, res.Item.NativeDuration, r.imageDuration)
	res.Duration = duration

	if fellBack {
		res.Fallback = &models.DecodeWarning{
			Path: item.Path,
			Err:  fmt.Errorf("video length unknown, showing it for %.2fs: %w", duration, res.ProbeErr),
		}
		r.log.Warn().
			Err(res.ProbeErr).
			Str("file", item.Name()).
			Float64("duration", duration).
			Msg("Could not determine video length, using image duration")
	} else {
		r.log.Debug().
			Str("file", item.Name()).
			Float64("native", res.Item.NativeDuration).
			Float64("duration", duration).
			Str("mode", string(r.mode)).
			Msg("Resolved video duration")
	}

	return res
}

// ResolveAll resolves every item in order. It only fails when ctx is
// cancelled; per-item problems are carried on the results.
func (r *Resolver) ResolveAll(ctx context.Context, items []*models.MediaItem) ([]Resolved, error) {
	out := make([]Resolved, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, r.Resolve(ctx, item))
	}
	return out, nil
}
