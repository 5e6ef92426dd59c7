package compose

import (
	"fmt"
	"math"

	"sly/ffmpeg"
	"sly/models"
	"sly/sequence"
)

// OutputLabel is the filter graph pad carrying the finished picture.
const OutputLabel = "vout"

// GraphOptions controls the picture produced by BuildFilterGraph.
type GraphOptions struct {
	Width       int
	Height      int
	FPS         int
	PixelFormat string
	// TransitionType is "crossfade" or "fade" (through black).
	TransitionType string
	// Transition is the configured transition length, used for the fade in
	// from black at the start and the fade out at the end.
	Transition float64
}

// XfadeTransition maps a transition type to the xfade transition name.
func XfadeTransition(transitionType string) (string, error) {
	switch transitionType {
	case "crossfade", "":
		return "fade", nil
	case "fade":
		return "fadeblack", nil
	default:
		return "", &models.ConfigError{Problems: []string{
			fmt.Sprintf("invalid transition type '%s' (valid: crossfade, fade)", transitionType),
		}}
	}
}

// BuildFilterGraph returns a -filter_complex graph for plan. Input i of the
// ffmpeg command must be clip i of the plan. Every clip is normalized to the
// output size and frame rate, then neighbours are joined with xfade at the
// start of the next interval, or concatenated when they do not overlap.
func BuildFilterGraph(plan *sequence.Plan, opts GraphOptions) (string, error) {
	if plan == nil || plan.Len() == 0 {
		return "", fmt.Errorf("cannot build a filter graph for an empty plan")
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return "", fmt.Errorf("invalid output %dx%d at %d fps", opts.Width, opts.Height, opts.FPS)
	}

	transition, err := XfadeTransition(opts.TransitionType)
	if err != nil {
		return "", err
	}

	pixFmt := opts.PixelFormat
	if pixFmt == "" {
		pixFmt = "yuv420p"
	}

	entries := plan.Entries()
	timeline := plan.Timeline()
	last := len(entries) - 1
	graph := ffmpeg.NewGraph()

	for i, e := range entries {
		fb := ffmpeg.NewFilterBuilder().
			ScaleCover(opts.Width, opts.Height).
			CropCenter(opts.Width, opts.Height).
			SetSAR().
			FPS(opts.FPS).
			Format(pixFmt)

		if e.Clip.Kind == models.KindVideo {
			fb.HoldLastFrame(e.Duration)
		}
		fb.Trim(e.Duration).ResetTimestamps()

		edge := math.Min(opts.Transition, e.Duration/2)
		if i == 0 {
			fb.FadeIn(edge)
		}
		if i == last {
			fb.FadeOut(e.Duration, edge)
		}

		out := clipLabel(i)
		if len(entries) == 1 {
			out = OutputLabel
		}
		graph.Chain([]string{fmt.Sprintf("%d:v", i)}, fb.Build(), out)
	}

	acc := clipLabel(0)
	for i := 1; i < len(entries); i++ {
		out := fmt.Sprintf("x%d", i)
		if i == last {
			out = OutputLabel
		}

		iv := timeline.Intervals[i]
		var filter string
		if iv.Overlap > 0 {
			filter = fmt.Sprintf("xfade=transition=%s:duration=%s:offset=%s",
				transition, ffmpeg.Seconds(iv.Overlap), ffmpeg.Seconds(iv.Start))
		} else {
			filter = "concat=n=2:v=1:a=0"
		}

		graph.Chain([]string{acc, clipLabel(i)}, filter, out)
		acc = out
	}

	return graph.Build(), nil
}

func clipLabel(i int) string {
	return fmt.Sprintf("c%d", i)
}
