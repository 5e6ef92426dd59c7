package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Seconds formats a time value for filter arguments with at most four
// decimals and no trailing zeros ("2", "0.5", "10.1234").
func Seconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// FilterBuilder helps construct a single ffmpeg filter chain
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// ScaleCover scales so the frame is fully covered, keeping the aspect ratio.
// Follow with CropCenter to cut the overflow.
func (fb *FilterBuilder) ScaleCover(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", width, height))
	return fb
}

// CropCenter crops width x height from the middle of the frame
func (fb *FilterBuilder) CropCenter(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("crop=%d:%d", width, height))
	return fb
}

// SetSAR forces square pixels
func (fb *FilterBuilder) SetSAR() *FilterBuilder {
	fb.filters = append(fb.filters, "setsar=1")
	return fb
}

// FPS adds an fps filter
func (fb *FilterBuilder) FPS(fps int) *FilterBuilder {
	if fps <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fps=%d", fps))
	return fb
}

// Format converts to the given pixel format
func (fb *FilterBuilder) Format(pixFmt string) *FilterBuilder {
	if pixFmt == "" {
		return fb
	}
	fb.filters = append(fb.filters, "format="+pixFmt)
	return fb
}

// ResetTimestamps starts the stream at zero on the default time base, which
// xfade needs on both of its inputs.
func (fb *FilterBuilder) ResetTimestamps() *FilterBuilder {
	fb.filters = append(fb.filters, "settb=AVTB", "setpts=PTS-STARTPTS")
	return fb
}

// HoldLastFrame repeats the last frame for up to seconds, so a short video
// can fill a longer slot.
func (fb *FilterBuilder) HoldLastFrame(seconds float64) *FilterBuilder {
	if seconds <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, "tpad=stop_mode=clone:stop_duration="+Seconds(seconds))
	return fb
}

// Trim cuts the stream to duration seconds
func (fb *FilterBuilder) Trim(duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, "trim=duration="+Seconds(duration))
	return fb
}

// FadeIn fades from black starting at the beginning of the stream
func (fb *FilterBuilder) FadeIn(duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, "fade=t=in:st=0:d="+Seconds(duration))
	return fb
}

// FadeOut fades to black so that the fade ends at end seconds
func (fb *FilterBuilder) FadeOut(end, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("fade=t=out:st=%s:d=%s", Seconds(end-duration), Seconds(duration)))
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// BuildAll returns all filters as a slice
func (fb *FilterBuilder) BuildAll() []string {
	return fb.filters
}

// Graph is a -filter_complex graph made of labelled chains.
type Graph struct {
	chains []string
}

// NewGraph creates an empty filter graph
func NewGraph() *Graph {
	return &Graph{}
}

// Chain appends "[in1][in2]filters[out]". An empty filter string becomes
// the pass-through "null" filter.
func (g *Graph) Chain(inputs []string, filters string, output string) *Graph {
	if filters == "" {
		filters = "null"
	}

	var sb strings.Builder
	for _, in := range inputs {
		sb.WriteString("[" + in + "]")
	}
	sb.WriteString(filters)
	if output != "" {
		sb.WriteString("[" + output + "]")
	}

	g.chains = append(g.chains, sb.String())
	return g
}

// Len returns the number of chains.
func (g *Graph) Len() int { return len(g.chains) }

// Build joins the chains. The result is meant for -filter_complex_script,
// which accepts newlines between chains.
func (g *Graph) Build() string {
	return strings.Join(g.chains, ";\n")
}
