// Package config resolves the slideshow settings from built-in defaults, an
// optional TOML or YAML file and command-line flags, in that order of
// increasing priority.
package config

import (
	"runtime"
	"slices"
)

// Config holds all slideshow options. Keys in config files mirror the long
// flag names.
type Config struct {
	// Input and output
	Path       string `toml:"path" yaml:"path"`
	Output     string `toml:"output" yaml:"output"`
	Soundtrack string `toml:"soundtrack" yaml:"soundtrack"`

	// Title slide
	Title         string  `toml:"title" yaml:"title"`
	Font          string  `toml:"font" yaml:"font"`
	FontSize      int     `toml:"font-size" yaml:"font-size"`           // 0 = min(width, height) / 10
	TitleDuration float64 `toml:"title-duration" yaml:"title-duration"` // seconds

	// Timing
	ImageDuration      float64 `toml:"image-duration" yaml:"image-duration"`           // seconds per image
	TransitionDuration float64 `toml:"transition-duration" yaml:"transition-duration"` // seconds, 0 = hard cut
	TransitionType     string  `toml:"transition-type" yaml:"transition-type"`         // "crossfade", "fade"
	VideoDurationMode  string  `toml:"video-duration-mode" yaml:"video-duration-mode"` // "original", "fixed", "limit"

	// Discovery
	IncludeVideos bool   `toml:"include-videos" yaml:"include-videos"`
	ImagesOnly    bool   `toml:"images-only" yaml:"images-only"`
	ImageOrder    string `toml:"image-order" yaml:"image-order"` // "name", "date", "random"
	Seed          int64  `toml:"seed" yaml:"seed"`               // 0 = new shuffle every run

	// Output geometry
	Width  int `toml:"slideshow-width" yaml:"slideshow-width"`
	Height int `toml:"slideshow-height" yaml:"slideshow-height"`
	FPS    int `toml:"fps" yaml:"fps"`

	// Encoder settings
	Encoder EncoderConfig `toml:"encoder" yaml:"encoder"`

	// Behavioral flags
	Verbose     bool `toml:"verbose" yaml:"verbose"`
	KeepPartial bool `toml:"keep-partial" yaml:"keep-partial"` // keep the output file when rendering fails
	KeepTemp    bool `toml:"keep-temp" yaml:"keep-temp"`       // keep prepared stills and filter scripts

	// Per-invocation switches, never read from or written to files
	ConfigPath string `toml:"-" yaml:"-"`
	SaveConfig string `toml:"-" yaml:"-"`
	ListFonts  bool   `toml:"-" yaml:"-"`
	DryRun     bool   `toml:"-" yaml:"-"`
}

// EncoderConfig holds the ffmpeg settings used for the final render.
type EncoderConfig struct {
	FFmpegPath   string `toml:"ffmpeg-path" yaml:"ffmpeg-path"`
	FFprobePath  string `toml:"ffprobe-path" yaml:"ffprobe-path"`
	VideoCodec   string `toml:"video-codec" yaml:"video-codec"`   // e.g., "libx264", "libx265"
	CRF          int    `toml:"crf" yaml:"crf"`                   // 0-51, lower = better quality
	Preset       string `toml:"preset" yaml:"preset"`             // e.g., "fast", "medium", "slow"
	PixelFormat  string `toml:"pixel-format" yaml:"pixel-format"` // e.g., "yuv420p"
	AudioCodec   string `toml:"audio-codec" yaml:"audio-codec"`   // e.g., "aac", "libopus"
	AudioBitrate string `toml:"audio-bitrate" yaml:"audio-bitrate"`
	Threads      int    `toml:"threads" yaml:"threads"` // 0 = 75% of the CPU cores
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:   ".",
		Output: "slideshow.mp4",

		TitleDuration: 3.0,

		ImageDuration:      3.0,
		TransitionDuration: 1.0,
		TransitionType:     "crossfade",
		VideoDurationMode:  "limit",

		ImageOrder: "name",

		Width:  1920,
		Height: 1080,
		FPS:    24,

		Encoder: EncoderConfig{
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
			VideoCodec:   "libx264",
			CRF:          18,
			Preset:       "medium",
			PixelFormat:  "yuv420p",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
			Threads:      0,
		},
	}
}

// UseVideos reports whether video files take part in discovery.
// images-only always wins over include-videos.
func (c *Config) UseVideos() bool {
	return c.IncludeVideos && !c.ImagesOnly
}

// DefaultThreads returns 75% of the available cores, at least one.
func DefaultThreads() int {
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}

// TransitionTypeValues returns valid transition types
func TransitionTypeValues() []string {
	return []string{"crossfade", "fade"}
}

// VideoDurationModeValues returns valid video duration modes
func VideoDurationModeValues() []string {
	return []string{"original", "fixed", "limit"}
}

// ImageOrderValues returns valid orderings
func ImageOrderValues() []string {
	return []string{"name", "date", "random"}
}

// IsValidTransitionType checks if the transition type is known
func IsValidTransitionType(v string) bool {
	return slices.Contains(TransitionTypeValues(), v)
}

// IsValidVideoDurationMode checks if the video duration mode is known
func IsValidVideoDurationMode(v string) bool {
	return slices.Contains(VideoDurationModeValues(), v)
}

// IsValidImageOrder checks if the ordering is known
func IsValidImageOrder(v string) bool {
	return slices.Contains(ImageOrderValues(), v)
}
