// Package render builds the ffmpeg command that renders the visual track of
// a slideshow from prepared clips and a filter graph script.
package render

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"sly/command"
	"sly/ffmpeg"
	"sly/models"
)

// hardwareSuffixes mark encoders that do not take -crf.
var hardwareSuffixes = []string{"_nvenc", "_vaapi", "_qsv", "_videotoolbox", "_amf", "_v4l2m2m"}

// IsHardwareEncoder reports whether codec is a hardware encoder name such
// as "h264_nvenc".
func IsHardwareEncoder(codec string) bool {
	for _, s := range hardwareSuffixes {
		if strings.HasSuffix(codec, s) {
			return true
		}
	}
	return false
}

// SlideshowBuilder renders every clip through a -filter_complex script into
// one silent video file.
type SlideshowBuilder struct {
	clips        []*models.Clip
	filterScript string
	outputPath   string
	binary       string

	// Encoding settings
	codec       string
	crf         int
	preset      string
	pixelFormat string
	frameRate   int
	threads     int

	// Total timeline length, for progress percentages
	totalDuration float64

	extraArgs        []string
	progressCallback models.ProgressCallback
}

// NewSlideshowBuilder creates a builder. Input i of the command is clip i,
// matching the input pads of the filter script.
func NewSlideshowBuilder(clips []*models.Clip, filterScript, outputPath string) *SlideshowBuilder {
	return &SlideshowBuilder{
		clips:        clips,
		filterScript: filterScript,
		outputPath:   outputPath,
		binary:       "ffmpeg",
		codec:        "libx264",
		crf:          18,
		preset:       "medium",
		pixelFormat:  "yuv420p",
		frameRate:    24,
	}
}

// SetBinary sets the ffmpeg executable.
func (s *SlideshowBuilder) SetBinary(path string) *SlideshowBuilder {
	if path != "" {
		s.binary = path
	}
	return s
}

// SetCodec sets the video codec (e.g., "libx264", "libx265", "h264_nvenc")
func (s *SlideshowBuilder) SetCodec(codec string) *SlideshowBuilder {
	s.codec = codec
	return s
}

// SetCRF sets the constant rate factor. Negative disables it.
func (s *SlideshowBuilder) SetCRF(crf int) *SlideshowBuilder {
	s.crf = crf
	return s
}

// SetPreset sets the encoding preset
func (s *SlideshowBuilder) SetPreset(preset string) *SlideshowBuilder {
	s.preset = preset
	return s
}

// SetPixelFormat sets the output pixel format
func (s *SlideshowBuilder) SetPixelFormat(pixfmt string) *SlideshowBuilder {
	s.pixelFormat = pixfmt
	return s
}

// SetFrameRate sets the input rate of stills and the output frame rate
func (s *SlideshowBuilder) SetFrameRate(fps int) *SlideshowBuilder {
	s.frameRate = fps
	return s
}

// SetThreads limits encoder threads. Zero lets ffmpeg decide.
func (s *SlideshowBuilder) SetThreads(threads int) *SlideshowBuilder {
	s.threads = threads
	return s
}

// SetTotalDuration sets the expected output length used for progress.
func (s *SlideshowBuilder) SetTotalDuration(seconds float64) *SlideshowBuilder {
	s.totalDuration = seconds
	return s
}

// AddExtraArgs adds custom ffmpeg arguments before the output path
func (s *SlideshowBuilder) AddExtraArgs(args ...string) *SlideshowBuilder {
	s.extraArgs = append(s.extraArgs, args...)
	return s
}

// SetProgressCallback sets the callback for progress updates
func (s *SlideshowBuilder) SetProgressCallback(callback models.ProgressCallback) *SlideshowBuilder {
	s.progressCallback = callback
	return s
}

// BuildArgs constructs the ffmpeg arguments.
func (s *SlideshowBuilder) BuildArgs() []string {
	args := []string{
		"-hide_banner", "-y",
		"-loglevel", "error",
		"-progress", "pipe:2", "-nostats",
	}

	// One input per clip. Stills are looped for their display time; videos
	// are cut at it and padded by the filter graph when shorter.
	for _, clip := range s.clips {
		d := ffmpeg.Seconds(clip.Duration)
		if clip.IsStill() {
			args = append(args,
				"-loop", "1",
				"-framerate", strconv.Itoa(s.frameRate),
				"-t", d,
				"-i", clip.SourcePath,
			)
		} else {
			args = append(args, "-t", d, "-i", clip.SourcePath)
		}
	}

	args = append(args,
		"-filter_complex_script", s.filterScript,
		"-map", "[vout]",
		"-c:v", s.codec,
	)

	if s.crf >= 0 && s.crf <= 51 && !IsHardwareEncoder(s.codec) {
		// CRF only works with software encoders
		args = append(args, "-crf", strconv.Itoa(s.crf))
	}

	if s.preset != "" {
		args = append(args, "-preset", s.preset)
	}

	if s.pixelFormat != "" {
		args = append(args, "-pix_fmt", s.pixelFormat)
	}

	if s.frameRate > 0 {
		args = append(args, "-r", strconv.Itoa(s.frameRate))
	}

	if s.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(s.threads))
	}

	// Source audio is never carried over
	args = append(args, "-an")

	switch strings.ToLower(filepath.Ext(s.outputPath)) {
	case ".mp4", ".mov", ".m4v":
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, s.extraArgs...)
	args = append(args, s.outputPath)

	return args
}

// Run executes the render and reports progress against the timeline length.
func (s *SlideshowBuilder) Run(ctx context.Context) error {
	if len(s.clips) == 0 {
		return fmt.Errorf("cannot render: no clips")
	}
	if s.filterScript == "" {
		return fmt.Errorf("cannot render: no filter script")
	}
	return command.RunFFmpeg(ctx, s.binary, s.BuildArgs(), s.totalDuration, s.progressCallback)
}

// DryRun returns the command that would be executed without running it
func (s *SlideshowBuilder) DryRun() (string, error) {
	if len(s.clips) == 0 {
		return "", fmt.Errorf("cannot build command: no clips")
	}
	return command.FormatCommandLine(s.binary, s.BuildArgs()), nil
}

// GetTaskType returns the task type identifier
func (s *SlideshowBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeRender
}

// GetInputPath returns the filter script, the one input shared by all clips.
func (s *SlideshowBuilder) GetInputPath() string {
	return s.filterScript
}

// GetOutputPath returns the output file path
func (s *SlideshowBuilder) GetOutputPath() string {
	return s.outputPath
}
