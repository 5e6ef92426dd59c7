// Package audio builds the ffmpeg command that fits a soundtrack to the
// length of the rendered slideshow.
package audio

import (
	"context"
	"fmt"
	"math"
	"strconv"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"sly/command"
	"sly/ffmpeg"
	"sly/models"
)

// LoopForever is the -stream_loop value for an endless loop.
const LoopForever = -1

// PlanSoundtrack returns the -stream_loop count needed for a track of
// audioLength seconds to cover total seconds. A track that is long enough
// is not looped (it is cut with -t). An unknown length loops forever,
// which is safe because the output is always cut at total.
func PlanSoundtrack(audioLength, total float64) int {
	if audioLength <= 0 || math.IsNaN(audioLength) {
		return LoopForever
	}
	if audioLength >= total {
		return 0
	}
	return int(math.Ceil(total/audioLength)) - 1
}

// SoundtrackBuilder loops or trims an audio file to an exact length and
// encodes it for muxing.
type SoundtrackBuilder struct {
	inputPath  string
	outputPath string
	binary     string

	total float64
	loops int

	codec   string
	bitrate string

	progressCallback models.ProgressCallback
}

// NewSoundtrackBuilder creates a builder producing total seconds of audio.
func NewSoundtrackBuilder(inputPath, outputPath string, total float64) *SoundtrackBuilder {
	return &SoundtrackBuilder{
		inputPath:  inputPath,
		outputPath: outputPath,
		binary:     "ffmpeg",
		total:      total,
		codec:      "aac",  // Default codec
		bitrate:    "192k", // Default bitrate
	}
}

// SetBinary sets the ffmpeg executable.
func (s *SoundtrackBuilder) SetBinary(path string) *SoundtrackBuilder {
	if path != "" {
		s.binary = path
	}
	return s
}

// SetSourceLength sets the probed length of the input and derives the loop
// count from it.
func (s *SoundtrackBuilder) SetSourceLength(seconds float64) *SoundtrackBuilder {
	s.loops = PlanSoundtrack(seconds, s.total)
	return s
}

// SetCodec sets the audio codec (e.g., "aac", "libopus", "libmp3lame").
func (s *SoundtrackBuilder) SetCodec(codec string) *SoundtrackBuilder {
	s.codec = codec
	return s
}

// SetBitrate sets the audio bitrate (e.g., "128k", "192k").
func (s *SoundtrackBuilder) SetBitrate(bitrate string) *SoundtrackBuilder {
	s.bitrate = bitrate
	return s
}

// SetProgressCallback sets the callback function for progress updates
func (s *SoundtrackBuilder) SetProgressCallback(callback models.ProgressCallback) *SoundtrackBuilder {
	s.progressCallback = callback
	return s
}

// Loops returns the -stream_loop count that will be used.
func (s *SoundtrackBuilder) Loops() int {
	return s.loops
}

func (s *SoundtrackBuilder) stream() *ffmpeg_go.Stream {
	in := ffmpeg_go.KwArgs{}
	if s.loops != 0 {
		in["stream_loop"] = strconv.Itoa(s.loops)
	}

	out := ffmpeg_go.KwArgs{
		"map": "0:a:0",
		"t":   ffmpeg.Seconds(s.total),
		"c:a": s.codec,
	}
	if s.bitrate != "" {
		out["b:a"] = s.bitrate
	}

	return ffmpeg_go.Input(s.inputPath, in).
		Output(s.outputPath, out).
		OverWriteOutput()
}

// BuildArgs constructs the FFmpeg command arguments.
func (s *SoundtrackBuilder) BuildArgs() []string {
	return append([]string{"-hide_banner", "-progress", "pipe:2", "-nostats"}, s.stream().GetArgs()...)
}

// Run executes the FFmpeg command.
func (s *SoundtrackBuilder) Run(ctx context.Context) error {
	if s.total <= 0 {
		return fmt.Errorf("cannot build soundtrack: length must be positive, got %v", s.total)
	}
	return command.RunFFmpeg(ctx, s.binary, s.BuildArgs(), s.total, s.progressCallback)
}

// DryRun returns the FFmpeg command without executing it.
func (s *SoundtrackBuilder) DryRun() (string, error) {
	if s.inputPath == "" {
		return "", fmt.Errorf("cannot build command: no soundtrack")
	}
	return command.FormatCommandLine(s.binary, s.BuildArgs()), nil
}

// GetTaskType returns the task type (soundtrack).
func (s *SoundtrackBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeSoundtrack
}

// GetInputPath returns the input file path.
func (s *SoundtrackBuilder) GetInputPath() string {
	return s.inputPath
}

// GetOutputPath returns the output file path.
func (s *SoundtrackBuilder) GetOutputPath() string {
	return s.outputPath
}
