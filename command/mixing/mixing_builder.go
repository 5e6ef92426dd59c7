// Package mixing builds the ffmpeg command that muxes the rendered video
// with its soundtrack.
package mixing

import (
	"context"
	"fmt"
	"slices"

	"sly/command"
	"sly/models"
)

// MixingBuilder constructs ffmpeg commands that combine a silent video with
// an audio track. Both streams are copied by default so the mix costs no
// quality and almost no time.
type MixingBuilder struct {
	videoInput string
	audioInput string
	outputPath string
	binary     string

	// Stream options
	copyAudio    bool
	audioCodec   string
	audioBitrate string

	metadata map[string]string

	// Expected output length, for progress percentages
	totalDuration float64

	extraArgs        []string
	progressCallback models.ProgressCallback
}

// NewMixingBuilder creates a new mixing builder.
// videoInput: path to the rendered video (required)
// outputPath: path to the final file (required)
func NewMixingBuilder(videoInput, outputPath string) *MixingBuilder {
	return &MixingBuilder{
		videoInput: videoInput,
		outputPath: outputPath,
		binary:     "ffmpeg",
		copyAudio:  true, // Default: the soundtrack is already encoded
		metadata:   make(map[string]string),
	}
}

// SetBinary sets the ffmpeg executable.
func (m *MixingBuilder) SetBinary(path string) *MixingBuilder {
	if path != "" {
		m.binary = path
	}
	return m
}

// SetAudioTrack sets the audio input file.
func (m *MixingBuilder) SetAudioTrack(audioPath string) *MixingBuilder {
	m.audioInput = audioPath
	return m
}

// SetAudioCodec re-encodes the audio instead of copying it.
func (m *MixingBuilder) SetAudioCodec(codec, bitrate string) *MixingBuilder {
	m.audioCodec = codec
	m.audioBitrate = bitrate
	m.copyAudio = codec == "" || codec == "copy"
	return m
}

// AddMetadata adds metadata to the output file.
// Common keys: title, comment, description, year
func (m *MixingBuilder) AddMetadata(key, value string) *MixingBuilder {
	if key != "" && value != "" {
		m.metadata[key] = value
	}
	return m
}

// SetTotalDuration sets the expected output length used for progress.
func (m *MixingBuilder) SetTotalDuration(seconds float64) *MixingBuilder {
	m.totalDuration = seconds
	return m
}

// AddExtraArgs adds custom ffmpeg arguments.
func (m *MixingBuilder) AddExtraArgs(args ...string) *MixingBuilder {
	m.extraArgs = append(m.extraArgs, args...)
	return m
}

// SetProgressCallback sets a callback for progress updates.
func (m *MixingBuilder) SetProgressCallback(callback models.ProgressCallback) *MixingBuilder {
	m.progressCallback = callback
	return m
}

// BuildArgs constructs the ffmpeg command arguments.
func (m *MixingBuilder) BuildArgs() []string {
	args := []string{"-hide_banner", "-y", "-loglevel", "error", "-progress", "pipe:2", "-nostats"}

	args = append(args, "-i", m.videoInput)
	if m.audioInput != "" {
		args = append(args, "-i", m.audioInput)
	}

	// Video from the render, audio from the soundtrack
	args = append(args, "-map", "0:v:0")
	if m.audioInput != "" {
		args = append(args, "-map", "1:a:0")
	}

	args = append(args, "-c:v", "copy")

	if m.audioInput != "" {
		if m.copyAudio {
			args = append(args, "-c:a", "copy")
		} else {
			args = append(args, "-c:a", m.audioCodec)
			if m.audioBitrate != "" {
				args = append(args, "-b:a", m.audioBitrate)
			}
		}
		// The soundtrack is cut to the timeline already; this only guards
		// against a few trailing audio frames.
		args = append(args, "-shortest")
	}

	// Metadata in a stable order
	keys := make([]string, 0, len(m.metadata))
	for key := range m.metadata {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", key, m.metadata[key]))
	}

	args = append(args, m.extraArgs...)
	args = append(args, m.outputPath)

	return args
}

// Run executes the mixing command.
func (m *MixingBuilder) Run(ctx context.Context) error {
	if m.videoInput == "" || m.outputPath == "" {
		return fmt.Errorf("mixing requires a video input and an output path")
	}
	if err := command.RunFFmpeg(ctx, m.binary, m.BuildArgs(), m.totalDuration, m.progressCallback); err != nil {
		return fmt.Errorf("mixing failed: %w", err)
	}
	return nil
}

// DryRun returns the command that would be executed without running it.
func (m *MixingBuilder) DryRun() (string, error) {
	return command.FormatCommandLine(m.binary, m.BuildArgs()), nil
}

// GetTaskType returns the task type identifier.
func (m *MixingBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeMixing
}

// GetInputPath returns the primary input path (video).
func (m *MixingBuilder) GetInputPath() string {
	return m.videoInput
}

// GetOutputPath returns the output file path.
func (m *MixingBuilder) GetOutputPath() string {
	return m.outputPath
}
