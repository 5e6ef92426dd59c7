// Package command provides the Command interface shared by the ffmpeg
// builders and the helper that runs ffmpeg with progress reporting.
//
// The specialized builders (render, audio, mixing) each produce one ffmpeg
// invocation of the output stage. The writer runs them in sequence.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"sly/ffmpeg"
	"sly/models"
)

// TaskType represents the stage a command belongs to.
type TaskType string

const (
	TaskTypeRender     TaskType = "render"     // Visual track with transitions
	TaskTypeSoundtrack TaskType = "soundtrack" // Looped and trimmed audio
	TaskTypeMixing     TaskType = "mixing"     // Stream muxing
)

// Command represents an FFmpeg command that can be built, executed, or previewed.
//
// Example usage:
//
//	cmd := mixing.NewMixingBuilder("video.mp4", "out.mp4").
//		AddAudioTrack("soundtrack.m4a")
//
//	// Preview the command
//	line, _ := cmd.DryRun()
//
//	// Execute the command
//	err := cmd.Run(ctx)
type Command interface {
	// BuildArgs constructs and returns the FFmpeg command arguments as a slice.
	// The returned slice is suitable for exec.Command("ffmpeg", args...).
	BuildArgs() []string

	// Run executes the command and blocks until it completes. Cancelling
	// ctx kills ffmpeg.
	//
	// Returns an error if the command fails to execute or returns a non-zero exit code.
	Run(ctx context.Context) error

	// DryRun returns the FFmpeg command as a string without executing it.
	// Useful for debugging, logging, or generating scripts.
	DryRun() (string, error)

	// GetTaskType returns the stage of the command.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file path for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}

// FFmpegError is returned when ffmpeg exits with an error. Output holds
// the last lines ffmpeg printed.
type FFmpegError struct {
	Err    error
	Output string
}

func (e *FFmpegError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("ffmpeg command failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg command failed: %v (output: %s)", e.Err, e.Output)
}

func (e *FFmpegError) Unwrap() error { return e.Err }

// FormatCommandLine renders binary and args as a shell-like line, quoting
// arguments that contain spaces.
func FormatCommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, binary)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// RunFFmpeg runs binary with args and parses its stderr for progress.
// totalDuration is the expected output length in seconds; callback may be
// nil.
func RunFFmpeg(ctx context.Context, binary string, args []string, totalDuration float64, callback models.ProgressCallback) error {
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", binary, err)
	}

	progress := models.NewEncodingProgress(totalDuration)
	progress.State = models.ProgressStateStarting
	if callback != nil {
		callback(progress)
	}

	// Parse progress in a goroutine
	parser := ffmpeg.NewProgressParser()
	errChan := make(chan error, 1)

	go func() {
		err := parser.StreamProgress(stderr, progress, callback)
		// Keep draining so ffmpeg never blocks on a full pipe
		_, _ = io.Copy(io.Discard, stderr)
		errChan <- err
	}()

	// Drain stderr before Wait closes the pipe
	parseErr := <-errChan
	cmdErr := cmd.Wait()

	if cmdErr != nil {
		progress.State = models.ProgressStateFailed
		if callback != nil {
			callback(progress)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, cmdErr)
		}
		return &FFmpegError{Err: cmdErr, Output: parser.Tail()}
	}

	if parseErr != nil {
		// Progress parsing failed, but command succeeded
		log.Warn().Err(parseErr).Msg("Progress parsing error")
	}

	if progress.State != models.ProgressStateCompleted {
		progress.Complete()
		if callback != nil {
			callback(progress)
		}
	}

	if js, err := ffmpeg.FormatProgressJSON(progress); err == nil {
		log.Debug().Str("binary", binary).RawJSON("progress", []byte(js)).Msg("ffmpeg finished")
	}

	return nil
}
