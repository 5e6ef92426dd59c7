// Package ffprobe extracts metadata from media files using the ffprobe
// command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	FrameRate     string `json:"r_frame_rate,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	Duration      string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Prober extracts metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// CLI runs the ffprobe binary found at Path (or "ffprobe" on PATH).
type CLI struct {
	Path string
}

// NewCLI returns a Prober backed by the given ffprobe binary.
func NewCLI(path string) *CLI {
	if path == "" {
		path = "ffprobe"
	}
	return &CLI{Path: path}
}

// GetDuration returns the duration of the media file in seconds.
//
// The container duration is preferred. Some containers (raw streams, a few
// webm muxers) only report it per stream, in which case the longest stream
// wins. Returns an error if no duration can be parsed.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if d, ok := parseSeconds(pr.Format.Duration); ok {
		return d, nil
	}

	longest := 0.0
	for _, s := range pr.Streams {
		if d, ok := parseSeconds(s.Duration); ok && d > longest {
			longest = d
		}
	}
	if longest > 0 {
		return longest, nil
	}

	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}
	return 0, fmt.Errorf("failed to parse duration '%s'", pr.Format.Duration)
}

func parseSeconds(v string) (float64, bool) {
	if v == "" || v == "N/A" {
		return 0, false
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// GetVideoStreams returns all video streams from the media file.
func (pr *ProbeResult) GetVideoStreams() []Stream {
	var videoStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "video" {
			videoStreams = append(videoStreams, stream)
		}
	}
	return videoStreams
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	var audioStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "audio" {
			audioStreams = append(audioStreams, stream)
		}
	}
	return audioStreams
}

// HasVideo reports whether the file has at least one video stream.
func (pr *ProbeResult) HasVideo() bool {
	return len(pr.GetVideoStreams()) > 0
}

// HasAudio reports whether the file has at least one audio stream.
func (pr *ProbeResult) HasAudio() bool {
	return len(pr.GetAudioStreams()) > 0
}

// Probe analyzes a media file with the ffprobe binary on PATH.
//
// Example:
//
//	result, err := ffprobe.Probe(ctx, "/path/to/video.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	duration, _ := result.GetDuration()
//	fmt.Printf("Duration: %.2f seconds\n", duration)
func Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	return NewCLI("").Probe(ctx, sourcePath)
}

// Probe executes ffprobe with JSON output and parses the result.
func (c *CLI) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	// -v quiet: suppress verbose output
	// -print_format json: output in JSON format
	// -show_streams / -show_format: stream and container information
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	cmd := exec.CommandContext(ctx, c.Path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	return Parse(output)
}

// Parse decodes ffprobe's JSON output.
func Parse(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}
