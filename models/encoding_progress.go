package models

import (
	"fmt"
	"time"
)

// EncodingProgress represents real-time render metrics reported by ffmpeg
type EncodingProgress struct {
	// Current position in the output
	Frame       int64   // Current frame number
	FPS         float64 // Frames per second being processed
	CurrentTime string  // Current output timestamp (HH:MM:SS.MS)

	// Performance metrics
	Bitrate string  // Current bitrate (e.g., "2048.0kbits/s")
	Speed   float64 // Encoding speed multiplier (e.g., 2.34 means 2.34x realtime)

	// Size information
	Size string // Current output size as reported by ffmpeg

	// Progress calculation
	TotalDuration float64 // Timeline length in seconds
	Encoded       float64 // Seconds of output written so far
	Progress      float64 // Percentage complete (0-100)

	// Metadata
	State     ProgressState // Current state of the render
	StartTime time.Time     // When rendering started
	UpdatedAt time.Time     // Last update timestamp
}

// ProgressState represents the current state of a render
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateStarting  ProgressState = "starting"
	ProgressStateEncoding  ProgressState = "encoding"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
)

// ProgressCallback is a function that receives progress updates during rendering
type ProgressCallback func(progress *EncodingProgress)

// NewEncodingProgress creates a new progress tracker for a timeline of the given length
func NewEncodingProgress(totalDuration float64) *EncodingProgress {
	now := time.Now()
	return &EncodingProgress{
		TotalDuration: totalDuration,
		State:         ProgressStateQueued,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// CalculateProgress updates the percentage from the current output position
func (ep *EncodingProgress) CalculateProgress(currentSeconds float64) {
	ep.Encoded = currentSeconds
	if ep.TotalDuration > 0 {
		ep.Progress = (currentSeconds / ep.TotalDuration) * 100
		if ep.Progress > 100 {
			ep.Progress = 100
		}
	}
	ep.UpdatedAt = time.Now()
}

// Fraction returns progress in the 0..1 range
func (ep *EncodingProgress) Fraction() float64 {
	return ep.Progress / 100
}

// Complete marks the render finished
func (ep *EncodingProgress) Complete() {
	ep.State = ProgressStateCompleted
	ep.Progress = 100
	ep.Encoded = ep.TotalDuration
	ep.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining calculates ETA from elapsed time and percentage
func (ep *EncodingProgress) EstimatedTimeRemaining() time.Duration {
	if ep.Speed <= 0 || ep.Progress <= 0 {
		return 0
	}

	elapsed := time.Since(ep.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (ep.Progress / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable summary of the progress
func (ep *EncodingProgress) FormatSummary() string {
	return fmt.Sprintf(
		"%.1fs / %.1fs | %.1f%% | speed %.2fx | ETA %s",
		ep.Encoded,
		ep.TotalDuration,
		ep.Progress,
		ep.Speed,
		FormatDuration(ep.EstimatedTimeRemaining()),
	)
}

// FormatDuration converts a duration to a compact string such as "1m05s"
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, seconds)
}
