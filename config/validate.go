package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"sly/models"
)

// Validate checks if the configuration is valid. All problems are reported
// together in a single *models.ConfigError.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Path) == "" {
		problems = append(problems, "path is required")
	}
	if strings.TrimSpace(c.Output) == "" {
		problems = append(problems, "output file is required")
	}

	if c.Soundtrack != "" {
		if info, err := os.Stat(c.Soundtrack); err != nil {
			problems = append(problems, fmt.Sprintf("soundtrack does not exist: %s", c.Soundtrack))
		} else if info.IsDir() {
			problems = append(problems, fmt.Sprintf("soundtrack is a directory: %s", c.Soundtrack))
		}
	}

	if c.Title != "" && strings.TrimSpace(c.Title) == "" {
		problems = append(problems, "title cannot be blank (omit it for no title card)")
	}

	// Timing. Comparisons are false for NaN, so finiteness is checked first.
	switch {
	case !isFinite(c.ImageDuration):
		problems = append(problems, fmt.Sprintf("image duration must be a finite number, got %v", c.ImageDuration))
	case c.ImageDuration <= 0:
		problems = append(problems, "image duration must be positive")
	}
	switch {
	case !isFinite(c.TransitionDuration):
		problems = append(problems, fmt.Sprintf("transition duration must be a finite number, got %v", c.TransitionDuration))
	case c.TransitionDuration < 0:
		problems = append(problems, "transition duration cannot be negative (use 0 for hard cuts)")
	}
	switch {
	case !isFinite(c.TitleDuration):
		problems = append(problems, fmt.Sprintf("title duration must be a finite number, got %v", c.TitleDuration))
	case c.TitleDuration <= 0:
		problems = append(problems, "title duration must be positive")
	}
	if c.FontSize < 0 {
		problems = append(problems, "font size cannot be negative (use 0 for auto)")
	}

	if !IsValidTransitionType(c.TransitionType) {
		problems = append(problems, fmt.Sprintf("invalid transition type '%s', must be one of: %s",
			c.TransitionType, strings.Join(TransitionTypeValues(), ", ")))
	}
	if !IsValidVideoDurationMode(c.VideoDurationMode) {
		problems = append(problems, fmt.Sprintf("invalid video duration mode '%s', must be one of: %s",
			c.VideoDurationMode, strings.Join(VideoDurationModeValues(), ", ")))
	}
	if !IsValidImageOrder(c.ImageOrder) {
		problems = append(problems, fmt.Sprintf("invalid image order '%s', must be one of: %s",
			c.ImageOrder, strings.Join(ImageOrderValues(), ", ")))
	}

	// Geometry. yuv420p needs even dimensions.
	if c.Width <= 0 || c.Height <= 0 {
		problems = append(problems, "slideshow width and height must be positive")
	} else if c.Width%2 != 0 || c.Height%2 != 0 {
		problems = append(problems, fmt.Sprintf("slideshow size %dx%d must have even width and height", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		problems = append(problems, "fps must be positive")
	}

	if err := c.Encoder.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("encoder config: %v", err))
	}

	if len(problems) > 0 {
		return &models.ConfigError{Problems: problems}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks if encoder configuration is valid
func (ec *EncoderConfig) Validate() error {
	var errors []string

	if ec.FFmpegPath == "" {
		errors = append(errors, "ffmpeg path is required")
	}
	if ec.FFprobePath == "" {
		errors = append(errors, "ffprobe path is required")
	}
	if ec.VideoCodec == "" {
		errors = append(errors, "video codec is required")
	}
	if ec.CRF < 0 || ec.CRF > 51 {
		errors = append(errors, "CRF must be between 0 and 51")
	}
	if ec.Preset == "" {
		errors = append(errors, "preset is required")
	}
	if ec.PixelFormat == "" {
		errors = append(errors, "pixel format is required")
	}
	if ec.AudioCodec == "" {
		errors = append(errors, "audio codec is required")
	}
	if ec.Threads < 0 {
		errors = append(errors, "threads cannot be negative (use 0 for auto-detect)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}
