package models

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid or out-of-range option. It is raised
// before any rendering work begins.
type ConfigError struct {
	Problems []string
	Err      error
}

func (e *ConfigError) Error() string {
	switch {
	case len(e.Problems) > 0:
		return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
	case e.Err != nil:
		return fmt.Sprintf("configuration error: %v", e.Err)
	default:
		return "configuration error"
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DiscoveryError reports a missing, unreadable or empty input directory.
type DiscoveryError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discovery failed for %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("discovery failed for %s: %s", e.Path, e.Reason)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// DecodeWarning records a single media item that could not be used. It is
// never fatal: the item is skipped and the run continues.
type DecodeWarning struct {
	Path string
	Err  error
}

func (w *DecodeWarning) Error() string {
	return fmt.Sprintf("skipped %s: %v", w.Path, w.Err)
}

func (w *DecodeWarning) Unwrap() error { return w.Err }

// RenderStage names the step of the output writer that failed.
type RenderStage string

const (
	StageVideo      RenderStage = "video"
	StageSoundtrack RenderStage = "soundtrack"
	StageMixing     RenderStage = "mixing"
	StageFinalize   RenderStage = "finalize"
)

// RenderError reports a failed encode. Renders are not retried.
type RenderError struct {
	Stage  RenderStage
	Output string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed during %s stage (%s): %v", e.Stage, e.Output, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
