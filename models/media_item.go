// Package models provides the core data structures shared by the slideshow
// pipeline: discovered media, prepared clips, progress and error types.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MediaKind tells images and videos apart.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindTitle MediaKind = "title" // generated title card, never discovered
)

// MediaItem is a file found by the discoverer.
//
// Items are immutable once discovered. NativeDuration is only known for
// videos after probing; WithNativeDuration returns a copy carrying it.
type MediaItem struct {
	Path    string    `json:"path"`
	Kind    MediaKind `json:"kind"`
	ModTime time.Time `json:"mod_time"`

	// NativeDuration is the probed length in seconds, 0 when unknown.
	NativeDuration float64 `json:"native_duration,omitempty"`
}

// NewMediaItem creates a validated MediaItem. The path is made absolute.
func NewMediaItem(path string, kind MediaKind, modTime time.Time) (*MediaItem, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("invalid media item: path cannot be empty")
	}
	if kind != KindImage && kind != KindVideo {
		return nil, fmt.Errorf("invalid media item: unknown kind %q", kind)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid media item: %w", err)
	}

	return &MediaItem{Path: abs, Kind: kind, ModTime: modTime}, nil
}

// Name returns the file name without its directory.
func (m *MediaItem) Name() string {
	return filepath.Base(m.Path)
}

// IsVideo reports whether the item is a video.
func (m *MediaItem) IsVideo() bool {
	return m.Kind == KindVideo
}

// WithNativeDuration returns a copy of the item with the probed duration cached.
func (m *MediaItem) WithNativeDuration(seconds float64) *MediaItem {
	c := *m
	c.NativeDuration = seconds
	return &c
}
