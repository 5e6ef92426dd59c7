package models

import (
	"fmt"
)

// ClipResult represents the outcome of preparing a single media item.
//
// Successful results carry a Clip and no error; failed results carry an
// error and no Clip. Use NewClipResultSuccess or NewClipResultFailure to
// create validated instances.
type ClipResult struct {
	Item    *MediaItem `json:"item"`
	Clip    *Clip      `json:"clip,omitempty"`
	Success bool       `json:"success"`
	Error   error      `json:"error,omitempty"`
}

// NewClipResultSuccess creates a successful ClipResult with validation.
func NewClipResultSuccess(item *MediaItem, clip *Clip) (*ClipResult, error) {
	cr := &ClipResult{
		Item:    item,
		Clip:    clip,
		Success: true,
	}
	if err := cr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid clip result: %w", err)
	}
	return cr, nil
}

// NewClipResultFailure creates a failed ClipResult.
//
// The error parameter must not be nil.
func NewClipResultFailure(item *MediaItem, prepErr error) (*ClipResult, error) {
	if prepErr == nil {
		return nil, fmt.Errorf("invalid clip result: error cannot be nil for failed result")
	}
	return &ClipResult{
		Item:    item,
		Success: false,
		Error:   prepErr,
	}, nil
}

// Validate checks if the ClipResult has consistent state.
//
// Returns an error if:
//   - Success is true but Error is not nil
//   - Success is false but Error is nil
//   - Success is true but Clip is nil or invalid
//   - Success is false but a Clip is set
func (cr *ClipResult) Validate() error {
	if cr.Success && cr.Error != nil {
		return fmt.Errorf("inconsistent state: Success is true but Error is not nil")
	}

	if !cr.Success && cr.Error == nil {
		return fmt.Errorf("failed result must have an error")
	}

	if cr.Success {
		if cr.Clip == nil {
			return fmt.Errorf("clip cannot be nil for successful result")
		}
		if err := cr.Clip.Validate(); err != nil {
			return fmt.Errorf("clip: %w", err)
		}
	}

	if !cr.Success && cr.Clip != nil {
		return fmt.Errorf("failed result should not have a clip")
	}

	return nil
}

// Warning converts a failed result into the DecodeWarning reported to the user.
// Returns nil for successful results.
func (cr *ClipResult) Warning() *DecodeWarning {
	if cr.Success {
		return nil
	}
	path := ""
	if cr.Item != nil {
		path = cr.Item.Path
	}
	return &DecodeWarning{Path: path, Err: cr.Error}
}
