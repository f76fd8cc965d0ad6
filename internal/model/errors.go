package model

import (
	"errors"
	"fmt"
)

// ErrValidation matches every request validation failure.
var ErrValidation = errors.New("invalid request")

// ErrEmptyBatch is returned for a batch without tracks.
var ErrEmptyBatch = &ValidationError{Field: "tracks", Reason: "at least one track is required"}

// ValidationError describes a request rejected before any workspace was
// allocated.
type ValidationError struct {
	Field   string
	TrackID string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.TrackID != "" {
		return fmt.Sprintf("invalid request: track %s: %s", e.TrackID, e.Reason)
	}
	return "invalid request: " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
