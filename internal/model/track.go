package model

import (
	"strings"
)

// TrackRequest describes one track to acquire within a batch.
//
// A TrackRequest carries everything an acquisition worker needs:
//   - ID to correlate the outcome with the caller's request
//   - DisplayName for the local file name and the archive entry
//   - SourceLocator handed verbatim to the external fetch operation
//   - GroupLabel (usually the album name) used as the archive folder
//
// Artist, TrackNumber and ArtworkURL are optional and only feed ID3 tagging.
//
// Requests are immutable once a batch starts. ID must be unique within
// its batch but not globally.
//
// Example:
//
//	req := TrackRequest{
//	    ID:            "mb-4f3c",
//	    DisplayName:   "Come Together",
//	    SourceLocator: "https://www.youtube.com/watch?v=45cYwDMibGo",
//	    GroupLabel:    "Abbey Road",
//	}
type TrackRequest struct {
	// ID identifies the request inside its batch.
	ID string `json:"id" yaml:"id"`

	// DisplayName is the human readable track name.
	DisplayName string `json:"displayName" yaml:"display_name"`

	// SourceLocator is the opaque media locator (typically a URL).
	SourceLocator string `json:"locator" yaml:"locator"`

	// GroupLabel is the folder used inside the archive.
	GroupLabel string `json:"groupLabel,omitempty" yaml:"group_label"`

	// Artist is written to the TPE1 frame when tagging is enabled.
	Artist string `json:"artist,omitempty" yaml:"artist"`

	// TrackNumber is written to the TRCK frame when non-zero.
	TrackNumber int `json:"trackNumber,omitempty" yaml:"track_number"`

	// ArtworkURL points at cover art to embed. Empty means no artwork.
	ArtworkURL string `json:"artworkUrl,omitempty" yaml:"artwork_url"`
}

// Validate checks the fields every request must carry.
func (r TrackRequest) Validate() error {
	if strings.TrimSpace(r.SourceLocator) == "" {
		return &ValidationError{Field: "locator", TrackID: r.ID, Reason: "locator is required"}
	}
	if strings.TrimSpace(r.DisplayName) == "" {
		return &ValidationError{Field: "displayName", TrackID: r.ID, Reason: "display name is required"}
	}
	return nil
}

// HasArtwork returns true if the request carries cover art to embed.
func (r TrackRequest) HasArtwork() bool {
	return r.ArtworkURL != ""
}

// TrackMetadata is one entry returned by the metadata catalog.
type TrackMetadata struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TrackNumber     int    `json:"trackNumber,omitempty"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration,omitempty"`
}
