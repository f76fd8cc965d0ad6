package audio

import (
	"strconv"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the request.
	TagModify

	// TagDoNotModify leaves whatever the extractor wrote.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags:  true,
//	    TrackTitle:  TagModify,      // Title from the display name
//	    Album:       TagModify,      // Album from the group label
//	    Artist:      TagDoNotModify, // Keep the uploader's artist
//	    Comments:    TagEmpty,       // Drop the extractor's source URL
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no string tags are modified.
	ModifyTags bool

	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// TrackNumber controls the TRCK (Track number) frame.
	TrackNumber TagEditAction

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// Every field is set from the request; comments are cleared.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:  true,
		Artist:      TagModify,
		Album:       TagModify,
		TrackNumber: TagModify,
		TrackTitle:  TagModify,
		Comments:    TagEmpty,
	}
}

// TrackInfo is the metadata written into a file's tags.
type TrackInfo struct {
	Title       string
	Artist      string
	Album       string
	TrackNumber int
}

// InfoFor derives tag metadata from a request.
func InfoFor(req model.TrackRequest) TrackInfo {
	return TrackInfo{
		Title:       req.DisplayName,
		Artist:      req.Artist,
		Album:       req.GroupLabel,
		TrackNumber: req.TrackNumber,
	}
}

// Tagger writes ID3 tags to MP3 files.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	err := tagger.SaveTags(outcome.LocalFilePath, InfoFor(req), jpegBytes)
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// Supports reports whether the file at path can carry ID3 tags.
func Supports(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".mp3")
}

// SaveTags rewrites the ID3 tags of the MP3 file at path.
//
// String frames follow the TagConfig; artwork, when non-nil, replaces any
// attached picture with a JPEG front cover.
func (t *Tagger) SaveTags(path string, info TrackInfo, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if t.config.ModifyTags {
		t.updateStringTags(tag, info)
	}

	if artwork != nil {
		t.updateArtwork(tag, artwork)
	}

	return tag.Save()
}

// updateStringTags updates text-based ID3 frames based on configuration.
func (t *Tagger) updateStringTags(tag *id3v2.Tag, info TrackInfo) {
	switch t.config.TrackTitle {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		tag.SetTitle(info.Title)
	}

	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
	case TagModify:
		if info.Artist != "" {
			tag.SetArtist(info.Artist)
		}
	}

	switch t.config.Album {
	case TagEmpty:
		tag.SetAlbum("")
	case TagModify:
		if info.Album != "" {
			tag.SetAlbum(info.Album)
		}
	}

	switch t.config.TrackNumber {
	case TagEmpty:
		tag.DeleteFrames("TRCK")
	case TagModify:
		if info.TrackNumber > 0 {
			tag.DeleteFrames("TRCK")
			tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(info.TrackNumber))
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// updateArtwork embeds cover art as an attached picture frame.
func (t *Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	pic := id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	}
	tag.AddAttachedPicture(pic)
}
