package audio

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// PlaylistFormat represents supported playlist file formats.
//
// Each format has different features and compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp
//   - WPL: XML format, Windows Media Player
//   - ZPL: XML format, Zune/Groove Music
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible).
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS

	// FormatWPL creates .wpl files (Windows Media Player).
	FormatWPL

	// FormatZPL creates .zpl files (Zune/Groove Music).
	FormatZPL
)

// ParsePlaylistFormat maps a configuration value to a format. Unknown
// values fall back to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch strings.ToLower(s) {
	case "pls":
		return FormatPLS
	case "wpl":
		return FormatWPL
	case "zpl":
		return FormatZPL
	default:
		return FormatM3U
	}
}

// Extension returns the file extension without the dot.
func (f PlaylistFormat) Extension() string {
	switch f {
	case FormatPLS:
		return "pls"
	case FormatWPL:
		return "wpl"
	case FormatZPL:
		return "zpl"
	default:
		return "m3u"
	}
}

// PlaylistItem is one line of a playlist. FileName is relative to the
// playlist's own folder.
type PlaylistItem struct {
	FileName        string
	Title           string
	Artist          string
	DurationSeconds int
}

// PlaylistCreator generates playlist files in various formats.
//
// Example:
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist("Abbey Road", items)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:-1,The Beatles - Come Together
//	// Come Together.mp3
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// Parameters:
//   - format: The playlist format to generate
//   - extended: For M3U format, whether to include #EXTINF lines
//     (ignored for other formats)
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// Format returns the creator's output format.
func (p *PlaylistCreator) Format() PlaylistFormat {
	return p.format
}

// CreatePlaylist generates playlist content for one group of tracks.
func (p *PlaylistCreator) CreatePlaylist(title string, items []PlaylistItem) string {
	switch p.format {
	case FormatPLS:
		return p.createPLS(items)
	case FormatWPL:
		return p.createWPL(title, items)
	case FormatZPL:
		return p.createZPL(title, items)
	default:
		return p.createM3U(items)
	}
}

// createM3U generates an M3U playlist.
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:180,Artist - Title
//	filename1.mp3
//
// Unknown durations are written as -1.
func (p *PlaylistCreator) createM3U(items []PlaylistItem) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}
	for _, item := range items {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s\n", durationOrUnknown(item.DurationSeconds), displayTitle(item))
		}
		sb.WriteString(item.FileName + "\n")
	}
	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=filename1.mp3
//	Title1=Song Title
//	Length1=180
//	NumberOfEntries=2
//	Version=2
func (p *PlaylistCreator) createPLS(items []PlaylistItem) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")
	for i, item := range items {
		n := i + 1
		fmt.Fprintf(&sb, "File%d=%s\nTitle%d=%s\nLength%d=%d\n",
			n, item.FileName, n, displayTitle(item), n, durationOrUnknown(item.DurationSeconds))
	}
	fmt.Fprintf(&sb, "NumberOfEntries=%d\nVersion=2\n", len(items))
	return sb.String()
}

// smil is the document shared by WPL and ZPL playlists.
type smil struct {
	XMLName xml.Name  `xml:"smil"`
	Head    smilHead  `xml:"head"`
	Media   []smilRef `xml:"body>seq>media"`
}

type smilHead struct {
	Title string     `xml:"title"`
	Meta  []smilMeta `xml:"meta,omitempty"`
}

type smilMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type smilRef struct {
	Src         string `xml:"src,attr"`
	AlbumTitle  string `xml:"albumTitle,attr,omitempty"`
	TrackTitle  string `xml:"trackTitle,attr,omitempty"`
	TrackArtist string `xml:"trackArtist,attr,omitempty"`
	Duration    int    `xml:"duration,attr,omitempty"`
}

// createWPL generates a Windows Media Player playlist.
func (p *PlaylistCreator) createWPL(title string, items []PlaylistItem) string {
	doc := smil{Head: smilHead{Title: title}}
	for _, item := range items {
		doc.Media = append(doc.Media, smilRef{Src: item.FileName})
	}
	return renderSMIL(`<?wpl version="1.0"?>`, doc)
}

// createZPL generates a Zune/Groove Music playlist with per-track
// metadata attributes. Durations are in milliseconds.
func (p *PlaylistCreator) createZPL(title string, items []PlaylistItem) string {
	doc := smil{Head: smilHead{
		Title: title,
		Meta: []smilMeta{
			{Name: "Generator", Content: "TuneFetcherAI"},
			{Name: "ItemCount", Content: strconv.Itoa(len(items))},
		},
	}}
	for _, item := range items {
		doc.Media = append(doc.Media, smilRef{
			Src:         item.FileName,
			AlbumTitle:  title,
			TrackTitle:  item.Title,
			TrackArtist: item.Artist,
			Duration:    item.DurationSeconds * 1000,
		})
	}
	return renderSMIL(`<?zpl version="2.0"?>`, doc)
}

func renderSMIL(header string, doc smil) string {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Only plain strings and ints are marshalled.
		panic(err)
	}
	return header + "\n" + string(out) + "\n"
}

func displayTitle(item PlaylistItem) string {
	if item.Artist == "" {
		return item.Title
	}
	return item.Artist + " - " + item.Title
}

func durationOrUnknown(seconds int) int {
	if seconds <= 0 {
		return -1
	}
	return seconds
}
