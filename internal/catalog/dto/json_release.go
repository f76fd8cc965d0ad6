package dto

import (
	"strconv"
	"strings"

	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// JSONReleaseSearch is the MusicBrainz response to /release/?query=.
type JSONReleaseSearch struct {
	Count    int                  `json:"count"`
	Releases []JSONReleaseSummary `json:"releases"`
}

// JSONReleaseSummary is one search hit.
type JSONReleaseSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// JSONRelease is the MusicBrainz response to /release/{id}?inc=recordings.
type JSONRelease struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Date  string      `json:"date"`
	Media []JSONMedia `json:"media"`
}

// JSONMedia is one disc or side of a release.
type JSONMedia struct {
	Position int         `json:"position"`
	Format   string      `json:"format"`
	Tracks   []JSONTrack `json:"tracks"`
}

// JSONTrack is one track of a medium.
type JSONTrack struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Number       string             `json:"number"`
	Position     int                `json:"position"`
	Length       *int64             `json:"length"`
	ArtistCredit []JSONArtistCredit `json:"artist-credit"`
}

// JSONArtistCredit names one credited artist.
type JSONArtistCredit struct {
	Name   string     `json:"name"`
	Artist JSONArtist `json:"artist"`
}

// JSONArtist is the artist entity behind a credit.
type JSONArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tracks flattens every medium's tracks in release order.
func (r *JSONRelease) Tracks() []JSONTrack {
	var all []JSONTrack
	for _, m := range r.Media {
		all = append(all, m.Tracks...)
	}
	return all
}

// ToTrackMetadata converts a JSONTrack. fallbackArtist is used when the
// track carries no artist credit.
func (jt *JSONTrack) ToTrackMetadata(fallbackArtist string) model.TrackMetadata {
	artist := fallbackArtist
	if len(jt.ArtistCredit) > 0 && jt.ArtistCredit[0].Artist.Name != "" {
		artist = jt.ArtistCredit[0].Artist.Name
	}

	number := jt.Position
	if number == 0 {
		// "A1" style vinyl numbers keep only their digits.
		number, _ = strconv.Atoi(strings.TrimLeft(jt.Number, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"))
	}

	var duration int
	if jt.Length != nil {
		duration = int(*jt.Length / 1000)
	}

	return model.TrackMetadata{
		ID:              jt.ID,
		Name:            jt.Title,
		TrackNumber:     number,
		Artist:          artist,
		DurationSeconds: duration,
	}
}
