package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Darthmonkey/tunefetcherai/internal/catalog/dto"
	httpclient "github.com/Darthmonkey/tunefetcherai/internal/http"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// DefaultBaseURL is the public MusicBrainz web service.
const DefaultBaseURL = "https://musicbrainz.org/ws/2"

var (
	// ErrNoRelease is returned when the search finds no matching release.
	ErrNoRelease = errors.New("no matching release found on MusicBrainz")

	// ErrInvalidQuery is returned when artist or album is missing.
	ErrInvalidQuery = errors.New("artist and album are required")
)

// Query identifies the release to look up. Year is optional.
type Query struct {
	Artist string
	Album  string
	Year   string
}

// Validate checks the required fields.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Artist) == "" || strings.TrimSpace(q.Album) == "" {
		return ErrInvalidQuery
	}
	return nil
}

// Lucene returns the MusicBrainz search expression for q.
//
// Example:
//
//	Query{Artist: "The Beatles", Album: "Abbey Road", Year: "1969"}.Lucene()
//	// "artist:The Beatles AND release:Abbey Road AND date:1969"
func (q Query) Lucene() string {
	expr := fmt.Sprintf("artist:%s AND release:%s", q.Artist, q.Album)
	if q.Year != "" {
		expr += " AND date:" + q.Year
	}
	return expr
}

// Release is a resolved release and its track list.
type Release struct {
	ID     string
	Title  string
	Tracks []model.TrackMetadata
}

// Client looks up releases on MusicBrainz.
//
// Lookups take two requests: a release search that picks the best match,
// then a release fetch including recordings.
//
// Example usage:
//
//	c := NewClient(httpClient, "")
//	rel, err := c.Lookup(ctx, Query{Artist: "The Beatles", Album: "Abbey Road"})
//	if errors.Is(err, ErrNoRelease) {
//	    // nothing matched
//	}
//	for _, t := range rel.Tracks {
//	    fmt.Printf("%d. %s (%ds)\n", t.TrackNumber, t.Name, t.DurationSeconds)
//	}
type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a MusicBrainz client. An empty baseURL uses
// DefaultBaseURL.
func NewClient(client *httpclient.Client, baseURL string) *Client {
	if client == nil {
		client = httpclient.NewClient()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: client, baseURL: strings.TrimRight(baseURL, "/"), logger: slog.Default()}
}

// WithLogger sets the logger used for lookup diagnostics.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// Lookup finds the best matching release for q and returns its tracks.
func (c *Client) Lookup(ctx context.Context, q Query) (*Release, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	searchURL := c.baseURL + "/release/?" + url.Values{
		"query": {q.Lucene()},
		"fmt":   {"json"},
	}.Encode()

	var search dto.JSONReleaseSearch
	if err := c.getJSON(ctx, searchURL, &search); err != nil {
		return nil, fmt.Errorf("musicbrainz search: %w", err)
	}
	if len(search.Releases) == 0 {
		return nil, ErrNoRelease
	}

	best := search.Releases[0]
	c.logger.Debug("musicbrainz release matched", "id", best.ID, "title", best.Title, "score", best.Score)

	detailsURL := fmt.Sprintf("%s/release/%s?%s", c.baseURL, url.PathEscape(best.ID), url.Values{
		"fmt": {"json"},
		"inc": {"recordings"},
	}.Encode())

	var details dto.JSONRelease
	if err := c.getJSON(ctx, detailsURL, &details); err != nil {
		return nil, fmt.Errorf("musicbrainz release details: %w", err)
	}

	tracks := details.Tracks()
	rel := &Release{
		ID:     details.ID,
		Title:  details.Title,
		Tracks: make([]model.TrackMetadata, 0, len(tracks)),
	}
	for i := range tracks {
		rel.Tracks = append(rel.Tracks, tracks[i].ToTrackMetadata(q.Artist))
	}
	return rel, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.http.GetJSON(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
