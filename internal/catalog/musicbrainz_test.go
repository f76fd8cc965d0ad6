package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "github.com/Darthmonkey/tunefetcherai/internal/http"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

const releaseDetails = `{
  "id": "rel-1",
  "title": "Abbey Road",
  "media": [
    {"position": 1, "tracks": [
      {"id": "t1", "title": "Come Together", "number": "1", "position": 1, "length": 259946,
       "artist-credit": [{"name": "The Beatles", "artist": {"id": "a1", "name": "The Beatles"}}]},
      {"id": "t2", "title": "Something", "number": "2", "position": 2, "length": null}
    ]},
    {"position": 2, "tracks": [
      {"id": "t3", "title": "Here Comes the Sun", "number": "B1", "position": 0, "length": 185000}
    ]}
  ]
}`

func newMusicBrainz(t *testing.T, search string) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/release/":
			_, _ = w.Write([]byte(search))
		case "/release/rel-1":
			_, _ = w.Write([]byte(releaseDetails))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestLookup(t *testing.T) {
	srv, seen := newMusicBrainz(t, `{"count":1,"releases":[{"id":"rel-1","title":"Abbey Road","score":100}]}`)
	c := NewClient(httpclient.NewClient(httpclient.WithUserAgent("TuneFetcherAI/1.0")), srv.URL)

	rel, err := c.Lookup(context.Background(), Query{Artist: "The Beatles", Album: "Abbey Road", Year: "1969"})
	require.NoError(t, err)

	assert.Equal(t, "rel-1", rel.ID)
	assert.Equal(t, "Abbey Road", rel.Title)
	assert.Equal(t, []model.TrackMetadata{
		{ID: "t1", Name: "Come Together", TrackNumber: 1, Artist: "The Beatles", DurationSeconds: 259},
		{ID: "t2", Name: "Something", TrackNumber: 2, Artist: "The Beatles"},
		{ID: "t3", Name: "Here Comes the Sun", TrackNumber: 1, Artist: "The Beatles", DurationSeconds: 185},
	}, rel.Tracks)

	require.Len(t, *seen, 2)
	search := (*seen)[0]
	assert.Equal(t, "artist:The Beatles AND release:Abbey Road AND date:1969", search.URL.Query().Get("query"))
	assert.Equal(t, "json", search.URL.Query().Get("fmt"))
	assert.Equal(t, "TuneFetcherAI/1.0", search.Header.Get("User-Agent"))
	assert.Equal(t, "recordings", (*seen)[1].URL.Query().Get("inc"))
}

func TestLookupNoRelease(t *testing.T) {
	srv, seen := newMusicBrainz(t, `{"count":0,"releases":[]}`)
	c := NewClient(nil, srv.URL)

	_, err := c.Lookup(context.Background(), Query{Artist: "Nobody", Album: "Nothing"})
	assert.ErrorIs(t, err, ErrNoRelease)
	assert.Len(t, *seen, 1)
}

func TestLookupInvalidQuery(t *testing.T) {
	c := NewClient(nil, "http://127.0.0.1:1")

	_, err := c.Lookup(context.Background(), Query{Artist: "The Beatles"})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = c.Lookup(context.Background(), Query{Album: "Abbey Road"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestLookupUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(nil, srv.URL).Lookup(context.Background(), Query{Artist: "a", Album: "b"})
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusServiceUnavailable))
	assert.NotErrorIs(t, err, ErrNoRelease)
}

func TestLuceneWithoutYear(t *testing.T) {
	assert.Equal(t, "artist:A AND release:B", Query{Artist: "A", Album: "B"}.Lucene())
}

func TestRequests(t *testing.T) {
	rel := &Release{
		Title: "Abbey Road",
		Tracks: []model.TrackMetadata{
			{ID: "t1", Name: "Come Together", TrackNumber: 1, Artist: "The Beatles"},
			{ID: "t2", Name: "Something", TrackNumber: 2, Artist: "The Beatles"},
		},
	}

	reqs := Requests(rel, map[string]string{"t1": "https://www.youtube.com/watch?v=abc"})
	require.Len(t, reqs, 1)
	assert.Equal(t, model.TrackRequest{
		ID:            "t1",
		DisplayName:   "Come Together",
		SourceLocator: "https://www.youtube.com/watch?v=abc",
		GroupLabel:    "Abbey Road",
		Artist:        "The Beatles",
		TrackNumber:   1,
	}, reqs[0])
	assert.NoError(t, model.ValidateBatch(reqs))

	assert.Nil(t, Requests(nil, nil))
}
