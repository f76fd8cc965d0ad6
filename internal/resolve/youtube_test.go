package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "github.com/Darthmonkey/tunefetcherai/internal/http"
)

const resultsPage = `<html><script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[
{"continuationItemRenderer":{}},
{"itemSectionRenderer":{"contents":[
  {"adSlotRenderer":{"text":"x};y"}},
  {"videoRenderer":{"videoId":"45cYwDMibGo"}},
  {"videoRenderer":{"videoId":"second"}}
]}}]}}}}};</script></html>`

func TestFirstVideoID(t *testing.T) {
	id, err := FirstVideoID(resultsPage)
	require.NoError(t, err)
	assert.Equal(t, "45cYwDMibGo", id)
}

func TestFirstVideoIDMissingData(t *testing.T) {
	_, err := FirstVideoID("<html>nothing here</html>")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirstVideoIDNoVideo(t *testing.T) {
	page := `<script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[]}}}}};</script>`
	_, err := FirstVideoID(page)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("search_query")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	r := NewResolver(httpclient.NewClient(), srv.URL)
	loc, err := r.Search(context.Background(), "  The Beatles Come Together ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=45cYwDMibGo", loc)
	assert.Equal(t, "The Beatles Come Together", query)
}

func TestSearchEmptyQuery(t *testing.T) {
	_, err := NewResolver(nil, "http://127.0.0.1:1").Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewResolver(nil, srv.URL).Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusTooManyRequests))
}
