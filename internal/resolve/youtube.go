package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	httpclient "github.com/Darthmonkey/tunefetcherai/internal/http"
)

// DefaultSearchURL is the YouTube results page.
const DefaultSearchURL = "https://www.youtube.com/results"

// watchURL is the locator format handed to the fetch tool.
const watchURL = "https://www.youtube.com/watch?v="

var (
	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("search query is required")

	// ErrNotFound is returned when the results page has no playable video.
	ErrNotFound = errors.New("no video found")
)

// initialDataPatterns locate the search results JSON embedded in the page.
// The </script> anchored form is tried first since '};' can occur inside
// string values.
var initialDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)var ytInitialData = (\{.*?\});</script>`),
	regexp.MustCompile(`(?s)window\["ytInitialData"\] = (\{.*?\});</script>`),
	regexp.MustCompile(`var ytInitialData = (\{.*?\});`),
}

// Resolver turns free-text track queries into source locators by
// scraping the YouTube results page.
//
// Example usage:
//
//	r := NewResolver(httpClient, "")
//	locator, err := r.Search(ctx, "The Beatles Come Together")
//	if errors.Is(err, ErrNotFound) {
//	    // nothing playable
//	}
//	// locator == "https://www.youtube.com/watch?v=45cYwDMibGo"
type Resolver struct {
	http      *httpclient.Client
	searchURL string
}

// NewResolver creates a resolver. An empty searchURL uses DefaultSearchURL.
func NewResolver(client *httpclient.Client, searchURL string) *Resolver {
	if client == nil {
		client = httpclient.NewClient()
	}
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Resolver{http: client, searchURL: searchURL}
}

// Search returns the watch URL of the first video result for query.
func (r *Resolver) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	page, err := r.http.GetString(ctx, r.searchURL+"?"+url.Values{"search_query": {query}}.Encode())
	if err != nil {
		return "", fmt.Errorf("youtube search: %w", err)
	}

	id, err := FirstVideoID(page)
	if err != nil {
		return "", err
	}
	return watchURL + id, nil
}

// FirstVideoID extracts the first videoRenderer id from a results page.
func FirstVideoID(page string) (string, error) {
	raw, ok := extractInitialData(page)
	if !ok {
		return "", fmt.Errorf("%w: ytInitialData not found in page", ErrNotFound)
	}

	var data initialData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", fmt.Errorf("parse ytInitialData: %w", err)
	}

	for _, section := range data.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			if item.VideoRenderer != nil && item.VideoRenderer.VideoID != "" {
				return item.VideoRenderer.VideoID, nil
			}
		}
	}
	return "", ErrNotFound
}

func extractInitialData(page string) (string, bool) {
	for _, re := range initialDataPatterns {
		if m := re.FindStringSubmatch(page); m != nil {
			if json.Valid([]byte(m[1])) {
				return m[1], true
			}
		}
	}
	return "", false
}

// initialData is the subset of ytInitialData holding search results.
type initialData struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *struct {
									VideoID string `json:"videoId"`
								} `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}
