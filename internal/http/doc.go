// Package http provides the outbound HTTP client used for catalog lookups,
// search scraping and direct media downloads.
//
// The Client in this package handles:
//   - User-Agent headers (MusicBrainz rejects anonymous clients)
//   - Atomic file downloads with progress tracking
//   - Typed status errors that classify permanent failures
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient(http.WithUserAgent("TuneFetcherAI/1.0"))
//
//	// Fetch JSON
//	body, err := client.GetJSON(ctx, lookupURL)
//
//	// Download file with progress callback
//	client.DownloadFile(ctx, mp3URL, "/ws/job/Album/Intro.mp3", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Status Errors
//
// Non-200 responses surface as *StatusError:
//
//	if http.IsStatus(err, 404) { ... }
package http
