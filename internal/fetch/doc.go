// Package fetch implements the external fetch operation that turns a
// locator into a local audio file.
//
// The package provides:
//   - Fetcher, the single-method interface workers call
//   - CommandFetcher, which shells out to yt-dlp (or youtube-dl)
//   - HTTPFetcher, which streams direct audio URLs
//   - Router, which validates locators and picks one of the above
//   - Limit, a process-wide concurrency gate
//
// # Error classification
//
// Errors wrapped with Permanent (missing extractor binary, rejected
// locators, 404 responses) report true from IsPermanent. Callers decide
// whether to stop retrying on them.
//
//	f := fetch.Limit(&fetch.Router{
//	    Direct:    fetch.NewHTTPFetcher(client),
//	    Extractor: fetch.NewCommandFetcher("yt-dlp", "mp3", nil, logger),
//	}, 4)
package fetch
