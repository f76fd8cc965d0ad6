// Package catalog looks up release metadata (track lists, numbers,
// durations) on MusicBrainz.
//
// # Lookup
//
//	c := catalog.NewClient(httpClient, settings.MusicBrainzURL)
//	rel, err := c.Lookup(ctx, catalog.Query{Artist: "The Beatles", Album: "Abbey Road", Year: "1969"})
//
// The search takes the first (highest scored) release. Tracks without an
// artist credit inherit the queried artist.
//
// # Request Planning
//
// Requests turns a release into batch requests once every track has been
// resolved to a locator:
//
//	reqs := catalog.Requests(rel, locators) // locators keyed by track id
package catalog
