// Package resolve maps a free-text track query to a source locator.
//
// The YouTube results page embeds its data as a ytInitialData script
// variable; Resolver extracts it and returns the first video's watch URL.
package resolve
