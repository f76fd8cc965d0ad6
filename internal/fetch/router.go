package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// directExtensions are URL path suffixes streamed without the extractor.
var directExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
}

// Router dispatches each locator to the fetcher that can handle it.
//
// Locators must be absolute http(s) URLs. Those whose path ends in a known
// audio extension go to Direct; everything else goes to Extractor.
type Router struct {
	Direct    Fetcher
	Extractor Fetcher
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, locator, dest string) error {
	u, err := ParseLocator(locator)
	if err != nil {
		return err
	}
	if r.Direct != nil && IsDirectAudio(u) {
		return r.Direct.Fetch(ctx, locator, dest)
	}
	if r.Extractor == nil {
		return Permanent(fmt.Errorf("%w: no extractor for %s", ErrInvalidLocator, locator))
	}
	return r.Extractor.Fetch(ctx, locator, dest)
}

// ParseLocator validates that locator is an absolute http(s) URL.
func ParseLocator(locator string) (*url.URL, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, Permanent(fmt.Errorf("%w: empty", ErrInvalidLocator))
	}
	u, err := url.Parse(locator)
	if err != nil {
		return nil, Permanent(fmt.Errorf("%w: %v", ErrInvalidLocator, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, Permanent(fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocator, u.Scheme))
	}
	if u.Host == "" {
		return nil, Permanent(fmt.Errorf("%w: missing host", ErrInvalidLocator))
	}
	return u, nil
}

// IsDirectAudio reports whether u points straight at an audio file.
func IsDirectAudio(u *url.URL) bool {
	return directExtensions[strings.ToLower(path.Ext(u.Path))]
}
