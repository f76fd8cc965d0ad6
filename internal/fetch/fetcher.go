package fetch

import (
	"context"
	"errors"
)

// Fetcher retrieves the media behind a locator into a local file.
//
// Fetch must either leave a complete file at dest and return nil, or
// return an error. The parent directory of dest exists before Fetch is
// called. Implementations may be called concurrently with distinct
// destinations.
type Fetcher interface {
	Fetch(ctx context.Context, locator, dest string) error
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, locator, dest string) error

// Fetch calls f(ctx, locator, dest).
func (f FetcherFunc) Fetch(ctx context.Context, locator, dest string) error {
	return f(ctx, locator, dest)
}

var (
	// ErrNoOutput is returned when a fetch reported success but produced
	// no file at the destination.
	ErrNoOutput = errors.New("fetch: no output file produced")

	// ErrInvalidLocator is returned for locators no fetcher can handle.
	ErrInvalidLocator = errors.New("fetch: invalid locator")

	// ErrNotFound is returned when the source reports the media is gone.
	ErrNotFound = errors.New("fetch: media not found")
)

// permanentError marks an error as not worth retrying.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so IsPermanent reports true for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether retrying the fetch that produced err cannot
// succeed. Errors wrapped with Permanent and errors exposing a
// Permanent() bool method that returns true qualify.
func IsPermanent(err error) bool {
	var pe *permanentError
	if errors.As(err, &pe) {
		return true
	}
	var classified interface{ Permanent() bool }
	if errors.As(err, &classified) {
		return classified.Permanent()
	}
	return false
}
