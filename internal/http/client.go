package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
)

// DefaultUserAgent identifies the service to upstream catalogs.
const DefaultUserAgent = "TuneFetcherAI/1.0"

// StatusError is returned when an upstream answers with a non-200 status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

// Permanent reports whether retrying the same request is pointless.
// Client errors other than 408 and 429 are permanent.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusRequestTimeout && e.Code != http.StatusTooManyRequests
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client wraps HTTP operations with the service's outbound configuration.
//
// Client provides:
//   - A User-Agent header on every request (MusicBrainz requires one)
//   - Timeout handling
//   - Atomic file download with progress tracking
//
// Example usage:
//
//	client := NewClient(WithUserAgent("TuneFetcherAI/1.0"))
//
//	// Fetch a JSON document
//	body, err := client.Get(ctx, "https://musicbrainz.org/ws/2/release/?query=...")
//
//	// Download file with progress
//	err = client.DownloadFile(ctx, mp3URL, "/ws/job/Album/Intro.mp3", func(written, total int64) {
//	    percent := float64(written) / float64(total) * 100
//	    fmt.Printf("%.1f%%\n", percent)
//	})
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout overrides the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - 60 second timeout
//   - "TuneFetcherAI/1.0" User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserAgent returns the header value sent with each request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

func (c *Client) do(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns a *StatusError if the response status is not 200 OK.
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/cover.jpg")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetJSON performs a GET request asking for JSON.
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetString performs a GET request and returns the response body as a string.
//
// Example:
//
//	html, err := client.GetString(ctx, "https://www.youtube.com/results?search_query=...")
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DownloadFile downloads a file to the specified path with optional progress callback.
//
// The content is streamed to destPath+".part" and renamed into place once
// complete. A failed or cancelled download leaves no file at either path.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes)
//
// Example:
//
//	err := client.DownloadFile(ctx, mp3URL, "/ws/job/Album/Intro.mp3", nil)
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return ioutils.WriteFileAtomic(ctx, destPath, func(w io.Writer) error {
		if onProgress != nil {
			w = &ProgressWriter{
				Writer:   w,
				Total:    resp.ContentLength,
				OnUpdate: onProgress,
			}
		}
		_, err := io.Copy(w, resp.Body)
		return err
	})
}
