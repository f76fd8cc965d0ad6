package fetch

import (
	"context"
	"fmt"
	"net/http"

	httpclient "github.com/Darthmonkey/tunefetcherai/internal/http"
)

// HTTPFetcher downloads direct media URLs with the shared HTTP client.
type HTTPFetcher struct {
	Client *httpclient.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client gets the defaults.
func NewHTTPFetcher(client *httpclient.Client) *HTTPFetcher {
	if client == nil {
		client = httpclient.NewClient()
	}
	return &HTTPFetcher{Client: client}
}

// Fetch streams locator into dest atomically.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator, dest string) error {
	err := f.Client.DownloadFile(ctx, locator, dest, nil)
	switch {
	case err == nil:
		return nil
	case httpclient.IsStatus(err, http.StatusNotFound), httpclient.IsStatus(err, http.StatusGone):
		return Permanent(fmt.Errorf("%w: %v", ErrNotFound, err))
	default:
		return err
	}
}
