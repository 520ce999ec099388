package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"blogpilot/internal/ports"
)

// maxImageBytes caps downloads so a misbehaving provider cannot exhaust memory.
const maxImageBytes = 10 << 20

// HTTPFetcher downloads image bytes from provider URLs.
type HTTPFetcher struct {
	client *http.Client
}

var _ ports.MediaFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wires an HTTP client; defaults to a 30s timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

// Fetch downloads the image at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
