package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"blogpilot/internal/domain"
)

const unsplashBaseURL = "https://api.unsplash.com/search/photos"

// UnsplashProvider searches the Unsplash photo API.
type UnsplashProvider struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

// NewUnsplashProvider wires an access key; client defaults to a 15s timeout.
func NewUnsplashProvider(accessKey string, client *http.Client) *UnsplashProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &UnsplashProvider{accessKey: accessKey, baseURL: unsplashBaseURL, client: client}
}

// Name identifies the provider inside the registry.
func (p *UnsplashProvider) Name() string {
	return "unsplash"
}

type unsplashResponse struct {
	Results []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		URLs   struct {
			Regular string `json:"regular"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Search queries Unsplash; an empty result list is not an error.
func (p *UnsplashProvider) Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error) {
	if p.accessKey == "" {
		return nil, fmt.Errorf("unsplash provider misconfigured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	if orientation != "" {
		params.Set("orientation", orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search unsplash: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash returned %s", resp.Status)
	}

	var parsed unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode unsplash response: %w", err)
	}

	results := make([]domain.ImageResult, 0, len(parsed.Results))
	for _, photo := range parsed.Results {
		results = append(results, domain.ImageResult{
			URL:          photo.URLs.Regular,
			ThumbnailURL: photo.URLs.Thumb,
			Width:        photo.Width,
			Height:       photo.Height,
			Attribution:  photo.User.Name,
		})
	}

	return results, nil
}
