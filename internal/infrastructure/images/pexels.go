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

const pexelsBaseURL = "https://api.pexels.com/v1/search"

// PexelsProvider searches the Pexels photo API.
type PexelsProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPexelsProvider wires an API key; client defaults to a 15s timeout.
func NewPexelsProvider(apiKey string, client *http.Client) *PexelsProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PexelsProvider{apiKey: apiKey, baseURL: pexelsBaseURL, client: client}
}

// Name identifies the provider inside the registry.
func (p *PexelsProvider) Name() string {
	return "pexels"
}

type pexelsResponse struct {
	Photos []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Photographer string `json:"photographer"`
		Src          struct {
			Large  string `json:"large"`
			Medium string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

// Search queries Pexels; an empty photo list is not an error.
func (p *PexelsProvider) Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("pexels provider misconfigured")
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
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search pexels: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels returned %s", resp.Status)
	}

	var parsed pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}

	results := make([]domain.ImageResult, 0, len(parsed.Photos))
	for _, photo := range parsed.Photos {
		results = append(results, domain.ImageResult{
			URL:          photo.Src.Large,
			ThumbnailURL: photo.Src.Medium,
			Width:        photo.Width,
			Height:       photo.Height,
			Attribution:  photo.Photographer,
		})
	}

	return results, nil
}
