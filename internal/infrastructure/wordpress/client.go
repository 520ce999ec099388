package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/ports"
)

// Client talks to the WordPress REST API (wp/v2) with application-password
// basic auth. Any non-2xx response surfaces as an error; the engine decides
// how fatal that is.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

var _ ports.CMSClient = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.WordPressConfig) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.AppPassword,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FindCategoryID looks up a category id by exact name match. Returns 0 when
// no category matches.
func (c *Client) FindCategoryID(ctx context.Context, name string) (int64, error) {
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/categories?search=%s", c.baseURL, url.QueryEscape(name))

	var categories []term
	if err := c.get(ctx, endpoint, &categories); err != nil {
		return 0, fmt.Errorf("find category %q: %w", name, err)
	}

	for _, cat := range categories {
		if strings.EqualFold(cat.Name, name) {
			return cat.ID, nil
		}
	}
	return 0, nil
}

// CreateOrFindTags resolves tag ids for the given names, creating any that
// are missing.
func (c *Client) CreateOrFindTags(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := c.findTag(ctx, name)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			id, err = c.createTag(ctx, name)
			if err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) findTag(ctx context.Context, name string) (int64, error) {
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/tags?search=%s", c.baseURL, url.QueryEscape(name))

	var tags []term
	if err := c.get(ctx, endpoint, &tags); err != nil {
		return 0, fmt.Errorf("find tag %q: %w", name, err)
	}

	for _, tag := range tags {
		if strings.EqualFold(tag.Name, name) {
			return tag.ID, nil
		}
	}
	return 0, nil
}

func (c *Client) createTag(ctx context.Context, name string) (int64, error) {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return 0, fmt.Errorf("marshal tag: %w", err)
	}

	var created term
	if err := c.post(ctx, c.baseURL+"/wp-json/wp/v2/tags", "application/json", payload, &created); err != nil {
		return 0, fmt.Errorf("create tag %q: %w", name, err)
	}
	return created.ID, nil
}

// UploadMedia uploads raw image bytes and returns the media id.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("new media request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	var media struct {
		ID int64 `json:"id"`
	}
	if err := c.do(req, &media); err != nil {
		return 0, fmt.Errorf("upload media %s: %w", filename, err)
	}
	return media.ID, nil
}

// CreatePost publishes a post and returns its id.
func (c *Client) CreatePost(ctx context.Context, post ports.PostRequest) (int64, error) {
	body := map[string]any{
		"title":   post.Title,
		"content": post.Body,
		"excerpt": post.Excerpt,
		"status":  post.Status,
	}
	if post.AuthorID != 0 {
		body["author"] = post.AuthorID
	}
	if len(post.CategoryIDs) > 0 {
		body["categories"] = post.CategoryIDs
	}
	if len(post.TagIDs) > 0 {
		body["tags"] = post.TagIDs
	}
	if post.FeaturedMediaID != 0 {
		body["featured_media"] = post.FeaturedMediaID
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal post: %w", err)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.post(ctx, c.baseURL+"/wp-json/wp/v2/posts", "application/json", payload, &created); err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}
	return created.ID, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	return c.do(req, v)
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, payload []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", contentType)
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("wordpress returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
