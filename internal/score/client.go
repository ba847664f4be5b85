package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const clientTimeout = 10 * time.Second

// Client fetches excerpts from the practice service REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: clientTimeout},
	}
}

// Excerpt fetches a single excerpt by title.
func (c *Client) Excerpt(ctx context.Context, title string) (*Excerpt, error) {
	data, err := c.get(ctx, "/excerpts/"+url.PathEscape(title))
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Excerpts fetches all available excerpts.
func (c *Client) Excerpts(ctx context.Context) ([]Excerpt, error) {
	data, err := c.get(ctx, "/excerpts/")
	if err != nil {
		return nil, err
	}
	var excerpts []Excerpt
	if err := json.Unmarshal(data, &excerpts); err != nil {
		return nil, fmt.Errorf("failed to decode excerpt list: %w", err)
	}
	return excerpts, nil
}

// Instruments fetches the available instrument names.
func (c *Client) Instruments(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, "/excerpts/instruments")
	if err != nil {
		return nil, err
	}
	var instruments []string
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("failed to decode instrument list: %w", err)
	}
	return instruments, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach practice service: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close of the response body.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("practice service returned %s for %s", resp.Status, path)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
