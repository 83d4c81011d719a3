// Package search provides external directory search for local mental
// health services, backed by the Tavily search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "https://api.tavily.com/search"

// DirectorySearcher finds external services matching a free-text query.
type DirectorySearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Result is one directory entry returned by a search.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// NoopSearcher is used when no search API key is configured. It always
// reports zero results so the workflow falls back to internal matching.
type NoopSearcher struct{}

// Search returns no results.
func (NoopSearcher) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return nil, nil
}

// TavilyClient implements DirectorySearcher against the Tavily API.
type TavilyClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option configures the Tavily client.
type Option func(*TavilyClient)

// WithAPIKey sets the Tavily API key, overriding TAVILY_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *TavilyClient) { c.apiKey = key }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *TavilyClient) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *TavilyClient) { c.http = hc }
}

// NewTavilyClient creates a directory searcher. The API key comes from
// options or the TAVILY_API_KEY environment variable.
func NewTavilyClient(opts ...Option) (*TavilyClient, error) {
	c := &TavilyClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}
	return c, nil
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search queries the directory. maxResults <= 0 uses the API default.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	body, err := json.Marshal(searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	slog.Debug("TavilyClient.Search: results received", "query", query, "count", len(parsed.Results))
	return parsed.Results, nil
}
