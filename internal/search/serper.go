package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://google.serper.dev/search"
	DefaultResults  = 10
	maxResults      = 100
)

// ErrNoAPIKey is returned by NewClient when the Serper key is unset.
var ErrNoAPIKey = errors.New("SERPER_API_KEY is not set")

// Searcher finds web results for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Result is one organic web result.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// Client queries the Serper Google search API.
type Client struct {
	apiKey     string
	endpoint   string
	num        int
	httpClient *http.Client
}

// Options configures a Client. Zero values use the package defaults.
type Options struct {
	Endpoint   string
	Results    int
	HTTPClient *http.Client
}

// NewClient returns a Client or ErrNoAPIKey.
func NewClient(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	num := opts.Results
	if num <= 0 {
		num = DefaultResults
	}
	if num > maxResults {
		num = maxResults
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{apiKey: apiKey, endpoint: endpoint, num: num, httpClient: httpClient}, nil
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic []Result `json:"organic"`
}

// Search returns the organic results for query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	payload, err := json.Marshal(searchRequest{Q: query, Num: c.num})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return parsed.Organic, nil
}

// FormatResults renders results as a Markdown bullet list.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = r.Link
		}
		fmt.Fprintf(&b, "- [%s](%s)", title, r.Link)
		if r.Date != "" {
			fmt.Fprintf(&b, " (%s)", r.Date)
		}
		if snippet := truncate(strings.TrimSpace(r.Snippet), 300); snippet != "" {
			b.WriteString(": ")
			b.WriteString(snippet)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

var _ Searcher = (*Client)(nil)
