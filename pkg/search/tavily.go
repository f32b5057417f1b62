package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API, which returns page content alongside
// each URL.
type Tavily struct {
	APIKey   string
	Endpoint string
	client   *http.Client
}

// NewTavily constructs a Tavily search provider.
func NewTavily(apiKey string, client *http.Client) *Tavily {
	if client == nil {
		client = http.DefaultClient
	}
	return &Tavily{APIKey: apiKey, Endpoint: tavilyEndpoint, client: client}
}

// Search posts a query to Tavily.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return nil, fmt.Errorf("%w: tavily API key is missing", ErrSearch)
	}

	payload, err := json.Marshal(map[string]any{
		"query":       query,
		"api_key":     t.APIKey,
		"max_results": limit(maxResults),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tavily request: %w", ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: tavily http %d: %s", ErrSearch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Content    string `json:"content"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: decode tavily response: %w", ErrSearch, err)
	}

	results := make([]Result, 0, len(response.Results))
	for _, r := range response.Results {
		content := r.Content
		if content == "" {
			content = r.RawContent
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: content})
		if len(results) >= limit(maxResults) {
			break
		}
	}
	return results, nil
}
