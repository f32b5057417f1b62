// Package search provides web and academic search backends that return ranked
// documents for a query.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mikeboe/deep-research/pkg/config"
)

// ErrSearch marks failures of a search backend.
var ErrSearch = errors.New("search failed")

// DefaultMaxResults is used when a caller asks for zero results.
const DefaultMaxResults = 5

// Result is one ranked document. Content is empty when the backend returned
// no text for the URL.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher runs a single query against a backend.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// New returns the backend named by cfg.SearchProvider.
func New(cfg *config.Config) (Searcher, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	switch cfg.SearchProvider {
	case "", "tavily":
		if cfg.TavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily: TAVILY_API_KEY is not set")
		}
		return NewTavily(cfg.TavilyAPIKey, client), nil
	case "brave":
		if cfg.BraveAPIKey == "" {
			return nil, fmt.Errorf("brave: BRAVE_API_KEY is not set")
		}
		return NewBrave(cfg.BraveAPIKey, client), nil
	case "arxiv":
		a := NewArxiv(client)
		a.PDF = NewPDFReader(cfg.MistralAPIKey, client)
		return a, nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
}

func limit(maxResults int) int {
	if maxResults <= 0 {
		return DefaultMaxResults
	}
	return maxResults
}
