package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave allows one request per second per subscription key; all Brave
// instances sharing a key share one limiter.
var (
	braveLimitersMu sync.Mutex
	braveLimiters   = map[string]*rate.Limiter{}
)

func braveLimiterFor(apiKey string) *rate.Limiter {
	braveLimitersMu.Lock()
	defer braveLimitersMu.Unlock()
	l, ok := braveLimiters[apiKey]
	if !ok {
		l = rate.NewLimiter(rate.Limit(1), 1)
		braveLimiters[apiKey] = l
	}
	return l
}

// Brave uses the Brave Search API. Result content is the description plus any
// extra snippets.
type Brave struct {
	APIKey   string
	Endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewBrave constructs a Brave search provider.
func NewBrave(apiKey string, client *http.Client) *Brave {
	if client == nil {
		client = http.DefaultClient
	}
	return &Brave{APIKey: apiKey, Endpoint: braveEndpoint, client: client, limiter: braveLimiterFor(apiKey)}
}

// Search executes a Brave query.
func (b *Brave) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(b.APIKey) == "" {
		return nil, fmt.Errorf("%w: brave API key is missing", ErrSearch)
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: brave rate limit: %w", ErrSearch, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(limit(maxResults)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: brave request: %w", ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: brave http %d", ErrSearch, resp.StatusCode)
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title         string   `json:"title"`
				URL           string   `json:"url"`
				Description   string   `json:"description"`
				ExtraSnippets []string `json:"extra_snippets"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode brave response: %w", ErrSearch, err)
	}

	results := make([]Result, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		parts := append([]string{r.Description}, r.ExtraSnippets...)
		content := strings.TrimSpace(strings.Join(parts, "\n"))
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: content})
		if len(results) >= limit(maxResults) {
			break
		}
	}
	return results, nil
}
