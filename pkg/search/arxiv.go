package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const arxivEndpoint = "https://export.arxiv.org/api/query"

// ArxivEntry holds one entry of the arXiv Atom feed
type ArxivEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	Link      []ArxivLink `xml:"link"`
}

// ArxivLink holds one link of an arXiv entry
type ArxivLink struct {
	Href  string `xml:"href,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// ArxivFeed is the arXiv Atom feed
type ArxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []ArxivEntry `xml:"entry"`
}

// Arxiv searches arXiv papers. Content is the abstract unless a PDF reader is
// configured, in which case the paper's full text replaces it when available.
type Arxiv struct {
	Endpoint string
	PDF      *PDFReader
	Logger   *slog.Logger
	client   *http.Client
}

// NewArxiv constructs an arXiv search provider.
func NewArxiv(client *http.Client) *Arxiv {
	if client == nil {
		client = http.DefaultClient
	}
	return &Arxiv{Endpoint: arxivEndpoint, Logger: slog.Default(), client: client}
}

// Search queries the arXiv API.
func (a *Arxiv) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Add("search_query", "all:"+query)
	params.Add("max_results", strconv.Itoa(limit(maxResults)))
	params.Add("start", "0")

	apiURL := a.Endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: arxiv request: %w", ErrSearch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read arxiv response: %w", ErrSearch, err)
	}

	if resp.StatusCode != http.StatusOK {
		a.Logger.Error("arxiv returned non-200 status code", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: arxiv http %d", ErrSearch, resp.StatusCode)
	}

	var feed ArxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal XML: %w", ErrSearch, err)
	}

	results := make([]Result, 0, len(feed.Entry))
	for _, entry := range feed.Entry {
		r := Result{
			Title:   collapse(entry.Title),
			URL:     strings.TrimSpace(entry.ID),
			Content: collapse(entry.Summary),
		}
		pdf := entry.pdfLink()
		if r.URL == "" {
			r.URL = pdf
		}
		if a.PDF != nil && pdf != "" {
			if text, err := a.PDF.Read(ctx, pdf); err != nil {
				a.Logger.Warn("failed to read paper, using abstract", "url", pdf, "error", err)
			} else if text != "" {
				r.Content = text
			}
		}
		results = append(results, r)
		if len(results) >= limit(maxResults) {
			break
		}
	}

	a.Logger.Debug("arxiv search complete", "query", query, "results", len(results))
	return results, nil
}

func (e ArxivEntry) pdfLink() string {
	for _, link := range e.Link {
		if link.Type == "application/pdf" || link.Title == "pdf" {
			return strings.TrimSpace(link.Href)
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
