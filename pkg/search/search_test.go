package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/deep-research/pkg/config"
)

func TestTavilySearch(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"results":[
			{"title":"Paris","url":"https://example.com/paris","content":"Paris is the capital of France"},
			{"title":"Empty","url":"https://example.com/empty","content":""},
			{"title":"Raw","url":"https://example.com/raw","content":"","raw_content":"raw text"}
		]}`)
	}))
	defer srv.Close()

	tv := NewTavily("key", srv.Client())
	tv.Endpoint = srv.URL

	results, err := tv.Search(context.Background(), "capital of France", 5)
	require.NoError(t, err)

	assert.Equal(t, "capital of France", got["query"])
	assert.EqualValues(t, 5, got["max_results"])
	assert.Equal(t, []Result{
		{Title: "Paris", URL: "https://example.com/paris", Content: "Paris is the capital of France"},
		{Title: "Empty", URL: "https://example.com/empty"},
		{Title: "Raw", URL: "https://example.com/raw", Content: "raw text"},
	}, results)
}

func TestTavilyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tests := []struct {
		name string
		key  string
	}{
		{"Missing key", ""},
		{"Non-200", "key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := NewTavily(tt.key, srv.Client())
			tv.Endpoint = srv.URL
			_, err := tv.Search(context.Background(), "q", 5)
			assert.True(t, errors.Is(err, ErrSearch), "got %v", err)
		})
	}
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brave-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		_, _ = io.WriteString(w, `{"web":{"results":[
			{"title":"Go","url":"https://go.dev","description":"The Go language","extra_snippets":["Fast builds"]},
			{"title":"Tour","url":"https://go.dev/tour","description":"A tour"},
			{"title":"Extra","url":"https://go.dev/extra","description":"dropped"}
		]}}`)
	}))
	defer srv.Close()

	b := NewBrave("brave-key", srv.Client())
	b.Endpoint = srv.URL

	results, err := b.Search(context.Background(), "golang", 2)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "Go", URL: "https://go.dev", Content: "The Go language\nFast builds"},
		{Title: "Tour", URL: "https://go.dev/tour", Content: "A tour"},
	}, results)
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on
      recurrent networks. </summary>
    <published>2017-06-12T17:57:34Z</published>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:transformers", r.URL.Query().Get("search_query"))
		_, _ = io.WriteString(w, arxivFeed)
	}))
	defer srv.Close()

	a := NewArxiv(srv.Client())
	a.Endpoint = srv.URL

	results, err := a.Search(context.Background(), "transformers", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Attention Is All You Need", results[0].Title)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", results[0].URL)
	assert.Equal(t, "The dominant sequence transduction models are based on recurrent networks.", results[0].Content)
}

func TestArxivSearchWithFullText(t *testing.T) {
	ocr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Document struct {
				URL string `json:"document_url"`
			} `json:"document"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "https://arxiv.org/pdf/1706.03762v7", req.Document.URL)
		_, _ = io.WriteString(w, `{"pages":[{"index":0,"markdown":"# Attention"},{"index":1,"markdown":"Body"}]}`)
	}))
	defer ocr.Close()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, arxivFeed)
	}))
	defer feed.Close()

	a := NewArxiv(feed.Client())
	a.Endpoint = feed.URL
	a.PDF = NewPDFReader("mistral", ocr.Client())
	a.PDF.Endpoint = ocr.URL

	results, err := a.Search(context.Background(), "transformers", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "- Page 0 -\n# Attention\n\n- Page 1 -\nBody", results[0].Content)
}

func TestNewPDFReaderWithoutKey(t *testing.T) {
	assert.Nil(t, NewPDFReader("", nil))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    any
		wantErr bool
	}{
		{"Tavily default", config.Config{TavilyAPIKey: "k"}, &Tavily{}, false},
		{"Tavily without key", config.Config{SearchProvider: "tavily"}, nil, true},
		{"Brave", config.Config{SearchProvider: "brave", BraveAPIKey: "k"}, &Brave{}, false},
		{"Arxiv", config.Config{SearchProvider: "arxiv"}, &Arxiv{}, false},
		{"Unknown", config.Config{SearchProvider: "bing"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}
