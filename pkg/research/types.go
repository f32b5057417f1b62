package research

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mikeboe/deep-research/pkg/metrics"
)

// Config holds runtime configuration for an Engine
type Config struct {
	// Concurrency bounds the branch bodies in flight across one run.
	Concurrency int
	// MaxResults is the number of search results fetched per sub-query.
	MaxResults int

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

const (
	DefaultConcurrency    = 2
	DefaultMaxResults     = 5
	DefaultMaxFindings    = 3
	DefaultExtractTimeout = 60 * time.Second

	// DocumentTokenBudget caps each retrieved document before extraction.
	DocumentTokenBudget = 25000
)

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// SubQuery is one planned search with the goal it serves.
type SubQuery struct {
	Query        string `json:"query" jsonschema:"The SERP query"`
	ResearchGoal string `json:"research_goal" jsonschema:"First talk about the goal of the research that this query is meant to accomplish, then go deeper into how to advance the research once the results are found, mention additional research directions. Be as specific as possible, especially for additional research directions."`
}

// Document is a retrieved search result. Documents without text are dropped
// before extraction.
type Document struct {
	URL  string
	Text string
}

// Extraction is what the extractor learned from one sub-query's documents.
type Extraction struct {
	Findings  []string `json:"learnings"`
	FollowUps []string `json:"follow_up_questions"`
}

// Result is the deduplicated outcome of a research call.
type Result struct {
	Findings []string `json:"learnings"`
	Sources  []string `json:"visited_urls"`
}

// Progress is a snapshot of a run's counters.
type Progress struct {
	CurrentDepth     int    `json:"current_depth"`
	TotalDepth       int    `json:"total_depth"`
	CurrentBreadth   int    `json:"current_breadth"`
	TotalBreadth     int    `json:"total_breadth"`
	CurrentQuery     string `json:"current_query,omitempty"`
	TotalQueries     int    `json:"total_queries"`
	CompletedQueries int    `json:"completed_queries"`
}

// Task is one frame of the research recursion.
type Task struct {
	Query    string
	Breadth  int
	Depth    int
	Findings []string
	Sources  []string
}

// Next computes the frame that continues q after its extraction. The returned
// bool reports whether the child should be researched; when false the child's
// findings and sources are the branch's final result.
func (t Task) Next(q SubQuery, ext Extraction, urls []string) (Task, bool) {
	child := Task{
		Query:    ContinuationQuery(q.ResearchGoal, ext.FollowUps),
		Breadth:  ChildBreadth(t.Breadth),
		Depth:    t.Depth - 1,
		Findings: union(t.Findings, ext.Findings),
		Sources:  union(t.Sources, urls),
	}
	return child, child.Depth > 0
}

// ChildBreadth halves breadth, never going below one.
func ChildBreadth(breadth int) int {
	return max(1, breadth/2)
}

// ContinuationQuery is the topic handed to the next level of a branch.
func ContinuationQuery(goal string, followUps []string) string {
	return strings.TrimSpace("Previous research goal: " + goal +
		"\nFollow-up research directions: " + strings.Join(followUps, "\n"))
}

// Merge unions results. The outcome does not depend on argument order.
func Merge(results ...Result) Result {
	findings := map[string]struct{}{}
	sources := map[string]struct{}{}
	for _, r := range results {
		add(findings, r.Findings)
		add(sources, r.Sources)
	}
	return Result{
		Findings: slices.Sorted(maps.Keys(findings)),
		Sources:  slices.Sorted(maps.Keys(sources)),
	}
}

func union(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	add(set, a)
	add(set, b)
	return slices.Sorted(maps.Keys(set))
}

func add(set map[string]struct{}, items []string) {
	for _, s := range items {
		if s != "" {
			set[s] = struct{}{}
		}
	}
}
