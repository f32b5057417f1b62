package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mikeboe/deep-research/pkg/metrics"
	"github.com/mikeboe/deep-research/pkg/search"
)

// Engine drives recursive research: plan sub-queries, search and extract for
// each one concurrently, then descend along the follow-up directions until the
// depth runs out.
type Engine struct {
	Planner   Planner
	Extractor Extractor
	Searcher  search.Searcher

	cfg    Config
	logger *slog.Logger
}

func NewEngine(planner Planner, extractor Extractor, searcher search.Searcher, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		Planner:   planner,
		Extractor: extractor,
		Searcher:  searcher,
		cfg:       cfg,
		logger:    cfg.Logger,
	}
}

// run is the state shared by every branch of one root call.
type run struct {
	gate     *semaphore.Weighted
	progress *tracker
}

// Research runs a fresh research tree for query.
func (e *Engine) Research(ctx context.Context, query string, breadth, depth int, onProgress func(Progress)) Result {
	return e.Run(ctx, Task{Query: query, Breadth: breadth, Depth: depth}, onProgress)
}

// Run researches task and returns everything learned along the way merged
// with the task's seed findings and sources. It never fails: external errors
// only remove the affected branch from the result.
func (e *Engine) Run(ctx context.Context, task Task, onProgress func(Progress)) Result {
	if task.Breadth < 1 {
		task.Breadth = 1
	}
	if task.Depth <= 0 {
		return Merge(Result{Findings: task.Findings, Sources: task.Sources})
	}

	defer e.cfg.Metrics.RunStarted()()

	r := &run{
		gate:     semaphore.NewWeighted(int64(e.cfg.Concurrency)),
		progress: newTracker(onProgress, task.Depth, task.Breadth),
	}
	defer r.progress.close()

	e.logger.Info("starting research", "query", task.Query, "breadth", task.Breadth, "depth", task.Depth)
	res := e.explore(ctx, r, task)
	e.logger.Info("research finished", "findings", len(res.Findings), "sources", len(res.Sources))
	return res
}

// explore plans one level of task and fans out a branch per sub-query. The
// result always contains the task's own findings and sources.
func (e *Engine) explore(ctx context.Context, r *run, task Task) Result {
	seed := Merge(Result{Findings: task.Findings, Sources: task.Sources})

	queries := e.Planner.Plan(ctx, task.Query, task.Findings, task.Breadth)
	e.cfg.Metrics.Plan(len(queries))
	if len(queries) == 0 {
		e.logger.Warn("no queries planned, ending branch", "depth", task.Depth)
		return seed
	}
	r.progress.planned(queries)

	results := make([]Result, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			results[i] = e.branch(ctx, r, task, q)
			return nil
		})
	}
	_ = g.Wait()

	return Merge(append(results, seed)...)
}

// branch researches one sub-query. Any failure yields an empty result.
func (e *Engine) branch(ctx context.Context, r *run, task Task, q SubQuery) (res Result) {
	counted := false
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("research branch panicked", "query", q.Query, "panic", p)
			if !counted {
				e.cfg.Metrics.Branch(metrics.OutcomeFailed, 0)
				r.progress.finished(q.Query)
			}
			res = Result{}
		}
	}()

	child, recurse, err := e.step(ctx, r, task, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.logger.Error("timeout researching query", "query", q.Query, "error", err)
		} else {
			e.logger.Error("error researching query", "query", q.Query, "error", err)
		}
		e.cfg.Metrics.Branch(metrics.OutcomeFailed, 0)
		r.progress.finished(q.Query)
		return Result{}
	}

	learned := max(0, len(child.Findings)-len(task.Findings))
	if !recurse {
		e.cfg.Metrics.Branch(metrics.OutcomeTerminal, learned)
		r.progress.finished(q.Query)
		return Result{Findings: child.Findings, Sources: child.Sources}
	}

	e.cfg.Metrics.Branch(metrics.OutcomeRecursed, learned)
	e.logger.Info("researching deeper", "breadth", child.Breadth, "depth", child.Depth)
	r.progress.descended(q.Query, child)
	counted = true
	return e.explore(ctx, r, child)
}

// step runs the gated part of a branch: search followed by extraction.
func (e *Engine) step(ctx context.Context, r *run, task Task, q SubQuery) (Task, bool, error) {
	if err := r.gate.Acquire(ctx, 1); err != nil {
		return Task{}, false, fmt.Errorf("waiting for research slot: %w", err)
	}
	defer r.gate.Release(1)

	hits, err := e.Searcher.Search(ctx, q.Query, e.cfg.MaxResults)
	if err != nil {
		return Task{}, false, fmt.Errorf("searching %q: %w", q.Query, err)
	}

	urls := make([]string, 0, len(hits))
	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		if h.URL != "" {
			urls = append(urls, h.URL)
		}
		if h.Content != "" {
			docs = append(docs, Document{URL: h.URL, Text: h.Content})
		}
	}

	ext := e.Extractor.Extract(ctx, q.Query, docs, DefaultMaxFindings, ChildBreadth(task.Breadth))
	child, recurse := task.Next(q, ext, urls)
	return child, recurse, nil
}
