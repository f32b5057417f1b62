package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/metrics"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
	"github.com/mikeboe/deep-research/pkg/trimmer"
)

// NewResearchAgent wires the configured completion provider and search backend
// into a research agent. rec may be nil.
func NewResearchAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) (*research.Agent, error) {
	client, provider, err := NewCompletionClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	searcher, err := search.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init search: %w", err)
	}

	trim := trimmer.New(&trimmer.TiktokenCounter{Encoding: trimmer.DefaultEncoding}, cfg.ContextSize).WithLogger(logger)
	llm := research.NewLLM(client, trim, logger)
	llm.ExtractTimeout = cfg.LLMTimeout

	logger.Info("using model", "provider", provider.Name, "model", provider.Model, "search", cfg.SearchProvider)

	return research.NewAgent(llm, searcher, research.Config{
		Concurrency: cfg.Concurrency,
		MaxResults:  cfg.SearchMaxResults,
		Logger:      logger,
		Metrics:     rec,
	}), nil
}
