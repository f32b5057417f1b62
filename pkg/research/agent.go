package research

import (
	"context"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/search"
)

// Limits accepted by the front-ends.
const (
	MaxBreadth = 10
	MaxDepth   = 5
)

// ClampBreadth limits breadth to [1, MaxBreadth].
func ClampBreadth(breadth int) int {
	return min(max(breadth, 1), MaxBreadth)
}

// ClampDepth limits depth to [1, MaxDepth].
func ClampDepth(depth int) int {
	return min(max(depth, 1), MaxDepth)
}

// Agent combines the research engine with the LLM steps that turn findings
// into a report or an answer. It is what the CLI, HTTP and MCP front-ends
// drive.
type Agent struct {
	Engine *Engine
	LLM    *LLM

	cfg Config
}

// NewAgent wires llm as both planner and extractor of a new Engine.
func NewAgent(llm *LLM, searcher search.Searcher, cfg Config) *Agent {
	return &Agent{
		Engine: NewEngine(llm, llm, searcher, cfg),
		LLM:    llm,
		cfg:    cfg,
	}
}

// WithLogger returns a copy of the agent whose engine and LLM steps log to
// logger.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	llm := *a.LLM
	llm.Logger = logger
	cfg := a.cfg
	cfg.Logger = logger
	return NewAgent(&llm, a.Engine.Searcher, cfg)
}

func (a *Agent) Research(ctx context.Context, query string, breadth, depth int, onProgress func(Progress)) Result {
	return a.Engine.Research(ctx, query, breadth, depth, onProgress)
}

func (a *Agent) WriteReport(ctx context.Context, prompt string, findings, sources []string) string {
	return a.LLM.WriteReport(ctx, prompt, findings, sources)
}

func (a *Agent) WriteAnswer(ctx context.Context, prompt string, findings []string) string {
	return a.LLM.WriteAnswer(ctx, prompt, findings)
}

func (a *Agent) Feedback(ctx context.Context, query string, numQuestions int) []string {
	return a.LLM.Feedback(ctx, query, numQuestions)
}
