// Package mcpserver exposes deep research as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/deep-research/pkg/research"
)

const (
	Name    = "deep-research"
	Version = "1.0.0"

	defaultBreadth   = 3
	defaultDepth     = 2
	defaultQuestions = 3
	maxQuestions     = 10
	topItems         = 5
)

// Researcher is the research surface the tools drive.
type Researcher interface {
	Research(ctx context.Context, query string, breadth, depth int, onProgress func(research.Progress)) research.Result
	WriteReport(ctx context.Context, prompt string, findings, sources []string) string
	WriteAnswer(ctx context.Context, prompt string, findings []string) string
	Feedback(ctx context.Context, query string, numQuestions int) []string
}

type ResearchInput struct {
	Query            string `json:"query" jsonschema:"The research query or topic to investigate"`
	Breadth          int    `json:"breadth,omitempty" jsonschema:"Number of parallel search queries per iteration (1-10, default 3)"`
	Depth            int    `json:"depth,omitempty" jsonschema:"Number of recursive research iterations (1-5, default 2)"`
	OutputType       string `json:"output_type,omitempty" jsonschema:"Either report for a detailed markdown report or answer for a concise answer (default report)"`
	GenerateFollowup *bool  `json:"generate_followup,omitempty" jsonschema:"Whether to ask clarifying questions and fold them into the research (default true)"`
}

type QuestionsInput struct {
	Query        string `json:"query" jsonschema:"The research query to generate clarifying questions for"`
	NumQuestions int    `json:"num_questions,omitempty" jsonschema:"Number of follow-up questions to generate (1-10, default 3)"`
}

type tools struct {
	researcher Researcher
	logger     *slog.Logger
}

// New returns an MCP server with the deep_web_research and
// generate_research_questions tools.
func New(r Researcher, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	t := &tools{researcher: r, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "deep_web_research",
		Description: "Perform deep, iterative web research on a topic. Generates search queries, extracts learnings and follows up on them recursively, then returns either a detailed report or a concise answer.",
	}, t.deepResearch)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_research_questions",
		Description: "Generate clarifying follow-up questions that refine the direction of a research query.",
	}, t.researchQuestions)
	return server
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func (t *tools) deepResearch(ctx context.Context, _ *mcp.CallToolRequest, in ResearchInput) (res *mcp.CallToolResult, _ any, _ error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return textResult("Error: Query parameter is required for research.", true), nil, nil
	}

	breadth := defaultBreadth
	if in.Breadth != 0 {
		breadth = research.ClampBreadth(in.Breadth)
	}
	depth := defaultDepth
	if in.Depth != 0 {
		depth = research.ClampDepth(in.Depth)
	}
	answerMode := in.OutputType == "answer"
	followUp := in.GenerateFollowup == nil || *in.GenerateFollowup

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("deep research tool failed", "error", r)
			res = textResult(fmt.Sprintf("Error during research: %v", r), true)
		}
	}()

	t.logger.Info("starting research", "query", query, "breadth", breadth, "depth", depth, "output_type", in.OutputType)

	prompt := query
	if followUp && !answerMode {
		prompt = research.WithDirections(query, t.researcher.Feedback(ctx, query, defaultQuestions))
	}

	result := t.researcher.Research(ctx, prompt, breadth, depth, func(p research.Progress) {
		t.logger.Debug("research progress", "depth", p.CurrentDepth, "completed", p.CompletedQueries, "total", p.TotalQueries)
	})

	if answerMode {
		answer := t.researcher.WriteAnswer(ctx, query, result.Findings)
		return textResult(formatAnswer(answer, result), false), nil, nil
	}
	report := t.researcher.WriteReport(ctx, query, result.Findings, result.Sources)
	return textResult(formatReport(report, result, breadth, depth), false), nil, nil
}

func (t *tools) researchQuestions(ctx context.Context, _ *mcp.CallToolRequest, in QuestionsInput) (res *mcp.CallToolResult, _ any, _ error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return textResult("Error: Query parameter is required.", true), nil, nil
	}
	n := defaultQuestions
	if in.NumQuestions != 0 {
		n = min(max(in.NumQuestions, 1), maxQuestions)
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("question tool failed", "error", r)
			res = textResult(fmt.Sprintf("Error generating follow-up questions: %v", r), true)
		}
	}()

	return textResult(formatQuestions(query, t.researcher.Feedback(ctx, query, n)), false), nil, nil
}

func formatAnswer(answer string, r research.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Research Answer:**\n\n%s\n\n", answer)

	if len(r.Findings) > 0 {
		sb.WriteString("**Key Findings:**\n")
		for i, f := range r.Findings[:min(topItems, len(r.Findings))] {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
		}
		sb.WriteString("\n")
	}

	if len(r.Sources) > 0 {
		fmt.Fprintf(&sb, "**Sources:** %d URLs researched\n", len(r.Sources))
		for _, u := range r.Sources[:min(topItems, len(r.Sources))] {
			fmt.Fprintf(&sb, "- %s\n", u)
		}
		if len(r.Sources) > topItems {
			fmt.Fprintf(&sb, "... and %d more sources\n", len(r.Sources)-topItems)
		}
	}
	return sb.String()
}

func formatReport(report string, r research.Result, breadth, depth int) string {
	return fmt.Sprintf("**Deep Research Report**\n\n%s\n\n**Research Statistics:**\n"+
		"- Breadth: %d queries per iteration\n"+
		"- Depth: %d research iterations\n"+
		"- Total findings: %d\n"+
		"- Sources analyzed: %d\n",
		report, breadth, depth, len(r.Findings), len(r.Sources))
}

func formatQuestions(query string, questions []string) string {
	if len(questions) == 0 {
		return fmt.Sprintf("The research query '%s' appears to be sufficiently clear and specific. No additional clarifying questions are needed.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Follow-up Research Questions for:** %s\n\n", query)
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}
	sb.WriteString("\n*These questions can help refine your research direction and ensure comprehensive coverage of the topic.*")
	return sb.String()
}
