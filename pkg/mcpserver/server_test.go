package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/deep-research/pkg/research"
)

type call struct {
	query          string
	breadth, depth int
}

type stubResearcher struct {
	mu        sync.Mutex
	result    research.Result
	questions []string
	calls     []call
	prompts   []string
}

func (s *stubResearcher) Research(_ context.Context, query string, breadth, depth int, onProgress func(research.Progress)) research.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{query, breadth, depth})
	if onProgress != nil {
		onProgress(research.Progress{TotalDepth: depth})
	}
	return s.result
}

func (s *stubResearcher) WriteReport(_ context.Context, prompt string, _, _ []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return "# Report"
}

func (s *stubResearcher) WriteAnswer(_ context.Context, prompt string, _ []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return "Paris"
}

func (s *stubResearcher) Feedback(_ context.Context, _ string, n int) []string {
	return s.questions[:min(n, len(s.questions))]
}

func connect(t *testing.T, r Researcher) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	server := New(r, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text, res.IsError
}

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://example.com/%d", i+1)
	}
	return out
}

func TestListTools(t *testing.T) {
	cs := connect(t, &stubResearcher{})
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, len(res.Tools))
	for i, tool := range res.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{"deep_web_research", "generate_research_questions"}, names)
}

func TestDeepResearchAnswer(t *testing.T) {
	r := &stubResearcher{
		result: research.Result{
			Findings: []string{"f1", "f2", "f3", "f4", "f5", "f6"},
			Sources:  urls(7),
		},
		questions: []string{"should not be asked"},
	}
	cs := connect(t, r)

	text, isErr := callText(t, cs, "deep_web_research", map[string]any{
		"query":       "capital of France",
		"breadth":     20,
		"depth":       4,
		"output_type": "answer",
	})

	assert.False(t, isErr)
	assert.Equal(t, "**Research Answer:**\n\nParis\n\n"+
		"**Key Findings:**\n1. f1\n2. f2\n3. f3\n4. f4\n5. f5\n\n"+
		"**Sources:** 7 URLs researched\n"+
		"- https://example.com/1\n- https://example.com/2\n- https://example.com/3\n- https://example.com/4\n- https://example.com/5\n"+
		"... and 2 more sources\n", text)

	require.Len(t, r.calls, 1)
	assert.Equal(t, call{"capital of France", 10, 4}, r.calls[0])
	assert.Equal(t, []string{"capital of France"}, r.prompts)
}

func TestDeepResearchReport(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantQuery string
	}{
		{
			name:      "Follow-up questions folded in",
			args:      map[string]any{"query": "trade routes"},
			wantQuery: "trade routes\n\nAdditional research directions:\n- Which era?\n- Which region?",
		},
		{
			name:      "Follow-up disabled",
			args:      map[string]any{"query": "trade routes", "generate_followup": false},
			wantQuery: "trade routes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubResearcher{
				result:    research.Result{Findings: []string{"a", "b"}, Sources: urls(3)},
				questions: []string{"Which era?", "Which region?"},
			}
			cs := connect(t, r)

			text, isErr := callText(t, cs, "deep_web_research", tt.args)
			assert.False(t, isErr)
			assert.Equal(t, "**Deep Research Report**\n\n# Report\n\n**Research Statistics:**\n"+
				"- Breadth: 3 queries per iteration\n- Depth: 2 research iterations\n"+
				"- Total findings: 2\n- Sources analyzed: 3\n", text)

			require.Len(t, r.calls, 1)
			assert.Equal(t, call{tt.wantQuery, 3, 2}, r.calls[0])
			assert.Equal(t, []string{"trade routes"}, r.prompts)
		})
	}
}

func TestDeepResearchEmptyQuery(t *testing.T) {
	r := &stubResearcher{}
	cs := connect(t, r)

	text, isErr := callText(t, cs, "deep_web_research", map[string]any{"query": "  "})
	assert.True(t, isErr)
	assert.Equal(t, "Error: Query parameter is required for research.", text)
	assert.Empty(t, r.calls)
}

func TestGenerateResearchQuestions(t *testing.T) {
	tests := []struct {
		name      string
		questions []string
		args      map[string]any
		want      string
	}{
		{
			name:      "Questions",
			questions: []string{"Which era?", "Which region?", "Which goods?"},
			args:      map[string]any{"query": "trade", "num_questions": 2},
			want: "**Follow-up Research Questions for:** trade\n\n1. Which era?\n2. Which region?\n" +
				"\n*These questions can help refine your research direction and ensure comprehensive coverage of the topic.*",
		},
		{
			name: "Clear query",
			args: map[string]any{"query": "trade"},
			want: "The research query 'trade' appears to be sufficiently clear and specific. No additional clarifying questions are needed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := connect(t, &stubResearcher{questions: tt.questions})
			text, isErr := callText(t, cs, "generate_research_questions", tt.args)
			assert.False(t, isErr)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestToolPanicIsReported(t *testing.T) {
	cs := connect(t, panicResearcher{&stubResearcher{}})
	text, isErr := callText(t, cs, "generate_research_questions", map[string]any{"query": "q"})
	assert.True(t, isErr)
	assert.Equal(t, "Error generating follow-up questions: model unavailable", text)
}

type panicResearcher struct{ *stubResearcher }

func (panicResearcher) Feedback(context.Context, string, int) []string {
	panic("model unavailable")
}
