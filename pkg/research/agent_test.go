package research

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikeboe/deep-research/pkg/completion"
	"github.com/mikeboe/deep-research/pkg/search"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in, breadth, depth int
	}{
		{-1, 1, 1},
		{0, 1, 1},
		{3, 3, 3},
		{7, 7, 5},
		{42, 10, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.breadth, ClampBreadth(tt.in), "ClampBreadth(%d)", tt.in)
		assert.Equal(t, tt.depth, ClampDepth(tt.in), "ClampDepth(%d)", tt.in)
	}
}

func TestAgentResearchAndAnswer(t *testing.T) {
	c := &scriptedClient{}
	l := newTestLLM(c, 0)

	plan := `{"queries":[{"query":"capital of France","research_goal":"identify capital"}]}`
	extraction := `{"learnings":["Paris is the capital of France"],"follow_up_questions":[]}`
	answer := `{"exact_answer":"Paris"}`
	responses := []string{plan, extraction, answer}
	l.Client = completionFunc(func(_ context.Context, _ completion.Request) (string, error) {
		next := responses[0]
		responses = responses[1:]
		return next, nil
	})

	searcher := searcherFunc(func(context.Context, string, int) ([]search.Result, error) {
		return []search.Result{{URL: "https://example.com/paris", Content: "Paris is the capital of France."}}, nil
	})

	var logs bytes.Buffer
	agent := NewAgent(l, searcher, Config{Logger: quietLogger()}).
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	res := agent.Research(context.Background(), "What is the capital of France?", 2, 1, nil)
	assert.Equal(t, []string{"Paris is the capital of France"}, res.Findings)
	assert.Equal(t, []string{"https://example.com/paris"}, res.Sources)

	assert.Equal(t, "Paris", agent.WriteAnswer(context.Background(), "What is the capital of France?", res.Findings))
	assert.Contains(t, logs.String(), "starting research")
	assert.Contains(t, logs.String(), "created learnings")
}
