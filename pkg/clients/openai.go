package clients

import (
	"time"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mikeboe/deep-research/pkg/completion"
)

// OpenAICompatible creates a completion client for any OpenAI-style endpoint.
func OpenAICompatible(p Provider, timeout time.Duration) (*completion.LLM, error) {
	opts := []openai.Option{
		openai.WithToken(p.APIKey),
		openai.WithModel(p.Model),
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return completion.NewLLM(llm, p.Model, timeout), nil
}
