package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GenAI drives Gemini models natively with a JSON response schema.
type GenAI struct {
	Client  *genai.Client
	Model   string
	Timeout time.Duration
}

// NewGenAI creates a Gemini client for model.
func NewGenAI(ctx context.Context, cfg *genai.ClientConfig, model string, timeout time.Duration) (*GenAI, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{Client: client, Model: model, Timeout: timeout}, nil
}

func (g *GenAI) Complete(ctx context.Context, req Request) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseJsonSchema = req.Schema
	}

	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, []*genai.Content{
		genai.NewContentFromText(req.User, genai.RoleUser),
	}, config)
	if err != nil {
		return "", fmt.Errorf("genai generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("genai returned no candidates")
	}

	return resp.Text(), nil
}
