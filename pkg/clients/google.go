package clients

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/mikeboe/deep-research/pkg/completion"
)

// DefaultGoogleModel is used when GOOGLE_MODEL is unset.
const DefaultGoogleModel = "gemini-2.0-flash"

// GoogleAI creates a Gemini completion client.
// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
func GoogleAI(ctx context.Context, p Provider, timeout time.Duration) (*completion.GenAI, error) {
	model := p.Model
	if model == "" {
		model = DefaultGoogleModel
	}
	return completion.NewGenAI(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	}, model, timeout)
}
