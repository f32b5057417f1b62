package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikeboe/deep-research/pkg/completion"
	"github.com/mikeboe/deep-research/pkg/config"
)

// ErrNoProvider is returned when no model API key is configured.
var ErrNoProvider = errors.New("no model found, set at least one API key")

// ProviderKind identifies the API family used to reach a model.
type ProviderKind string

const (
	KindOpenAI ProviderKind = "openai"
	KindGoogle ProviderKind = "google"
)

// Provider describes the selected model endpoint.
type Provider struct {
	Name    string
	Kind    ProviderKind
	Model   string
	APIKey  string
	BaseURL string
}

const (
	nvidiaBaseURL    = "https://integrate.api.nvidia.com/v1"
	fireworksBaseURL = "https://api.fireworks.ai/inference/v1"

	nvidiaModel    = "meta/llama-3.1-70b-instruct"
	fireworksModel = "accounts/fireworks/models/deepseek-r1"
	openAIModel    = "gpt-4o-mini"
)

// SelectProvider picks the model endpoint in priority order: a custom model
// on the OpenAI key, NVIDIA, Fireworks, OpenAI, then Gemini.
func SelectProvider(cfg *config.Config) (Provider, error) {
	switch {
	case cfg.CustomModel != "" && cfg.OpenAIKey != "":
		return Provider{Name: "custom", Kind: KindOpenAI, Model: cfg.CustomModel, APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIEndpoint}, nil
	case cfg.NvidiaAPIKey != "":
		return Provider{Name: "nvidia", Kind: KindOpenAI, Model: nvidiaModel, APIKey: cfg.NvidiaAPIKey, BaseURL: nvidiaBaseURL}, nil
	case cfg.FireworksKey != "":
		return Provider{Name: "fireworks", Kind: KindOpenAI, Model: fireworksModel, APIKey: cfg.FireworksKey, BaseURL: fireworksBaseURL}, nil
	case cfg.OpenAIKey != "":
		return Provider{Name: "openai", Kind: KindOpenAI, Model: openAIModel, APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIEndpoint}, nil
	case cfg.GoogleAPIKey != "":
		return Provider{Name: "google", Kind: KindGoogle, Model: cfg.GoogleModel, APIKey: cfg.GoogleAPIKey}, nil
	}
	return Provider{}, ErrNoProvider
}

// NewCompletionClient builds the completion client for the configured provider.
func NewCompletionClient(ctx context.Context, cfg *config.Config) (completion.Client, Provider, error) {
	p, err := SelectProvider(cfg)
	if err != nil {
		return nil, p, err
	}

	var client completion.Client
	switch p.Kind {
	case KindGoogle:
		client, err = GoogleAI(ctx, p, cfg.LLMTimeout)
	default:
		client, err = OpenAICompatible(p, cfg.LLMTimeout)
	}
	if err != nil {
		return nil, p, fmt.Errorf("failed to init %s client: %w", p.Name, err)
	}
	return client, p, nil
}
