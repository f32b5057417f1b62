package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const structureTool = "respond_with_structure"

const responseFormat = `Return the JSON object directly without any formatting or additional text. The JSON object must match the following schema and include all required properties:`

// LLM adapts a langchaingo model. Models whose name contains "gpt-" are driven
// in JSON mode with the schema in the system prompt; all others are forced to
// answer through a single tool call whose parameters are the schema.
type LLM struct {
	Model     llms.Model
	ModelName string
	Timeout   time.Duration
}

// NewLLM creates an LLM client. A zero timeout disables the per-call deadline.
func NewLLM(model llms.Model, modelName string, timeout time.Duration) *LLM {
	return &LLM{Model: model, ModelName: modelName, Timeout: timeout}
}

func (l *LLM) jsonMode() bool {
	return strings.Contains(l.ModelName, "gpt-")
}

func (l *LLM) Complete(ctx context.Context, req Request) (string, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	system := req.System
	var opts []llms.CallOption
	if l.jsonMode() {
		system = system + "\n\n# Response Format:\n" + responseFormat + "\n" + string(schemaJSON)
		opts = append(opts, llms.WithJSONMode())
	} else {
		var params map[string]any
		if err := json.Unmarshal(schemaJSON, &params); err != nil {
			return "", fmt.Errorf("decode schema: %w", err)
		}
		opts = append(opts,
			llms.WithTools([]llms.Tool{{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        structureTool,
					Description: "Respond with the requested structured data",
					Parameters:  params,
				},
			}}),
			llms.WithToolChoice(llms.ToolChoice{
				Type:     "function",
				Function: &llms.FunctionReference{Name: structureTool},
			}),
		)
	}

	resp, err := l.Model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}

	return choiceText(resp.Choices[0]), nil
}

// choiceText prefers structured tool output over plain content.
func choiceText(choice *llms.ContentChoice) string {
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall != nil && tc.FunctionCall.Arguments != "" {
			return tc.FunctionCall.Arguments
		}
	}
	if choice.FuncCall != nil && choice.FuncCall.Arguments != "" {
		return choice.FuncCall.Arguments
	}
	return choice.Content
}
