// Package ai talks to a chat-completion language model that can return
// structured JSON.
package ai

import (
	"context"
	"encoding/json"
)

// ModelConfig configures a model client.
type ModelConfig struct {
	APIKey      string
	Endpoint    string
	ModelName   string
	MaxTokens   int
	Temperature float64
}

// ModelResponse is a structured generation result.
type ModelResponse struct {
	// Content is the JSON document produced by the model.
	Content json.RawMessage
	Model   string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StructuredModel generates a JSON document matching schema from a system
// and user prompt.
type StructuredModel interface {
	Name() string
	GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (*ModelResponse, error)
}
