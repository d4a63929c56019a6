package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIEndpoint  = "https://api.openai.com/v1"
	defaultOpenAIModel     = "gpt-4.1-nano"
	defaultOpenAIMaxTokens = 2048
	structuredFunctionName = "emit_structured_output"
	maxResponseBytes       = 1 << 20
)

// OpenAIModel is a chat-completions client that forces a single function
// call whose arguments carry the structured output.
type OpenAIModel struct {
	config ModelConfig
	client *http.Client
}

func NewOpenAIModel(config ModelConfig) (*OpenAIModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfiguration)
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultOpenAIEndpoint
	}
	if config.ModelName == "" {
		config.ModelName = defaultOpenAIModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultOpenAIMaxTokens
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	// Deadlines come from the caller's context.
	return &OpenAIModel{config: config, client: &http.Client{}}, nil
}

func (m *OpenAIModel) Name() string {
	return m.config.ModelName
}

type openAIMessage struct {
	Role         string              `json:"role"`
	Content      string              `json:"content,omitempty"`
	FunctionCall *openAIFunctionCall `json:"function_call,omitempty"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAIChatRequest struct {
	Model        string            `json:"model"`
	Messages     []openAIMessage   `json:"messages"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
	Temperature  float64           `json:"temperature"`
	Functions    []openAIFunction  `json:"functions"`
	FunctionCall map[string]string `json:"function_call"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateJSON sends system and user messages and returns the arguments of
// the forced function call. The JSON is checked for syntax only; callers
// validate its content.
func (m *OpenAIModel) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (*ModelResponse, error) {
	payload := openAIChatRequest{
		Model: m.config.ModelName,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   m.config.MaxTokens,
		Temperature: m.config.Temperature,
		Functions: []openAIFunction{{
			Name:        structuredFunctionName,
			Description: "Return the result as structured data matching the schema",
			Parameters:  schema,
		}},
		FunctionCall: map[string]string{"name": structuredFunctionName},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	status, respBody, err := m.post(ctx, m.config.Endpoint+"/chat/completions", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, respBody)
	}

	var resp openAIChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrAPICallFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrAPICallFailed)
	}
	fc := resp.Choices[0].Message.FunctionCall
	if fc == nil {
		return nil, fmt.Errorf("%w: model did not call the function", ErrInvalidJSON)
	}
	if !json.Valid([]byte(fc.Arguments)) {
		return nil, fmt.Errorf("%w: function arguments are not valid JSON", ErrInvalidJSON)
	}

	return &ModelResponse{
		Content: json.RawMessage(fc.Arguments),
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (m *OpenAIModel) post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request to %s: %w", url, err)
	}
	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, ErrContextDeadlineExceeded
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response body: %v", ErrAPICallFailed, err)
	}
	return resp.StatusCode, respBody, nil
}

func statusError(status int, body []byte) error {
	msg := fmt.Sprintf("status code %d", status)
	var errResp openAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = fmt.Sprintf("%s (status: %d)", errResp.Error.Message, status)
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimitExceeded, msg)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return fmt.Errorf("%w: %s", ErrModelUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", ErrAPICallFailed, msg)
	}
}
