package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/upb/triage-pipeline/services/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	providerName   = "openai"
)

// OpenAIAdapter implements llm.Client for the chat completions API
type OpenAIAdapter struct {
	config    llm.Config
	transport *llm.Transport
}

// NewOpenAIAdapter creates a new OpenAI adapter. BaseURL may point at any
// chat-completions compatible endpoint.
func NewOpenAIAdapter(config llm.Config) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	transport := llm.NewTransport(providerName, config)
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &OpenAIAdapter{config: config, transport: transport}
}

func (a *OpenAIAdapter) Name() string {
	return providerName
}

// Model returns the configured model identifier
func (a *OpenAIAdapter) Model() string {
	return a.config.Model
}

// Invoke performs a chat completion with a system and a user message
func (a *OpenAIAdapter) Invoke(ctx context.Context, req *llm.InvokeRequest) (*llm.InvokeResponse, error) {
	start := time.Now()

	body, err := a.transport.PostJSON(ctx, "/chat/completions", a.buildOpenAIRequest(req), map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var chatResp OpenAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, llm.NewProviderError(providerName, "UNMARSHAL_ERROR", "Failed to unmarshal response", http.StatusOK, false, err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, llm.NewProviderError(providerName, "EMPTY_RESPONSE", "Response contained no choices", http.StatusOK, false, nil)
	}

	choice := chatResp.Choices[0]
	return &llm.InvokeResponse{
		Text:  choice.Message.Content,
		Model: chatResp.Model,
		Usage: llm.Usage{
			InputTokens:  chatResp.Usage.PromptTokens,
			OutputTokens: chatResp.Usage.CompletionTokens,
		},
		Latency:    time.Since(start),
		StopReason: choice.FinishReason,
	}, nil
}

// buildOpenAIRequest converts the unified request to OpenAI format
func (a *OpenAIAdapter) buildOpenAIRequest(req *llm.InvokeRequest) *OpenAIChatRequest {
	openaiReq := &OpenAIChatRequest{
		Model:    a.config.Model,
		Messages: make([]OpenAIMessage, 0, 2),
	}

	if req.SystemPrompt != "" {
		openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{Role: "user", Content: req.Prompt})

	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		openaiReq.MaxTokens = &maxTokens
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		openaiReq.Temperature = &temp
	}
	if id, ok := req.Metadata["case_id"]; ok {
		openaiReq.User = &id
	}

	return openaiReq
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	User        *string         `json:"user,omitempty"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
