package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/upb/triage-pipeline/services/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	defaultModel     = "claude-3-5-sonnet-20241022"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 2000
	providerName     = "anthropic"
)

// Adapter implements llm.Client for the Anthropic Messages API
type Adapter struct {
	config    llm.Config
	transport *llm.Transport
}

// NewAdapter creates a new Anthropic adapter
func NewAdapter(config llm.Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	transport := llm.NewTransport(providerName, config)
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Adapter{config: config, transport: transport}
}

func (a *Adapter) Name() string {
	return providerName
}

// Model returns the configured model identifier
func (a *Adapter) Model() string {
	return a.config.Model
}

// Invoke sends a single-turn Messages request
func (a *Adapter) Invoke(ctx context.Context, req *llm.InvokeRequest) (*llm.InvokeResponse, error) {
	start := time.Now()

	body, err := a.transport.PostJSON(ctx, "/messages", a.buildRequest(req), map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return nil, err
	}

	var msgResp MessagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, llm.NewProviderError(providerName, "UNMARSHAL_ERROR", "Failed to unmarshal response", http.StatusOK, false, err)
	}

	text := msgResp.Text()
	if text == "" {
		return nil, llm.NewProviderError(providerName, "EMPTY_RESPONSE", "Response contained no text content", http.StatusOK, false, nil)
	}

	return &llm.InvokeResponse{
		Text:  text,
		Model: msgResp.Model,
		Usage: llm.Usage{
			InputTokens:  msgResp.Usage.InputTokens,
			OutputTokens: msgResp.Usage.OutputTokens,
		},
		Latency:    time.Since(start),
		StopReason: msgResp.StopReason,
	}, nil
}

// buildRequest converts the unified request to the Messages format
func (a *Adapter) buildRequest(req *llm.InvokeRequest) *MessagesRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msgReq := &MessagesRequest{
		Model:     a.config.Model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages: []Message{
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		msgReq.Temperature = &temp
	}
	if id, ok := req.Metadata["case_id"]; ok {
		msgReq.Metadata = &RequestMetadata{UserID: id}
	}
	return msgReq
}

// Anthropic-specific request/response types

type MessagesRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Messages    []Message        `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	Metadata    *RequestMetadata `json:"metadata,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type RequestMetadata struct {
	UserID string `json:"user_id,omitempty"`
}

type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      MessagesUsage  `json:"usage"`
}

// Text concatenates the text blocks of the response
func (r *MessagesResponse) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type MessagesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
