// Package llm defines the model-client collaborator used by the stage agents.
// Concrete HTTP adapters live in the anthropic and openai subpackages.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client invokes a generative model with a single user prompt. Invoke reports
// transport and service failures as *ProviderError.
type Client interface {
	Name() string
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
}

// InvokeRequest is a single-turn model request. Metadata carries the case id
// and stage name; adapters forward the case id as the provider's user tag.
type InvokeRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Metadata     map[string]string
}

type InvokeResponse struct {
	Text       string // concatenated text blocks of the reply
	Model      string
	Usage      Usage
	Latency    time.Duration
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Config is shared by the HTTP adapters. Timeout bounds one attempt; retry
// n waits n*RetryDelay before it starts.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Headers    map[string]string
}

func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Headers:    map[string]string{},
	}
}

// ProviderError is a failed model call. Code is the provider's error type
// when the body carried one, otherwise one of MARSHAL_ERROR, HTTP_ERROR,
// CANCELLED, RESPONSE_TOO_LARGE, UNKNOWN_ERROR, UNMARSHAL_ERROR or EMPTY_RESPONSE.
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable reports whether err wraps a retryable *ProviderError
func IsRetryable(err error) bool {
	var provErr *ProviderError
	return errors.As(err, &provErr) && provErr.Retryable
}

// Wait sleeps attempt*delay, returning early with the context's error when it
// is cancelled. Attempt 0 only checks the context.
func Wait(ctx context.Context, delay time.Duration, attempt int) error {
	if attempt <= 0 || delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
