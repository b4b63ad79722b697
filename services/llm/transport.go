package llm

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

// maxResponseBytes caps how much of a provider answer is read
const maxResponseBytes = 4 << 20

// Transport posts JSON requests to a provider API. Transport failures and
// 5xx answers are retried up to Config.MaxRetries times with linear backoff.
type Transport struct {
	provider string
	config   Config
	client   *http.Client
	maxBody  int64
}

// NewTransport creates a Transport for provider. config.BaseURL must already
// carry the provider's default.
func NewTransport(provider string, config Config) *Transport {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Transport{
		provider: provider,
		config:   config,
		client:   &http.Client{Timeout: config.Timeout},
		maxBody:  maxResponseBytes,
	}
}

// PostJSON sends payload to path and returns the body of a 200 answer. Other
// answers come back as a *ProviderError built by ErrorFromResponse.
func (t *Transport) PostJSON(ctx context.Context, path string, payload interface{}, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(t.provider, "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	var lastErr error
	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if err := Wait(ctx, t.config.RetryDelay, attempt); err != nil {
			return nil, NewProviderError(t.provider, "CANCELLED", "Request cancelled", 0, false, err)
		}

		status, respBody, err := t.post(ctx, path, body, headers)
		var tooLarge *ProviderError
		switch {
		case errors.As(err, &tooLarge):
			return nil, tooLarge
		case err != nil:
			lastErr = err
			if ctx.Err() != nil {
				return nil, NewProviderError(t.provider, "CANCELLED", "Request cancelled", 0, false, err)
			}
		case status >= http.StatusInternalServerError:
			lastErr = ErrorFromResponse(t.provider, status, respBody)
		case status != http.StatusOK:
			return nil, ErrorFromResponse(t.provider, status, respBody)
		default:
			return respBody, nil
		}
	}

	var provErr *ProviderError
	if errors.As(lastErr, &provErr) {
		return nil, provErr
	}
	return nil, NewProviderError(t.provider, "HTTP_ERROR", "HTTP request failed", 0, true, lastErr)
}

func (t *Transport) post(ctx context.Context, path string, body []byte, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if int64(len(respBody)) > t.maxBody {
		return resp.StatusCode, nil, NewProviderError(t.provider, "RESPONSE_TOO_LARGE",
			fmt.Sprintf("response exceeds %d bytes", t.maxBody), resp.StatusCode, false, nil)
	}
	return resp.StatusCode, respBody, nil
}

// apiErrorBody is the error envelope shared by the Anthropic and OpenAI APIs
type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorFromResponse converts a non-2xx answer into a ProviderError. 429 and
// 5xx answers are retryable.
func ErrorFromResponse(provider string, status int, body []byte) *ProviderError {
	retryable := status >= http.StatusInternalServerError || status == http.StatusTooManyRequests

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return NewProviderError(provider, "UNKNOWN_ERROR", strings.TrimSpace(string(body)), status, retryable, err)
	}
	return NewProviderError(provider, apiErr.Error.Type, apiErr.Error.Message, status, retryable,
		errors.New(apiErr.Error.Message))
}
