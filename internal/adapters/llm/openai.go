// Package llm provides the OpenAI-compatible completion adapter.
// Clean Architecture: Adapter implementing ports.CompletionService.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/hzyuan/campusqa-go/internal/domain/ports"
)

// OpenAIAdapter implements ports.CompletionService against any
// OpenAI-compatible /chat/completions endpoint.
type OpenAIAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenAIAdapter creates a new completion adapter.
func NewOpenAIAdapter(baseURL, apiKey string) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = "https://api.gptsapi.net/v1"
	}
	return &OpenAIAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// chatCompletionRequest is the chat completions API request.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the chat completions API response.
type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the message sequence and returns the assistant text.
// Failures come back as *ports.EndpointError: 401/403 as auth, 429 as rate
// limit, transport failures (including context expiry) as connectivity, and
// everything else as other. A single attempt per call, no retries.
func (a *OpenAIAdapter) Complete(ctx context.Context, messages []entities.ChatMessage, opts ports.CompletionOptions) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       opts.Model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages:    make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		reqBody.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ports.EndpointError{Kind: ports.EndpointOther, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", &ports.EndpointError{Kind: ports.EndpointOther, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &ports.EndpointError{Kind: ports.EndpointConnectivity, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &ports.EndpointError{Kind: ports.EndpointAuth, Err: fmt.Errorf("endpoint returned status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &ports.EndpointError{Kind: ports.EndpointRateLimit, Err: fmt.Errorf("endpoint returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", &ports.EndpointError{Kind: ports.EndpointOther, Err: fmt.Errorf("endpoint returned status %d", resp.StatusCode)}
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", &ports.EndpointError{Kind: ports.EndpointOther, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(completion.Choices) == 0 {
		// The composer treats empty text as a fallback trigger, not a failure.
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
