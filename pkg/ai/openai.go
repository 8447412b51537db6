package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	openAIDefaultBaseURL   = "https://api.openai.com/v1"
	openAIDefaultModel     = "gpt-4o-mini"
	moonshotDefaultBaseURL = "https://api.moonshot.ai/v1"
	moonshotDefaultModel   = "kimi-k2.5"
)

// Generator is the text-generation contract of the summary pipeline. The
// system prompt guides the report style, user carries the raw log digest.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Close() error
}

// OpenAIClient talks to any chat-completions endpoint following the OpenAI
// wire format. That covers OpenAI itself, Moonshot, and the self-hosted
// gateways people point the plugin at.
type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client against the OpenAI API.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewCompatClient(openAIDefaultBaseURL, apiKey, openAIDefaultModel)
}

// NewMoonshotClient creates a client against the Moonshot (Kimi) API, which
// is OpenAI-compatible.
func NewMoonshotClient(apiKey string) *OpenAIClient {
	return NewCompatClient(moonshotDefaultBaseURL, apiKey, moonshotDefaultModel)
}

// NewCompatClient creates a client for an arbitrary OpenAI-compatible
// endpoint. baseURL may or may not end with /chat/completions; both
// spellings appear in user configurations.
func NewCompatClient(baseURL, apiKey, model string) *OpenAIClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/chat/completions")
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIClient{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Generate sends the prompt pair to the chat completions endpoint and
// returns the generated text.
func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	bodyBytes, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	var result chatResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("chat API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

// Close is a no-op for the HTTP-based client.
func (c *OpenAIClient) Close() error {
	return nil
}
