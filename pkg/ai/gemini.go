package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-2.5-flash"

// GeminiClient wraps the official Gemini SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. The caller must Close it.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: geminiDefaultModel}, nil
}

// Generate sends the prompt pair to Gemini and returns the generated text.
func (c *GeminiClient) Generate(ctx context.Context, system, user string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("no text content returned")
	}
	return out, nil
}

// Close releases the underlying SDK client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
