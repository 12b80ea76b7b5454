// Package genai wraps the Google Gemini API behind the narrow text-generation
// surface the rest of the server needs: system instruction in, prior turns
// in, one reply out. Everything else about the model is treated as opaque.
package genai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel matches the model the product shipped with.
const DefaultModel = "gemini-2.0-flash"

// Turn is one prior message in a conversation. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// Client talks to the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Client for the given API key and model. An empty model name
// selects DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{client: c, model: model}, nil
}

// GenerateText sends the prior turns plus a new user message to the model and
// returns the reply text. systemInstruction may be empty.
func (c *Client) GenerateText(ctx context.Context, systemInstruction string, history []Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == "model" || t.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	var config *genai.GenerateContentConfig
	if systemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}
