// Package llm calls an OpenAI-compatible chat-completions endpoint to score
// and rewrite prompts.
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
	"time"

	"github.com/codeWithMuze/Prompteon/internal/config"
)

var (
	ErrNotConfigured   = errors.New("llm api key not configured")
	ErrMalformedOutput = errors.New("llm returned no usable analysis")
)

// Forger produces an Analysis for a prompt.
type Forger interface {
	Forge(ctx context.Context, prompt string, mode Mode) (*Analysis, error)
	Model() string
}

type Client struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.AITimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiURL: cfg.LLMAPIURL,
		apiKey: cfg.LLMAPIKey,
		model:  cfg.LLMModel,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func userMessage(prompt string, mode Mode) string {
	return fmt.Sprintf("[Mode: %s]\nForge the following Prompt:\n%s", mode, prompt)
}

// Forge makes a single call; failures are returned to the caller unretried.
func (c *Client) Forge(ctx context.Context, prompt string, mode Mode) (*Analysis, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userMessage(prompt, mode)},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaFormat{
				Name:   "forged_prompt",
				Strict: true,
				Schema: analysisSchema,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read llm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm API returned %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(chat.Choices) == 0 {
		return nil, ErrMalformedOutput
	}

	return parseAnalysis(chat.Choices[0].Message.Content)
}

func parseAnalysis(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMalformedOutput
	}

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	a, ok := wire.toAnalysis()
	if !ok {
		return nil, fmt.Errorf("%w: missing required fields", ErrMalformedOutput)
	}
	return a, nil
}
