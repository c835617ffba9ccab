package llmadapter

import (
	"context"
	"net/http"
	"strings"
)

const validateMaxTokens = 1

type AnthropicClient struct {
	baseClient
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *AnthropicClient) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", c.cfg.APIKey)
	h.Set("anthropic-version", c.cfg.AnthropicVersion)

	return h
}

func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	req := anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	}

	var resp anthropicResponse
	if err := c.do(ctx, http.MethodPost, "/messages", req, c.header(), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, part := range resp.Content {
		if part.Type == "" || part.Type == "text" {
			b.WriteString(part.Text)
		}
	}

	return nonEmpty(b.String())
}

// Validate sends a one token message to check the key.
func (c *AnthropicClient) Validate(ctx context.Context) error {
	req := anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: validateMaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: "ping"}},
	}

	return c.do(ctx, http.MethodPost, "/messages", req, c.header(), nil)
}
