package llmadapter

import (
	"context"
	"net/http"
)

type OpenAIClient struct {
	baseClient
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)

	return h
}

func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	req := openAIRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var resp openAIResponse
	if err := c.do(ctx, http.MethodPost, "/chat/completions", req, c.header(), &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return nonEmpty("")
	}

	return nonEmpty(resp.Choices[0].Message.Content)
}

// Validate lists a single model to check the key.
func (c *OpenAIClient) Validate(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/models?limit=1", nil, c.header(), nil)
}
