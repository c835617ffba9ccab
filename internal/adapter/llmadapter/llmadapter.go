// Package llmadapter talks to hosted language models.
package llmadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
)

const (
	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultAnthropicModel = "claude-3-opus-20240229"

	maxResponseSize         = 8 << 20
	defaultTimeout          = 2 * time.Minute
	defaultMaxTokens        = 4000
	defaultAnthropicVersion = "2023-06-01"
)

type Client interface {
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
	Validate(ctx context.Context) error
	Provider() string
	Model() string
}

type Config struct {
	Provider         string
	APIKey           string
	Model            string
	BaseURL          string
	AnthropicVersion string
	Timeout          time.Duration
	Temperature      float64
	MaxTokens        int
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.Code)
	}

	return fmt.Sprintf("AI request failed (%d): %s", e.Code, body)
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	if provider == entity.ProviderAnthropic {
		return DefaultAnthropicModel
	}

	return DefaultOpenAIModel
}

// New returns a client for cfg.Provider.
func New(cfg Config, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, common.ErrAPIKeyRequired
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	if cfg.AnthropicVersion == "" {
		cfg.AnthropicVersion = defaultAnthropicVersion
	}

	base := baseClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With(slog.String("item", "LLMClient"), slog.String("provider", cfg.Provider), slog.String("model", cfg.Model)),
	}
	base.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	switch cfg.Provider {
	case entity.ProviderOpenAI:
		return &OpenAIClient{baseClient: base}, nil
	case entity.ProviderAnthropic:
		return &AnthropicClient{baseClient: base}, nil
	}

	return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedProvider, cfg.Provider)
}

type baseClient struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func (c *baseClient) Provider() string {
	return c.cfg.Provider
}

func (c *baseClient) Model() string {
	return c.cfg.Model
}

// do sends the request and decodes a 2xx JSON body into out.
func (c *baseClient) do(ctx context.Context, method, path string, payload any, header http.Header, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("cannot marshal request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("cannot create request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("cannot read response: %w", err)
	}

	c.log.Debug("Model request", slog.String("method", method), slog.String("path", path),
		slog.Int("status", resp.StatusCode), slog.Duration("elapsed", time.Since(start)))

	if err := checkStatus(resp.StatusCode, data); err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cannot parse response: %w", err)
	}

	return nil
}

func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	err := &StatusError{Code: code, Body: string(body)}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("%w: %w", common.ErrInvalidAPIKey, err)
	}

	return err
}

func nonEmpty(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", common.ErrEmptyResponse
	}

	return strings.TrimSpace(content), nil
}

// IsStatusError reports whether err carries a model API status.
func IsStatusError(err error) bool {
	var se *StatusError

	return errors.As(err, &se)
}
