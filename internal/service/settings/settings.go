package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgivc/autodocs/internal/adapter/llmadapter"
	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/config"
	"github.com/jgivc/autodocs/internal/entity"
)

type SettingsRepository interface {
	Get(ctx context.Context) (entity.Settings, error)
	Save(ctx context.Context, s entity.Settings) error
	Clear(ctx context.Context) error
}

type ClientFactory func(cfg llmadapter.Config, log *slog.Logger) (llmadapter.Client, error)

type settingsService struct {
	repo      SettingsRepository
	cfg       *config.LLMConfig
	newClient ClientFactory
	log       *slog.Logger
}

func NewSettingsService(repo SettingsRepository, cfg *config.LLMConfig, log *slog.Logger) *settingsService {
	return &settingsService{
		repo:      repo,
		cfg:       cfg,
		newClient: llmadapter.New,
		log:       log.With(slog.String("service", "SettingsService")),
	}
}

// Get returns the effective settings: stored values over the configured ones.
func (s *settingsService) Get(ctx context.Context) (entity.Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("cannot get settings: %w", err)
	}

	return Merge(s.cfg, stored), nil
}

func (s *settingsService) Save(ctx context.Context, settings entity.Settings) error {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.Model = strings.TrimSpace(settings.Model)
	settings.Provider = strings.ToLower(strings.TrimSpace(settings.Provider))

	switch settings.Provider {
	case "", entity.ProviderOpenAI, entity.ProviderAnthropic:
	default:
		return fmt.Errorf("%w: %q", common.ErrUnsupportedProvider, settings.Provider)
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		s.log.Error("Cannot save settings", slog.Any("error", err))

		return fmt.Errorf("cannot save settings: %w", err)
	}

	return nil
}

func (s *settingsService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		s.log.Error("Cannot clear settings", slog.Any("error", err))

		return fmt.Errorf("cannot clear settings: %w", err)
	}

	return nil
}

// Client returns a model client for the effective settings.
func (s *settingsService) Client(ctx context.Context) (llmadapter.Client, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	return s.newClient(ClientConfig(s.cfg, settings), s.log)
}

// Validate checks the effective API key against the provider.
func (s *settingsService) Validate(ctx context.Context) error {
	client, err := s.Client(ctx)
	if err != nil {
		return err
	}

	if err := client.Validate(ctx); err != nil {
		s.log.Warn("API key validation failed", slog.Any("error", err))

		return err
	}

	return nil
}

// Merge overlays non-empty stored settings on the configured ones. The
// provider falls back to openai.
func Merge(cfg *config.LLMConfig, stored entity.Settings) entity.Settings {
	s := entity.Settings{
		APIKey:   cfg.APIKey,
		Provider: cfg.Provider,
		Model:    cfg.Model,
	}

	if stored.APIKey != "" {
		s.APIKey = stored.APIKey
	}

	if stored.Provider != "" {
		if stored.Provider != s.Provider && stored.Model == "" {
			s.Model = ""
		}
		s.Provider = stored.Provider
	}

	if stored.Model != "" {
		s.Model = stored.Model
	}

	if s.Provider == "" {
		s.Provider = entity.ProviderOpenAI
	}

	return s
}

// ClientConfig builds the model client configuration for the settings.
func ClientConfig(cfg *config.LLMConfig, s entity.Settings) llmadapter.Config {
	baseURL := cfg.OpenAIURL
	if s.Provider == entity.ProviderAnthropic {
		baseURL = cfg.AnthropicURL
	}

	return llmadapter.Config{
		Provider:         s.Provider,
		APIKey:           s.APIKey,
		Model:            s.Model,
		BaseURL:          baseURL,
		AnthropicVersion: cfg.AnthropicVersion,
		Timeout:          cfg.Timeout,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
	}
}

type configClientProvider struct {
	cfg *config.LLMConfig
	log *slog.Logger
}

// NewConfigClientProvider returns a client provider that only uses the
// configuration, for tools running without a settings store.
func NewConfigClientProvider(cfg *config.LLMConfig, log *slog.Logger) *configClientProvider {
	return &configClientProvider{cfg: cfg, log: log}
}

func (p *configClientProvider) Client(_ context.Context) (llmadapter.Client, error) {
	return llmadapter.New(ClientConfig(p.cfg, Merge(p.cfg, entity.Settings{})), p.log)
}
