package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/autodocs/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeySettings = "settings" // HASH. field: value

	FieldAPIKey   = "autodocs_api_key"
	FieldProvider = "autodocs_provider"
	FieldModel    = "autodocs_model"
)

type settingsRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewSettingsRepository(cl *redis.Client, log *slog.Logger) *settingsRepository {
	return &settingsRepository{
		cl:  cl,
		log: log.With(slog.String("item", "SettingsRepository")),
	}
}

// Get returns the stored settings. Fields never saved are empty.
func (r *settingsRepository) Get(ctx context.Context) (entity.Settings, error) {
	fields, err := r.cl.HGetAll(ctx, KeySettings).Result()
	if err != nil {
		return entity.Settings{}, fmt.Errorf("cannot get settings: %w", err)
	}

	s := entity.Settings{
		APIKey:   fields[FieldAPIKey],
		Provider: fields[FieldProvider],
		Model:    fields[FieldModel],
	}

	return s, nil
}

// Save writes every field; empty values remove the field.
func (r *settingsRepository) Save(ctx context.Context, s entity.Settings) error {
	pipe := r.cl.TxPipeline()
	for field, value := range map[string]string{
		FieldAPIKey:   s.APIKey,
		FieldProvider: s.Provider,
		FieldModel:    s.Model,
	} {
		if value == "" {
			pipe.HDel(ctx, KeySettings, field)
		} else {
			pipe.HSet(ctx, KeySettings, field, value)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save settings: %w", err)
	}

	r.log.Info("Settings saved", slog.String("provider", s.Provider), slog.String("model", s.Model),
		slog.Bool("has_key", s.APIKey != ""))

	return nil
}

func (r *settingsRepository) Clear(ctx context.Context) error {
	if err := r.cl.Del(ctx, KeySettings).Err(); err != nil {
		return fmt.Errorf("cannot clear settings: %w", err)
	}

	return nil
}
