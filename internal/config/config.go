package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	EnvListen   = "AUTODOCS_LISTEN"
	EnvRedisURL = "AUTODOCS_REDIS_URL"
	EnvAPIKey   = "AUTODOCS_API_KEY"
	EnvProvider = "AUTODOCS_PROVIDER"
	EnvModel    = "AUTODOCS_MODEL"
	EnvLogLevel = "AUTODOCS_LOG_LEVEL"

	defaultListen           = ":8080"
	defaultURL              = "http://localhost:8080"
	defaultRedisURL         = "redis://localhost:6379/0"
	defaultProvider         = "openai"
	defaultOpenAIURL        = "https://api.openai.com/v1"
	defaultAnthropicURL     = "https://api.anthropic.com/v1"
	defaultAnthropicVersion = "2023-06-01"
	defaultLLMTimeout       = 2 * time.Minute
	defaultTemperature      = 0.3
	defaultMaxTokens        = 4000
	defaultArtifactTTL      = 30 * time.Minute
	defaultDocumentTTL      = 24 * time.Hour
	defaultMaxUploadSize    = 5 << 20
	defaultWorkDir          = "workflows"
	defaultOutDir           = "docs"
	defaultWorkers          = 4
	defaultMaxFiles         = 100
)

type LLMConfig struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"api_key"`
	OpenAIURL        string        `yaml:"openai_url"`
	AnthropicURL     string        `yaml:"anthropic_url"`
	AnthropicVersion string        `yaml:"anthropic_version"`
	Timeout          time.Duration `yaml:"timeout"`
	Temperature      float64       `yaml:"temperature"`
	MaxTokens        int           `yaml:"max_tokens"`
}

type ArtifactsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	DocumentTTL   time.Duration `yaml:"document_ttl"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
	BundleExtras  bool          `yaml:"bundle_extras"`
	PageTemplate  string        `yaml:"page_template"`
}

type BatchConfig struct {
	WorkDir  string `yaml:"work_dir"`
	OutDir   string `yaml:"out_dir"`
	Workers  int    `yaml:"workers"`
	MaxFiles int    `yaml:"max_files"`
}

type Config struct {
	URL       string          `yaml:"url"`
	Listen    string          `yaml:"listen"`
	LogLevel  string          `yaml:"log_level"`
	RedisURL  string          `yaml:"redis_url"`
	LLM       LLMConfig       `yaml:"llm"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Batch     BatchConfig     `yaml:"batch"`
}

// MustLoad reads .env (if any) and the config file from disk. It panics on
// any error.
func MustLoad(path string) *Config {
	_ = godotenv.Load()

	cfg, err := Load(afero.NewOsFs(), path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional is Load for command line tools. A missing file gives the
// defaults with environment overrides applied.
func LoadOptional(fs afero.Fs, path string) (*Config, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat config file %s: %w", path, err)
	}

	if exists {
		return Load(fs, path)
	}

	cfg := &Config{}
	cfg.applyEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		EnvListen:   &c.Listen,
		EnvRedisURL: &c.RedisURL,
		EnvAPIKey:   &c.LLM.APIKey,
		EnvProvider: &c.LLM.Provider,
		EnvModel:    &c.LLM.Model,
		EnvLogLevel: &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

func (c *Config) SetDefaults() {
	setDefault(&c.Listen, defaultListen)
	setDefault(&c.URL, defaultURL)
	setDefault(&c.LogLevel, LogLevelInfo)
	setDefault(&c.RedisURL, defaultRedisURL)
	c.URL = strings.TrimRight(c.URL, "/")
	c.LogLevel = strings.ToLower(c.LogLevel)

	setDefault(&c.LLM.Provider, defaultProvider)
	setDefault(&c.LLM.OpenAIURL, defaultOpenAIURL)
	setDefault(&c.LLM.AnthropicURL, defaultAnthropicURL)
	setDefault(&c.LLM.AnthropicVersion, defaultAnthropicVersion)
	setDefault(&c.LLM.Timeout, defaultLLMTimeout)
	setDefault(&c.LLM.Temperature, defaultTemperature)
	setDefault(&c.LLM.MaxTokens, defaultMaxTokens)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)

	setDefault(&c.Artifacts.TTL, defaultArtifactTTL)
	setDefault(&c.Artifacts.DocumentTTL, defaultDocumentTTL)
	setDefault(&c.Artifacts.MaxUploadSize, defaultMaxUploadSize)

	setDefault(&c.Batch.WorkDir, defaultWorkDir)
	setDefault(&c.Batch.OutDir, defaultOutDir)
	setDefault(&c.Batch.Workers, defaultWorkers)
	setDefault(&c.Batch.MaxFiles, defaultMaxFiles)
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be positive, got %d", c.Batch.Workers)
	}

	if c.Artifacts.MaxUploadSize < 1 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Artifacts.MaxUploadSize)
	}

	return nil
}

func setDefault[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}
