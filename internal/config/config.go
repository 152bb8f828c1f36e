// Package config handles configuration loading for zefixtools.
// It supports YAML config files, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Registry    RegistryConfig    `mapstructure:"registry"    yaml:"registry"`
	Translation TranslationConfig `mapstructure:"translation" yaml:"translation"`
	Traversal   TraversalConfig   `mapstructure:"traversal"   yaml:"traversal"`
	Output      OutputConfig      `mapstructure:"output"      yaml:"output"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
}

// RegistryConfig holds the Zefix REST endpoint settings.
type RegistryConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"`
}

// TranslationConfig selects the backend used to translate status and purpose texts.
type TranslationConfig struct {
	Provider       string `mapstructure:"provider"        yaml:"provider"` // "openai", "ollama", "none"
	Model          string `mapstructure:"model"           yaml:"model"`
	APIKey         string `mapstructure:"api_key"         yaml:"api_key"`
	BaseURL        string `mapstructure:"base_url"        yaml:"base_url"` // OpenAI-compatible endpoint
	OllamaURL      string `mapstructure:"ollama_url"      yaml:"ollama_url"`
	TargetLanguage string `mapstructure:"target_language" yaml:"target_language"`
	TimeoutSec     int    `mapstructure:"timeout_sec"     yaml:"timeout_sec"`
}

// Enabled reports whether a translation backend is configured.
func (t TranslationConfig) Enabled() bool {
	return t.Provider != "" && t.Provider != "none"
}

// TraversalConfig bounds the takeover-chain expansion.
type TraversalConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"` // sibling fetches in flight
	MaxDepth    int `mapstructure:"max_depth"   yaml:"max_depth"`   // 0 = unlimited
}

// OutputConfig holds file output settings.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.zefix/config.yaml
//  3. /etc/zefix/config.yaml
//
// A .env file in the working directory is loaded into the environment first.
// Environment variables override config file values.
// Format: ZEFIX_<SECTION>_<KEY>, e.g. ZEFIX_TRANSLATION_API_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".zefix"))
	v.AddConfigPath("/etc/zefix")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no config file: defaults + env vars
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ZEFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.base_url", "https://www.zefix.ch/ZefixREST/api/v1")
	v.SetDefault("registry.timeout_sec", 30)
	v.SetDefault("registry.user_agent", "zefixtools/1.0 (github.com/Fmazzesi/zefixtools)")

	v.SetDefault("translation.provider", "openai")
	v.SetDefault("translation.model", "gpt-4o-mini")
	v.SetDefault("translation.base_url", "https://api.openai.com/v1")
	v.SetDefault("translation.ollama_url", "http://localhost:11434")
	v.SetDefault("translation.target_language", "English")
	v.SetDefault("translation.timeout_sec", 60)

	v.SetDefault("traversal.concurrency", 4)
	v.SetDefault("traversal.max_depth", 0)

	v.SetDefault("output.dir", ".")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Translation.Provider {
	case "openai", "ollama", "none", "":
	default:
		return fmt.Errorf("config: unknown translation provider %q", c.Translation.Provider)
	}
	if c.Traversal.Concurrency < 1 {
		return fmt.Errorf("config: traversal.concurrency must be >= 1, got %d", c.Traversal.Concurrency)
	}
	if c.Traversal.MaxDepth < 0 {
		return fmt.Errorf("config: traversal.max_depth must be >= 0, got %d", c.Traversal.MaxDepth)
	}
	if c.Registry.TimeoutSec <= 0 {
		return fmt.Errorf("config: registry.timeout_sec must be positive, got %d", c.Registry.TimeoutSec)
	}
	return nil
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvTranslationKey); key != "" {
		cfg.Translation.APIKey = key
	}
	if cfg.Translation.APIKey == "" && cfg.Translation.Provider == "openai" {
		cfg.Translation.APIKey = os.Getenv(EnvOpenAIKey)
	}
}

// loadDotEnv loads path into the process environment if it exists.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
