package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	t.Setenv("ZEFIX_TRANSLATION_PROVIDER", "")
	t.Setenv("ZEFIX_TRAVERSAL_CONCURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Registry.BaseURL != "https://www.zefix.ch/ZefixREST/api/v1" {
		t.Errorf("Registry.BaseURL: got %q", cfg.Registry.BaseURL)
	}
	if cfg.Registry.TimeoutSec != 30 {
		t.Errorf("Registry.TimeoutSec: got %d, want 30", cfg.Registry.TimeoutSec)
	}
	if cfg.Translation.Provider != "openai" {
		t.Errorf("Translation.Provider: got %q, want %q", cfg.Translation.Provider, "openai")
	}
	if cfg.Translation.TargetLanguage != "English" {
		t.Errorf("Translation.TargetLanguage: got %q", cfg.Translation.TargetLanguage)
	}
	if cfg.Traversal.Concurrency != 4 {
		t.Errorf("Traversal.Concurrency: got %d, want 4", cfg.Traversal.Concurrency)
	}
	if cfg.Traversal.MaxDepth != 0 {
		t.Errorf("Traversal.MaxDepth: got %d, want 0", cfg.Traversal.MaxDepth)
	}
	if cfg.Output.Dir != "." {
		t.Errorf("Output.Dir: got %q", cfg.Output.Dir)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ZEFIX_TRAVERSAL_CONCURRENCY", "9")
	t.Setenv("ZEFIX_TRANSLATION_PROVIDER", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Traversal.Concurrency != 9 {
		t.Errorf("Traversal.Concurrency: got %d, want 9", cfg.Traversal.Concurrency)
	}
	if cfg.Translation.Enabled() {
		t.Error("translation should be disabled by provider=none")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
registry:
  base_url: "http://localhost:9999/api/v1"
  timeout_sec: 5
translation:
  provider: "ollama"
  model: "qwen2.5:7b"
traversal:
  concurrency: 2
  max_depth: 6
output:
  dir: "/tmp/zefix"
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Registry.BaseURL != "http://localhost:9999/api/v1" {
		t.Errorf("Registry.BaseURL: got %q", cfg.Registry.BaseURL)
	}
	if cfg.Registry.TimeoutSec != 5 {
		t.Errorf("Registry.TimeoutSec: got %d, want 5", cfg.Registry.TimeoutSec)
	}
	if cfg.Translation.Provider != "ollama" || cfg.Translation.Model != "qwen2.5:7b" {
		t.Errorf("Translation: got %+v", cfg.Translation)
	}
	if cfg.Traversal.Concurrency != 2 || cfg.Traversal.MaxDepth != 6 {
		t.Errorf("Traversal: got %+v", cfg.Traversal)
	}
	if cfg.Output.Dir != "/tmp/zefix" {
		t.Errorf("Output.Dir: got %q", cfg.Output.Dir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	// unset keys keep their defaults
	if cfg.Translation.OllamaURL != "http://localhost:11434" {
		t.Errorf("Translation.OllamaURL: got %q", cfg.Translation.OllamaURL)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"provider":    "translation:\n  provider: \"babelfish\"\n",
		"concurrency": "traversal:\n  concurrency: 0\n",
		"max_depth":   "traversal:\n  max_depth: -1\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), name+".yaml")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadFromFile(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

// ── .env ──

func TestLoadDotEnvPopulatesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ZEFIX_TEST_DOTENV=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ZEFIX_TEST_DOTENV") })

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("ZEFIX_TEST_DOTENV"); got != "from-dotenv" {
		t.Errorf("got %q, want from-dotenv", got)
	}
}

func TestLoadDotEnvMissingFileIsFine(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("ZEFIX_TRANSLATION_API_KEY", "sk-test-translation-key")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.Translation.APIKey != "sk-test-translation-key" {
		t.Errorf("APIKey: got %q", cfg.Translation.APIKey)
	}
}

func TestOverrideFromEnvFallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("ZEFIX_TRANSLATION_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai-fallback")

	cfg := &Config{Translation: TranslationConfig{Provider: "openai"}}
	overrideFromEnv(cfg)

	if cfg.Translation.APIKey != "sk-openai-fallback" {
		t.Errorf("APIKey: got %q", cfg.Translation.APIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	t.Setenv("ZEFIX_TRANSLATION_API_KEY", "")

	cfg := &Config{Translation: TranslationConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.Translation.APIKey != "from-config" {
		t.Errorf("APIKey should stay as 'from-config' when env is unset, got %q", cfg.Translation.APIKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / resolveKey ──

func TestCheckAPIKeysFromConfig(t *testing.T) {
	t.Setenv(EnvTranslationKey, "")
	t.Setenv(EnvOpenAIKey, "")

	cfg := &Config{Translation: TranslationConfig{Provider: "openai", APIKey: "sk-test-very-long-key-value"}}
	statuses := CheckAPIKeys(cfg)
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	s := statuses[0]
	if !s.IsSet || !s.Required || s.Source != KeySourceConfig || s.EnvVar != "" {
		t.Errorf("status: %+v", s)
	}
	if s.Masked != "sk-...lue" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "sk-...lue")
	}
}

func TestCheckAPIKeysOpenAIFallbackIsEnv(t *testing.T) {
	t.Setenv(EnvTranslationKey, "")
	t.Setenv(EnvOpenAIKey, "sk-from-openai-env-var")
	t.Setenv("ZEFIX_TRANSLATION_PROVIDER", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("translation:\n  provider: openai\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Translation.APIKey != "sk-from-openai-env-var" {
		t.Fatalf("fallback key not applied: %q", cfg.Translation.APIKey)
	}
	s := CheckAPIKeys(cfg)[0]
	if s.Source != KeySourceEnv || s.EnvVar != EnvOpenAIKey {
		t.Errorf("got source %q via %q, want env via %s", s.Source, s.EnvVar, EnvOpenAIKey)
	}
}

func TestCheckAPIKeysNotRequiredForOllama(t *testing.T) {
	t.Setenv(EnvTranslationKey, "")
	s := CheckAPIKeys(&Config{Translation: TranslationConfig{Provider: "ollama"}})[0]
	if s.IsSet || s.Required || s.Source != KeySourceNone {
		t.Errorf("ollama: %+v", s)
	}
}

func TestResolveKeySourceDetection(t *testing.T) {
	t.Setenv("TEST_PRIMARY", "")
	t.Setenv("TEST_FALLBACK", "")
	s := resolveKey("Test", "", "TEST_PRIMARY", "TEST_FALLBACK")
	if s.Source != KeySourceNone || s.IsSet {
		t.Errorf("empty value: got %+v", s)
	}

	s = resolveKey("Test", "config-value-long-enough", "TEST_PRIMARY", "TEST_FALLBACK")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}

	t.Setenv("TEST_FALLBACK", "env-value-long-enough")
	s = resolveKey("Test", "env-value-long-enough", "TEST_PRIMARY", "TEST_FALLBACK")
	if s.Source != KeySourceEnv || s.EnvVar != "TEST_FALLBACK" {
		t.Errorf("fallback value: got %+v", s)
	}

	t.Setenv("TEST_PRIMARY", "env-value-long-enough")
	s = resolveKey("Test", "env-value-long-enough", "TEST_PRIMARY", "TEST_FALLBACK")
	if s.EnvVar != "TEST_PRIMARY" {
		t.Errorf("primary should win, got %q", s.EnvVar)
	}
}
