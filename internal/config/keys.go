package config

import "os"

// Environment variables the translation key is read from. The generic
// OpenAI variable is only consulted for the openai provider.
const (
	EnvTranslationKey = "ZEFIX_TRANSLATION_API_KEY"
	EnvOpenAIKey      = "OPENAI_API_KEY"
)

// KeySource tells where a resolved secret came from.
type KeySource string

const (
	KeySourceEnv    KeySource = "env"
	KeySourceConfig KeySource = "config"
	KeySourceNone   KeySource = "none"
)

// KeyStatus describes one secret for the status command. Secrets are never
// reported in full.
type KeyStatus struct {
	Name     string    `json:"name"`
	Source   KeySource `json:"source"`
	EnvVar   string    `json:"env_var,omitempty"`
	IsSet    bool      `json:"is_set"`
	Required bool      `json:"required"`
	Masked   string    `json:"masked,omitempty"`
}

// translationKeyVars returns the variables overrideFromEnv consults, in
// precedence order.
func translationKeyVars(provider string) []string {
	if provider == "openai" {
		return []string{EnvTranslationKey, EnvOpenAIKey}
	}
	return []string{EnvTranslationKey}
}

// CheckAPIKeys reports the translation key after config and environment
// have been merged.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	tr := cfg.Translation
	st := resolveKey("Translation API Key", tr.APIKey, translationKeyVars(tr.Provider)...)
	st.Required = tr.Provider == "openai"
	return []KeyStatus{st}
}

// resolveKey attributes value to the first variable in vars that holds it,
// falling back to the config file.
func resolveKey(name, value string, vars ...string) KeyStatus {
	st := KeyStatus{Name: name, Source: KeySourceNone}
	if value == "" {
		return st
	}
	st.IsSet = true
	st.Masked = maskKey(value)
	st.Source = KeySourceConfig
	for _, v := range vars {
		if os.Getenv(v) == value {
			st.Source = KeySourceEnv
			st.EnvVar = v
			break
		}
	}
	return st
}

// maskKey keeps the first and last three characters of keys longer than
// eight characters.
func maskKey(key string) string {
	r := []rune(key)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:3]) + "..." + string(r[len(r)-3:])
}
