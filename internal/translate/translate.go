// Package translate turns registry free text (purpose clauses, unusual
// status codes) into English through a chat model.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Fmazzesi/zefixtools/internal/llm"
)

var (
	// ErrEmptyTranslation is returned when the model answers with nothing.
	ErrEmptyTranslation = errors.New("translate: model returned an empty translation")
	// ErrBackendUnavailable is returned by Unavailable for every text.
	ErrBackendUnavailable = errors.New("translate: backend unavailable")
)

const systemPrompt = `You translate short texts from the Swiss commercial register into %s.
The input may be German, French, Italian or Romansh. Reply with the translation only:
no quotes, no notes, no explanation. Keep company names, numbers and legal references unchanged.`

// LLMTranslator implements Translate on top of any llm.LLMProvider.
type LLMTranslator struct {
	provider llm.LLMProvider
	language string
	opts     llm.ChatOptions
}

// Option configures the translator.
type Option func(*LLMTranslator)

// WithTargetLanguage sets the output language (default "English").
func WithTargetLanguage(lang string) Option {
	return func(t *LLMTranslator) {
		if lang != "" {
			t.language = lang
		}
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(t *LLMTranslator) { t.opts.Model = model }
}

// New wraps provider.
func New(provider llm.LLMProvider, opts ...Option) *LLMTranslator {
	t := &LLMTranslator{
		provider: provider,
		language: "English",
		opts:     llm.ChatOptions{Temperature: 0.1, MaxTokens: 1024},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate returns text in the target language.
func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	opts := t.opts
	resp, err := t.provider.Chat(ctx, []llm.Message{
		llm.SystemMessage(fmt.Sprintf(systemPrompt, t.language)),
		llm.UserMessage(text),
	}, &opts)
	if err != nil {
		return "", fmt.Errorf("translate via %s: %w", t.provider.Name(), err)
	}
	out := cleanOutput(resp.Content)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}

// Unavailable stands in for a backend that is configured but could not be
// set up. Every text fails with Cause, so callers flag the field instead of
// leaving it in the source language unnoticed.
type Unavailable struct {
	Cause error
}

// Translate always fails for non-blank text.
func (u Unavailable) Translate(_ context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if u.Cause == nil {
		return "", ErrBackendUnavailable
	}
	return "", fmt.Errorf("%w: %w", ErrBackendUnavailable, u.Cause)
}

// cleanOutput drops wrapping quotes some models add despite the prompt.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"«", "»"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}
