// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oracle asks a language model whether a paper is relevant to the
// user's company and department.
//
// Three backends are available: OpenAI chat completions (default), the
// Anthropic messages API, and Gemini through the genai SDK. A backend makes
// exactly one call per Evaluate; retrying is the caller's job.
package oracle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// DefaultTimeout bounds a single oracle call when the config leaves it unset.
const DefaultTimeout = 120 * time.Second

// Oracle returns a verdict for one paper.
type Oracle interface {
	Evaluate(ctx context.Context, ectx types.EvaluationContext, content types.PaperContent) (string, error)
}

// DefaultModel returns the model used when the config names none.
func DefaultModel(p types.OracleProvider) string {
	switch p {
	case types.ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case types.ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}

// APIKeyName is the secrets file and env var stem for a provider
// (e.g. "openai-api-key" / OPENAI_API_KEY).
func APIKeyName(p types.OracleProvider) string {
	return string(p) + "-api-key"
}

// New builds the backend named by cfg.Provider. An unknown provider or a
// missing API key is a config error.
func New(cfg types.OracleConfig) (Oracle, error) {
	provider := types.OracleProvider(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))
	switch provider {
	case "":
		provider = types.ProviderOpenAI
	case types.ProviderOpenAI, types.ProviderAnthropic, types.ProviderGemini:
	default:
		return nil, types.Configf("unknown oracle provider %q (want openai, anthropic, or gemini)", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, types.Configf("no API key for oracle provider %q (set %s in .secrets/ or the environment)", provider, APIKeyName(provider))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(provider)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch provider {
	case types.ProviderAnthropic:
		return NewAnthropic(cfg, client), nil
	case types.ProviderGemini:
		return NewGemini(context.Background(), cfg, client)
	default:
		return NewOpenAI(cfg, client), nil
	}
}
