package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-triage/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LimiterConfig caps concurrent evaluations in one batch run.
type LimiterConfig struct {
	// Limit is the maximum number of items processed at once (default 5).
	Limit int `json:"limit" yaml:"limit"`
}

// RetryConfig is the retry policy for oracle calls.
type RetryConfig struct {
	// MinDelay is the base of the exponential backoff window (default 15s).
	MinDelay time.Duration `json:"min_delay" yaml:"min_delay"`

	// MaxDelay caps the backoff window (default 300s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`

	// MaxAttempts is the total number of attempts, the first included (default 20).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

// FetchConfig holds settings for retrieving paper landing pages.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// TitleSelector is the CSS selector of the title element.
	TitleSelector string `json:"title_selector" yaml:"title_selector"`

	// AbstractSelector is the CSS selector of the abstract element.
	AbstractSelector string `json:"abstract_selector" yaml:"abstract_selector"`
}

// OracleProvider names an evaluation backend.
type OracleProvider string

const (
	ProviderOpenAI    OracleProvider = "openai"
	ProviderAnthropic OracleProvider = "anthropic"
	ProviderGemini    OracleProvider = "gemini"
)

// OracleConfig holds settings for the evaluation oracle.
type OracleConfig struct {
	// Provider selects the backend: openai, anthropic, or gemini.
	Provider OracleProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// Endpoint overrides the provider's default API URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout bounds a single oracle call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// CacheConfig configures the optional page cache.
type CacheConfig struct {
	// Path is the SQLite database file. Empty disables caching.
	Path string `json:"path" yaml:"path"`
}

// EvaluationConfig groups every setting of an evaluate run.
type EvaluationConfig struct {
	Limiter LimiterConfig `json:"limiter" yaml:"limiter"`
	Retry   RetryConfig   `json:"retry" yaml:"retry"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Oracle  OracleConfig  `json:"oracle" yaml:"oracle"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`

	// BatchTimeout bounds the whole run. Zero means no limit.
	BatchTimeout time.Duration `json:"batch_timeout" yaml:"batch_timeout"`
}
