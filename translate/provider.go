package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderOpenAI       = "openai"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// MaxSegments is the largest number of texts sent in one provider call.
const MaxSegments = 128

// Request is one batch of texts to translate.
type Request struct {
	Texts      []string
	SourceLang string
	TargetLang string
}

// Response carries one translation per request text, in order.
type Response struct {
	Translations []string
}

// Provider is a machine translation service.
type Provider interface {
	Name() string
	// MaxSegments is the batch limit of a single Translate call.
	MaxSegments() int
	Translate(ctx context.Context, req Request) (Response, error)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrorCode classifies provider failures.
type ErrorCode string

const (
	CodeAuth           ErrorCode = "auth"
	CodeConnectivity   ErrorCode = "connectivity"
	CodeQuota          ErrorCode = "quota"
	CodeInvalidRequest ErrorCode = "invalid-request"
	CodeService        ErrorCode = "service"
)

// ProviderError is a failure reported by or while reaching a provider.
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ErrorCodeOf returns the code of a ProviderError in err's chain, or "".
func ErrorCodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// codeForStatus maps an HTTP status to an error code.
func codeForStatus(status int) ErrorCode {
	switch {
	case status == 401 || status == 403:
		return CodeAuth
	case status == 429:
		return CodeQuota
	case status >= 500:
		return CodeService
	case status >= 400:
		return CodeInvalidRequest
	}
	return CodeService
}

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// ProviderConfig holds the settings of a translation service.
type ProviderConfig struct {
	// ID is the provider identifier (google, openai, groq, ...).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL of OpenAI compatible services.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Timeout bounds a single provider call.
	Timeout time.Duration
	// MaxRetries is the number of retries on 429 and 5xx responses.
	MaxRetries int
	// RetryWait is the initial backoff between retries.
	RetryWait time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google Cloud Translation",
			Timeout: 60 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 120 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
	}
}

// ResolveProvider merges user settings over the defaults of the provider
// named id.
func ResolveProvider(id, apiKey, baseURL, model string) (ProviderConfig, error) {
	cfg, ok := DefaultProviders()[strings.ToLower(id)]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown translation provider %q", id)
	}
	cfg.APIKey = apiKey
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model != "" {
		cfg.Model = model
	}
	if cfg.ID != ProviderGoogle && cfg.BaseURL == "" {
		return ProviderConfig{}, fmt.Errorf("provider %s needs a providerUrl", cfg.ID)
	}
	return cfg, nil
}

func (c ProviderConfig) effectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 60 * time.Second
}

func (c ProviderConfig) effectiveMaxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 3
}

func (c ProviderConfig) effectiveRetryWait() time.Duration {
	if c.RetryWait > 0 {
		return c.RetryWait
	}
	return 2 * time.Second
}

// NewProvider creates the client for cfg.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	if cfg.ID == ProviderGoogle {
		return NewGoogle(ctx, cfg)
	}
	return NewOpenAI(cfg), nil
}

// ---------------------------------------------------------------------------
// Language codes
// ---------------------------------------------------------------------------

// BaseLanguage strips region and script from a language code
// ("de-CH" -> "de").
func BaseLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		lang, _, _ = strings.Cut(strings.ReplaceAll(lang, "_", "-"), "-")
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}

// LanguageName returns the English name of a language code, or the code
// itself if it is unknown.
func LanguageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return lang
}
