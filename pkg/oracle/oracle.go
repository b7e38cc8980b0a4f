// Package oracle provides chat-completion callers for the LLM providers the
// system talks to: the classification oracle used by extraction and the
// reply oracle used by the chat flow. Callers are plain functions so tests
// can substitute them without network access.
package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Message is a single chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallFunc performs one chat completion and returns the model's text output.
// Transport and provider errors are returned as-is so callers can apply
// their own retry policy.
type CallFunc func(ctx context.Context, messages []Message) (string, error)

// Config selects and configures a provider-backed caller.
type Config struct {
	Provider string // "openai", "anthropic" or "ollama"
	Model    string // e.g. "gpt-4o-mini", "claude-haiku-4-5-20251001"
	APIKey   string // explicit API key (highest priority)
	BaseURL  string // override base URL

	// JSONMode requests JSON-shaped output from the provider. Used by the
	// classification oracle; left off for conversational replies.
	JSONMode bool

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// New creates a CallFunc for the configured provider.
// API key resolution: explicit config key, then environment variables
// (OPENAI_API_KEY / ANTHROPIC_API_KEY). Ollama needs no key.
func New(cfg Config) (CallFunc, error) {
	provider := strings.ToLower(cfg.Provider)

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = keyFromEnv(provider)
	}

	switch provider {
	case ProviderOpenAI, "":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return newOpenAICaller(apiKey, model, baseURL, cfg.JSONMode, cfg.MaxTokens), nil

	case ProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return newAnthropicCaller(apiKey, model, baseURL, cfg.JSONMode, cfg.MaxTokens), nil

	case ProviderOllama:
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return newOllamaCaller(model, baseURL, cfg.JSONMode), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func keyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI, "":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
