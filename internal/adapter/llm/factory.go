package llm

import (
	"fmt"
	"os"
	"strings"

	"resumerag/config"
	"resumerag/internal/domain"
	"resumerag/internal/port"
)

// Provider names accepted in generation.provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// New builds the configured generation backend. It returns a nil Generator
// when generation is turned off.
func New(cfg config.GenerationConfig) (port.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOllama:
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case ProviderOpenAI:
		keyEnv := cfg.APIKeyEnv
		if keyEnv == "" {
			keyEnv = "OPENAI_API_KEY"
		}
		gen, err := NewOpenAIGenerator(os.Getenv(keyEnv), cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("openai backend (%s): %w", keyEnv, err)
		}
		return gen, nil
	case ProviderNone, "disabled", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}
