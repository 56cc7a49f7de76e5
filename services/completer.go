package services

import (
	"context"
	"errors"
	"fmt"

	"chatbot/config"
	"chatbot/models"
)

// ErrEmptyCompletion is returned when a provider answers without content.
var ErrEmptyCompletion = errors.New("no content in completion response")

// Completer produces an assistant reply for a single user message.
type Completer interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// NewCompleter returns the provider selected by cfg.Provider.
func NewCompleter(cfg *config.ServerConfig, kb models.KnowledgeBase) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAI), nil
	case config.ProviderPerplexity:
		return NewPerplexityService(cfg.Perplexity), nil
	case config.ProviderOffline:
		return NewOfflineCompleter(kb), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
