// Package bootstrap builds the pieces the binaries share from a Config.
package bootstrap

import (
	"context"
	"strings"

	"github.com/1kken/SideKickCX/internal/assistant"
	"github.com/1kken/SideKickCX/internal/config"
)

// Providers registers every completion backend the config knows about.
func Providers(cfg config.Config) *assistant.Registry {
	reg := assistant.NewRegistry()

	reg.Register("pinecone", func(_ context.Context, model string) (assistant.Provider, error) {
		return assistant.NewPineconeProvider(cfg.PineconeBaseURL, cfg.PineconeAPIKey, cfg.PineconeAssistantID, orDefault(model, cfg.PineconeModel)), nil
	})
	reg.Register("openrouter", func(_ context.Context, model string) (assistant.Provider, error) {
		return assistant.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, orDefault(model, cfg.OpenRouterModel),
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	reg.Register("ollama", func(_ context.Context, model string) (assistant.Provider, error) {
		return assistant.NewOllamaProvider(cfg.OllamaBaseURL, orDefault(model, cfg.OllamaModel)), nil
	})
	return reg
}

// Provider returns the backend selected by AI_PROVIDER.
func Provider(ctx context.Context, cfg config.Config) (assistant.Provider, error) {
	return Providers(cfg).Get(ctx, cfg.AIProvider, "")
}

// Pinecone returns the raw assistant client for the proxy routes, or nil when
// no API key is configured.
func Pinecone(cfg config.Config) *assistant.PineconeProvider {
	if strings.TrimSpace(cfg.PineconeAPIKey) == "" {
		return nil
	}
	return assistant.NewPineconeProvider(cfg.PineconeBaseURL, cfg.PineconeAPIKey, cfg.PineconeAssistantID, cfg.PineconeModel)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
