package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate collects every problem into a single error.
func (c Config) Validate() error {
	var errs []string

	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be mysql, postgres or sqlite, got %q", c.DBDriver))
	}

	switch c.AIProvider {
	case "pinecone":
		if c.PineconeAPIKey == "" {
			errs = append(errs, "PINECONE_API_KEY is required when AI_PROVIDER=pinecone")
		}
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			errs = append(errs, "OPENROUTER_API_KEY is required when AI_PROVIDER=openrouter")
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Sprintf("AI_PROVIDER must be pinecone, openrouter or ollama, got %q", c.AIProvider))
	}

	switch c.AuditMode {
	case AuditDirect, AuditQueue:
	default:
		errs = append(errs, fmt.Sprintf("AUDIT_MODE must be direct or queue, got %q", c.AuditMode))
	}

	if c.ChatRateLimit < 0 {
		errs = append(errs, "CHAT_RATE_LIMIT must not be negative")
	}
	if c.ChatRateWindow <= 0 {
		errs = append(errs, "CHAT_RATE_WINDOW_SEC must be positive")
	}
	if c.ContextProducts <= 0 || c.ContextOrders <= 0 || c.ContextLogs <= 0 {
		errs = append(errs, "CONTEXT_*_LIMIT values must be positive")
	}
	if c.FingerprintLength <= 0 {
		errs = append(errs, "FINGERPRINT_LENGTH must be positive")
	}
	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 50 {
		errs = append(errs, fmt.Sprintf("WORKER_CONCURRENCY must be 1-50, got %d", c.WorkerConcurrency))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	if c.JWTSecret == "dev-secret-change-me" {
		slog.Warn("JWT_SECRET is the development default")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
