package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "pk")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Contains(t, cfg.DBDSN, "tcp(127.0.0.1:3306)")
	assert.Equal(t, "pinecone", cfg.AIProvider)
	assert.Equal(t, "sidekickcx", cfg.PineconeAssistantID)
	assert.Equal(t, AuditDirect, cfg.AuditMode)
	assert.Equal(t, 60*time.Second, cfg.ChatRateWindow)
	assert.Equal(t, 5, cfg.ContextProducts)
	assert.Equal(t, 3, cfg.ContextOrders)
	assert.Equal(t, 5, cfg.ContextLogs)
	assert.Equal(t, 20, cfg.FingerprintLength)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=sqlite\nCHAT_RATE_LIMIT=3\nAI_PROVIDER=ollama\n"), 0o600))
	t.Setenv("CHAT_RATE_LIMIT", "7")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, strings.HasPrefix(cfg.DBDSN, "file:"))
	assert.Equal(t, 7, cfg.ChatRateLimit)
	assert.Equal(t, "ollama", cfg.AIProvider)
}

func TestLoad_BadTTL(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Config{
		DBDriver:          "oracle",
		AIProvider:        "pinecone",
		AuditMode:         "kafka",
		ChatRateWindow:    time.Minute,
		ContextProducts:   5,
		ContextOrders:     3,
		ContextLogs:       5,
		FingerprintLength: 20,
		WorkerConcurrency: 99,
		LogFormat:         "text",
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"DB_DRIVER", "PINECONE_API_KEY", "AUDIT_MODE", "WORKER_CONCURRENCY"} {
		assert.Contains(t, err.Error(), want)
	}
}
