package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"STORE_DSN", "VECTOR_ADDR", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY",
		"REDIS_ADDR", "EMAIL_ENABLED", "APP_URL",
	} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "./data/wap.db", cfg.Store.DSN)
	require.Equal(t, "localhost:6379", cfg.Cache.Addr)
	require.False(t, cfg.Email.Enabled)
	require.False(t, cfg.Embedding.Enabled())
	require.Equal(t, 1536, cfg.Vector.Dimension)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("STORE_DSN", "/tmp/custom.db")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "secret")
	t.Setenv("EMAIL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", cfg.Store.DSN)
	require.True(t, cfg.Embedding.Enabled())
	require.True(t, cfg.Email.Enabled)
}
