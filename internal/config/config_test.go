package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profescore/review-extractor/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10, cfg.MinMessageLen)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, []string{"gemini-2.5-flash-lite", "gemini-2.5-flash"}, cfg.GeminiModels)
	assert.Equal(t, "General", cfg.GeneralSubjectName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE", "25")
	t.Setenv("GEMINI_MODELS", "tier-a,tier-b,tier-c")
	t.Setenv("APP_ENV", "prod")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, []string{"tier-a", "tier-b", "tier-c"}, cfg.GeminiModels)
	assert.True(t, cfg.IsProd())
	assert.False(t, cfg.IsDev())
}

func TestGeminiAPIKeys_NumberedPrecedence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "single")
	t.Setenv("GEMINI_API_KEY_1", "k1")
	t.Setenv("GEMINI_API_KEY_3", "k3")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k3"}, cfg.GeminiAPIKeys())
}

func TestGeminiAPIKeys_SingularFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "single")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"single"}, cfg.GeminiAPIKeys())
}

func TestGeminiAPIKeys_Empty(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.GeminiAPIKeys())
}

func TestGetBackoffConfig_TestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := config.Load()
	require.NoError(t, err)
	malformed, service := cfg.GetBackoffConfig()
	assert.Less(t, malformed, 10*time.Millisecond)
	assert.Less(t, service, 10*time.Millisecond)
}

func TestAdminEnabled(t *testing.T) {
	cfg := config.Config{}
	assert.False(t, cfg.AdminEnabled())
	cfg.AdminUsername = "admin"
	assert.False(t, cfg.AdminEnabled())
	cfg.AdminPasswordHash = "argon2id$3$65536$2$salt$hash"
	assert.True(t, cfg.AdminEnabled())
}
