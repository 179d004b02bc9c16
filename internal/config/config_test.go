package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test?mode=memory")
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.DedupWindow)
	assert.Equal(t, "memory", cfg.DedupBackend)
	assert.Equal(t, "heuristic", cfg.RankingStrategy)
	assert.False(t, cfg.LLM.Enabled())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test?mode=memory")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.4"}, cfg.TrustedProxies)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_ProdRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plaiful")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test?mode=memory")
	t.Setenv("RANKING_STRATEGY", "magic")

	_, err := Load()
	assert.ErrorContains(t, err, "RANKING_STRATEGY")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test?mode=memory")
	t.Setenv("CACHE_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_TTL")
}

func TestFallbackCreatives(t *testing.T) {
	creatives, err := LoadFallbackCreatives()
	require.NoError(t, err)

	agent := creatives.For("Agent")
	assert.NotEmpty(t, agent.Name)
	assert.Nil(t, agent.ImageURL)

	banner := creatives.For("HorizontalTop")
	require.NotNil(t, banner.ImageURL)
	require.NotNil(t, banner.Width)
	require.NotNil(t, banner.Height)

	assert.Equal(t, agent, creatives.For("Unknown"))
}

func TestParseFallbackCreatives_RequiresAgent(t *testing.T) {
	_, err := ParseFallbackCreatives([]byte("HorizontalTop:\n  name: x\n"))
	assert.Error(t, err)
}
