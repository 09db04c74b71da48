package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViperWithDefaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Healing.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.Healing.QueryTimeout)
	assert.Equal(t, 168, cfg.Healing.CacheTTLHours)
	assert.Equal(t, 168*time.Hour, cfg.Healing.CacheTTL())
	assert.Equal(t, 1800, cfg.Healing.MaxCandidates)
	assert.InDelta(t, 3.5, cfg.Healing.SimilarityThreshold, 1e-9)
	assert.Equal(t, []string{"cache", "direct", "text", "semantic"}, cfg.Healing.Strategies)
	assert.Equal(t, "file", cfg.Healing.Store.Backend)
	assert.Equal(t, 25, cfg.Relevance.MaxItems)
	assert.InDelta(t, 0.6, cfg.Relevance.MinScore, 1e-9)
	assert.Equal(t, 2, cfg.Orchestrator.MaxTabs)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("overrides are honored", func(t *testing.T) {
		v := newViperWithDefaults()
		v.Set("healing.similarity_threshold", 5.0)
		v.Set("healing.strategies", []string{"direct", "semantic"})

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, cfg.Healing.SimilarityThreshold, 1e-9)
		assert.Equal(t, []string{"direct", "semantic"}, cfg.Healing.Strategies)
	})

	t.Run("unknown strategy is rejected", func(t *testing.T) {
		v := newViperWithDefaults()
		v.Set("healing.strategies", []string{"direct", "telepathy"})

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telepathy")
	})

	t.Run("postgres backend requires a url", func(t *testing.T) {
		v := newViperWithDefaults()
		v.Set("healing.store.backend", "postgres")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
	})

	t.Run("zero max_candidates is rejected", func(t *testing.T) {
		v := newViperWithDefaults()
		v.Set("healing.max_candidates", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
	})

	t.Run("home directory expansion", func(t *testing.T) {
		v := newViperWithDefaults()
		v.Set("healing.cache_file", "~/lodestar/selectors.json")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.NotContains(t, cfg.Healing.CacheFile, "~")
	})

	t.Run("zero max_tabs is rejected", func(t *testing.T) {
		v := newViperWithDefaults()
		v.Set("orchestrator.max_tabs", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
	})
}
