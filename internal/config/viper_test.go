package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfigDefaults(t *testing.T) {
	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "txlink.db", cfg.Store.Path)
	assert.Equal(t, 30, cfg.Matching.DateWindowDays)
	assert.Equal(t, "3.00", cfg.Matching.AmountTolerance)
	assert.Equal(t, 80.0, cfg.Matching.AutoLinkThreshold)
	assert.Equal(t, 70.0, cfg.Matching.SuggestThreshold)
	assert.Equal(t, "amazon", cfg.Merchant.Brand)
	assert.True(t, cfg.Amazon.AggregateOrders)
}

func TestInitializeConfigEnvOverrides(t *testing.T) {
	t.Setenv("TXLINK_LOG_LEVEL", "debug")
	t.Setenv("TXLINK_MATCHING_DATE_WINDOW_DAYS", "14")
	t.Setenv("TXLINK_STORE_PATH", "/tmp/other.db")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 14, cfg.Matching.DateWindowDays)
	assert.Equal(t, "/tmp/other.db", cfg.Store.Path)
}

func TestInitializeConfigRejectsBadValues(t *testing.T) {
	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("TXLINK_LOG_LEVEL", "noisy")
		_, err := InitializeConfig()
		assert.Error(t, err)
	})

	t.Run("bad tolerance", func(t *testing.T) {
		t.Setenv("TXLINK_MATCHING_AMOUNT_TOLERANCE", "lots")
		_, err := InitializeConfig()
		assert.Error(t, err)
	})

	t.Run("suggest above auto-link", func(t *testing.T) {
		t.Setenv("TXLINK_MATCHING_SUGGEST_THRESHOLD", "90")
		_, err := InitializeConfig()
		assert.Error(t, err)
	})

	t.Run("negative window", func(t *testing.T) {
		t.Setenv("TXLINK_MATCHING_DATE_WINDOW_DAYS", "-1")
		_, err := InitializeConfig()
		assert.Error(t, err)
	})
}

func TestMatchingConfigConversion(t *testing.T) {
	cfg, err := InitializeConfig()
	require.NoError(t, err)

	matching := cfg.MatchingConfig()
	assert.Equal(t, 30, matching.DateWindowDays)
	assert.Equal(t, "3", matching.AmountTolerance.String())
	assert.Equal(t, 80.0, matching.AutoLinkThreshold)
	assert.Equal(t, 70.0, matching.SuggestThreshold)
	assert.Equal(t, "amazon", matching.MerchantRules.Brand)
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	cfg, err := InitializeConfig()
	require.NoError(t, err)
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger := ConfigureLoggingFromConfig(cfg)
	assert.Equal(t, "debug", logger.GetLevel().String())
}
