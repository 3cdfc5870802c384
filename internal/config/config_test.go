package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight/internal/common"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadAIConfigDefaults(t *testing.T) {
	resetConfig(t)
	viper.Set("ai.api_key", "test-key")

	cfg, err := LoadAIConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.CallSpacing)
}

func TestLoadAIConfigFromEnv(t *testing.T) {
	resetConfig(t)
	viper.Set("ai.provider", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := LoadAIConfig()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoadAIConfigMissingKey(t *testing.T) {
	resetConfig(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadAIConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLoadEbayToken(t *testing.T) {
	resetConfig(t)
	t.Setenv("EBAY_ACCESS_TOKEN", "")
	_, err := LoadEbayToken()
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	viper.Set("ebay.access_token", "viper-token")
	token, err := LoadEbayToken()
	require.NoError(t, err)
	assert.Equal(t, "viper-token", token)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))

	t.Setenv("COINSIGHT_TEST_DIR", "/tmp/coinsight")
	assert.Equal(t, "/tmp/coinsight/db", ExpandPath("$COINSIGHT_TEST_DIR/db"))
}
