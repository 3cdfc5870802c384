// Package config loads application configuration from Viper and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/llm"
)

// LoadAIConfig builds the AI judge configuration. Precedence:
// 1. Viper configuration (from config file or COINSIGHT_ env vars)
// 2. Direct environment variables (GEMINI_API_KEY, ANTHROPIC_API_KEY)
// 3. Default values
func LoadAIConfig() (llm.Config, error) {
	cfg := llm.Config{
		Provider:    "gemini",
		MaxRetries:  2,
		RetryDelay:  2 * time.Second,
		CallSpacing: time.Second,
		BatchSize:   10,
		Timeout:     60 * time.Second,
		Temperature: 0.1,
		MaxTokens:   2000,
	}

	if v := viper.GetString("ai.provider"); v != "" {
		cfg.Provider = v
	}
	if v := viper.GetString("ai.model"); v != "" {
		cfg.Model = v
	}
	if v := viper.GetString("ai.api_key"); v != "" {
		cfg.APIKey = v
	}
	if v := viper.GetInt("ai.batch_size"); v > 0 {
		cfg.BatchSize = v
	}
	if v := viper.GetInt("ai.max_retries"); v > 0 {
		cfg.MaxRetries = v
	}
	if v := viper.GetDuration("ai.call_spacing"); v > 0 {
		cfg.CallSpacing = v
	}
	if v := viper.GetDuration("ai.timeout"); v > 0 {
		cfg.Timeout = v
	}

	if cfg.APIKey == "" {
		switch strings.ToLower(cfg.Provider) {
		case "gemini":
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: no API key configured for AI provider %q", common.ErrMissingConfig, cfg.Provider)
	}
	return cfg, nil
}

// LoadEbayToken returns the OAuth application token for the Browse API.
func LoadEbayToken() (string, error) {
	token := viper.GetString("ebay.access_token")
	if token == "" {
		token = os.Getenv("EBAY_ACCESS_TOKEN")
	}
	if token == "" {
		return "", fmt.Errorf("%w: ebay access token not configured", common.ErrMissingConfig)
	}
	return token, nil
}

// DatabasePath returns the analysis history database location.
func DatabasePath() string {
	if v := viper.GetString("database.path"); v != "" {
		return ExpandPath(v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "coinsight.db"
	}
	return filepath.Join(home, ".local", "share", "coinsight", "coinsight.db")
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
