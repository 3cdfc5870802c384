package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/config"
	"github.com/coinsight/coinsight/internal/ebay"
	"github.com/coinsight/coinsight/internal/engine"
	"github.com/coinsight/coinsight/internal/llm"
	"github.com/coinsight/coinsight/internal/storage"
)

// buildPipeline assembles the full analysis stack from configuration.
func buildPipeline(logger *slog.Logger) (*engine.Pipeline, error) {
	aiCfg, err := config.LoadAIConfig()
	if err != nil {
		return nil, common.NewUserError("AI judge is not configured; set GEMINI_API_KEY or ANTHROPIC_API_KEY", err)
	}
	scorer, err := llm.NewScorer(aiCfg, logger)
	if err != nil {
		return nil, err
	}

	token, err := config.LoadEbayToken()
	if err != nil {
		return nil, common.NewUserError("eBay search is not configured; set EBAY_ACCESS_TOKEN", err)
	}
	searcher, err := ebay.NewClient(token, logger)
	if err != nil {
		return nil, err
	}

	analyzer := engine.NewAnalyzer(scorer, viper.GetInt("engine.fallback_workers"), logger)
	ttl := viper.GetDuration("engine.cache_ttl")
	if ttl <= 0 {
		ttl = engine.DefaultCacheTTL
	}
	return engine.NewPipeline(searcher, analyzer, ttl, logger), nil
}

// openHistory opens the analysis history database, migrating as needed.
func openHistory(ctx context.Context) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(config.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
