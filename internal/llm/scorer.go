// Package llm implements the AI-assisted relevance judge: prompt
// construction, tolerant response parsing, rate limiting, and the fallback
// to the rule-based judge when the AI service misbehaves.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/judge"
	"github.com/coinsight/coinsight/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultBatchSize is the number of listings grouped into one batch prompt.
const DefaultBatchSize = 10

// Outcome is the tagged result of judging one listing. The AI judge is
// best-effort: when it fails, the analysis comes from the rule-based judge
// instead and Degraded records why. An Outcome always carries a usable
// analysis.
type Outcome struct {
	Analysis model.ConfidenceAnalysis
	Reason   string
	Degraded bool
}

// Scorer drives the AI judge. All outbound calls share one rate limiter, so
// call concurrency to the provider is bounded by the inter-call spacing no
// matter how many workers are scoring.
type Scorer struct {
	client    Client
	limiter   *rateLimiter
	logger    *slog.Logger
	retryOpts common.RetryOptions
	batchSize int
}

// NewScorer creates a scorer backed by the configured provider.
func NewScorer(cfg Config, logger *slog.Logger) (*Scorer, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return NewScorerWithClient(client, cfg, logger), nil
}

// NewScorerWithClient creates a scorer around an existing client. Used by
// tests to inject mocks.
func NewScorerWithClient(client Client, cfg Config, logger *slog.Logger) *Scorer {
	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Scorer{
		client:    client,
		limiter:   newRateLimiter(cfg.CallSpacing),
		logger:    logger,
		retryOpts: retryOpts,
		batchSize: batchSize,
	}
}

// BatchSize returns the configured chunk size for batch scoring.
func (s *Scorer) BatchSize() int {
	return s.batchSize
}

// ScoreSingle asks the AI judge to rate one listing. It returns an error on
// any unrecoverable failure after retries; callers that must not fail use
// JudgeSingle instead.
func (s *Scorer) ScoreSingle(ctx context.Context, title string, price *decimal.Decimal, query string) (model.ConfidenceAnalysis, error) {
	prompt := buildSinglePrompt(title, price, query)

	var analysis model.ConfidenceAnalysis
	err := common.WithRetry(ctx, func() error {
		// Spacing is observed before every outbound call, retries included.
		if err := s.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		raw, err := s.client.Complete(ctx, prompt)
		if err != nil {
			s.logger.Warn("AI scoring attempt failed",
				"error", err,
				"title", title)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		analysis, err = parseSingleResponse(raw)
		if err != nil {
			s.logger.Warn("invalid AI response",
				"error", err,
				"title", title)
			return &common.RetryableError{Err: err, Retryable: true}
		}
		return nil
	}, s.retryOpts)
	if err != nil {
		return model.ConfidenceAnalysis{}, fmt.Errorf("AI scoring failed: %w", err)
	}

	return analysis, nil
}

// JudgeSingle rates one listing and never fails: any AI failure degrades to
// the rule-based judge, which is the contract of last resort.
func (s *Scorer) JudgeSingle(ctx context.Context, title string, price *decimal.Decimal, query string) Outcome {
	analysis, err := s.ScoreSingle(ctx, title, price, query)
	if err != nil {
		s.logger.Info("falling back to rule-based scoring",
			"title", title,
			"reason", err)
		return Outcome{
			Analysis: judge.Score(title, price, query),
			Degraded: true,
			Reason:   err.Error(),
		}
	}
	return Outcome{Analysis: analysis}
}

// ScoreChunk asks the AI judge to rate a chunk of listings in one call.
// Returned analyses are keyed by position within the chunk; an entry may be
// missing when the judge skipped or mangled it. A chunk-level error means
// the whole call failed and the caller should degrade to single-listing
// scoring for this chunk only.
func (s *Scorer) ScoreChunk(ctx context.Context, listings []model.Listing, query string) (map[int]model.ConfidenceAnalysis, error) {
	if len(listings) == 0 {
		return map[int]model.ConfidenceAnalysis{}, nil
	}

	prompt := buildBatchPrompt(listings, query)

	var analyses map[int]model.ConfidenceAnalysis
	err := common.WithRetry(ctx, func() error {
		if err := s.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		raw, err := s.client.Complete(ctx, prompt)
		if err != nil {
			s.logger.Warn("AI batch scoring attempt failed",
				"error", err,
				"chunk_size", len(listings))
			return &common.RetryableError{Err: err, Retryable: true}
		}

		analyses, err = parseBatchResponse(raw, len(listings))
		if err != nil {
			s.logger.Warn("invalid AI batch response",
				"error", err,
				"chunk_size", len(listings))
			return &common.RetryableError{Err: err, Retryable: true}
		}
		return nil
	}, s.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("AI batch scoring failed: %w", err)
	}

	s.logger.Debug("AI batch scored",
		"chunk_size", len(listings),
		"entries", len(analyses))

	return analyses, nil
}

func buildSinglePrompt(title string, price *decimal.Decimal, query string) string {
	return fmt.Sprintf(`You are an expert coin collector and marketplace listing analyzer. Your task is to determine how well a listing matches a search query.

SEARCH QUERY: %q
LISTING TITLE: %q
PRICE: %s

Analyze the listing and provide:
1. A confidence score from 0-100 (where 100 = perfect match, 0 = completely wrong)
2. Brief reasoning for the score
3. Key factors that influenced your decision

Consider:
- Does it match the year specified in the search query?
- Does it match the coin type?
- Does it match any specified grade (MS69, MS70, etc.)?
- Is it the actual coin or just accessories/boxes?
- Is it the right condition/type?
- Are there any red flags (wrong coin, damaged, etc.)?

Respond with strict JSON only, in this format:
{
    "confidence_score": 85,
    "reasoning": "Strong match - correct year, coin type, and grade",
    "key_factors": ["year matches", "coin type matches", "grade specified"],
    "red_flags": [],
    "match_quality": "excellent"
}`, query, title, formatPrice(price))
}

func buildBatchPrompt(listings []model.Listing, query string) string {
	var sb strings.Builder
	for i, l := range listings {
		fmt.Fprintf(&sb, "[%d] TITLE: %q PRICE: %s\n", i, l.Title, formatPrice(l.Price))
	}

	return fmt.Sprintf(`You are an expert coin collector and marketplace listing analyzer. Rate how well EACH of the following listings matches the search query. Match the year, coin type, grade, and condition implied by the query against each title; flag accessory-only or wrong-item listings.

SEARCH QUERY: %q

LISTINGS:
%s
For every listing, produce a confidence score from 0-100 with brief reasoning. Reference each listing by its bracketed index.

Respond with strict JSON only, in this format:
{
    "results": [
        {
            "index": 0,
            "confidence_score": 85,
            "reasoning": "Strong match - correct year, coin type, and grade",
            "key_factors": ["year matches"],
            "red_flags": [],
            "match_quality": "excellent"
        }
    ]
}`, query, sb.String())
}

func formatPrice(price *decimal.Decimal) string {
	if price == nil {
		return "N/A"
	}
	return price.StringFixed(2)
}
