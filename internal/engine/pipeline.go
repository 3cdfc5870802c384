package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/judge"
	"github.com/coinsight/coinsight/internal/model"
)

// DefaultBatchWorkers bounds how many queries of a batch analysis run
// concurrently. Each query is its own full pipeline pass.
const DefaultBatchWorkers = 4

// Searcher retrieves sold listings for a query. The eBay client satisfies
// this; tests substitute fixtures.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults, lookbackDays int) ([]model.Listing, error)
}

// Pipeline ties the stages together: retrieval, prefilter, scoring, weighted
// pricing, recommendations, and the result cache.
type Pipeline struct {
	searcher Searcher
	analyzer *Analyzer
	cache    *resultCache
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. ttl <= 0 selects the default cache TTL.
func NewPipeline(searcher Searcher, analyzer *Analyzer, ttl time.Duration, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		searcher: searcher,
		analyzer: analyzer,
		cache:    newResultCache(ttl),
		logger:   logger,
	}
}

// CompleteAnalysis runs the full pipeline for one request. A nil result with
// a nil error means the search returned no listings at all; a result whose
// analysis holds zero survivors means listings were found but none cleared
// the filters. Results are cached by the exact request tuple.
func (p *Pipeline) CompleteAnalysis(ctx context.Context, req model.SearchRequest) (*model.CompositeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if cached, ok := p.cache.get(req); ok {
		p.logger.Debug("cache hit", "query", req.Query)
		return &cached, nil
	}

	listings, err := p.searcher.Search(ctx, req.Query, req.MaxResults, req.LookbackDays)
	if err != nil {
		// Retrieval failure and zero matches look the same downstream.
		p.logger.Warn("listing search failed", "query", req.Query, "error", err)
		listings = nil
	}
	if len(listings) == 0 {
		p.logger.Info("no listings found", "query", req.Query)
		return nil, nil
	}

	filtered := judge.Prefilter(listings)
	if dropped := len(listings) - len(filtered); dropped > 0 {
		p.logger.Debug("prefilter dropped listings", "query", req.Query, "dropped", dropped)
	}

	analysis := p.analyzer.Analyze(ctx, filtered, req.Query, req.MinConfidence)
	stats := WeightedStats(analysis.Listings)
	result := model.CompositeResult{
		Request:         req,
		Analysis:        analysis,
		Pricing:         stats,
		Recommendations: Recommend(analysis, stats),
		GeneratedAt:     time.Now().UTC(),
	}

	p.cache.set(req, result)
	return &result, nil
}

// BatchAnalysis runs CompleteAnalysis for every query concurrently. Queries
// fail independently; outcomes keep the input order. A query that found no
// listings counts as failed.
func (p *Pipeline) BatchAnalysis(ctx context.Context, queries []string, maxResults, minConfidence, lookbackDays int) model.BatchResult {
	started := time.Now()
	outcomes := make([]model.QueryOutcome, len(queries))

	sem := make(chan struct{}, DefaultBatchWorkers)
	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := model.QueryOutcome{Query: query}
			result, err := p.CompleteAnalysis(ctx, model.SearchRequest{
				Query:         query,
				MaxResults:    maxResults,
				MinConfidence: minConfidence,
				LookbackDays:  lookbackDays,
			})
			switch {
			case err != nil:
				outcome.Err = err.Error()
			case result == nil:
				outcome.Err = common.ErrNoListings.Error()
			default:
				outcome.Result = result
			}
			outcomes[i] = outcome
		}(i, query)
	}
	wg.Wait()

	batch := model.BatchResult{
		TotalQueries:      len(queries),
		Outcomes:          outcomes,
		BatchTimestamp:    time.Now().UTC(),
		ProcessingSeconds: time.Since(started).Seconds(),
	}
	for _, o := range outcomes {
		if o.Result != nil {
			batch.SucceededQueries++
		} else {
			batch.FailedQueries++
		}
	}
	return batch
}

// CacheSize reports how many composite results are currently held. Expired
// entries still count until their next lookup.
func (p *Pipeline) CacheSize() int {
	return p.cache.len()
}
