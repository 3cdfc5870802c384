package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinsight/coinsight/internal/llm"
	"github.com/coinsight/coinsight/internal/model"
)

// DefaultFallbackWorkers bounds how many per-listing fallback judgements run
// concurrently when a batch call fails. The shared rate limiter still
// serializes the actual provider calls.
const DefaultFallbackWorkers = 10

// Judge scores listings against a query. *llm.Scorer satisfies this; tests
// substitute their own.
type Judge interface {
	ScoreChunk(ctx context.Context, listings []model.Listing, query string) (map[int]model.ConfidenceAnalysis, error)
	JudgeSingle(ctx context.Context, title string, price *decimal.Decimal, query string) llm.Outcome
	BatchSize() int
}

// Analyzer runs the scoring stage: batch the listings through the judge,
// degrade to per-listing judgements when a batch fails, then threshold and
// rank the survivors.
type Analyzer struct {
	judge   Judge
	workers int
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer. workers <= 0 selects the default fallback
// pool width.
func NewAnalyzer(judge Judge, workers int, logger *slog.Logger) *Analyzer {
	if workers <= 0 {
		workers = DefaultFallbackWorkers
	}
	return &Analyzer{
		judge:   judge,
		workers: workers,
		logger:  logger,
	}
}

// Analyze scores every valid listing, keeps those at or above minConfidence,
// and returns them ranked by score descending. Listings without a usable
// title are dropped before scoring, so the output never exceeds the input.
func (a *Analyzer) Analyze(ctx context.Context, listings []model.Listing, query string, minConfidence int) model.AnalysisResult {
	valid := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Valid() {
			valid = append(valid, l)
		}
	}

	result := model.AnalysisResult{
		Query:         query,
		TotalAnalyzed: len(valid),
		Timestamp:     time.Now().UTC(),
		Listings:      []model.Listing{},
	}
	if len(valid) == 0 {
		return result
	}

	a.logger.Info("scoring listings",
		"query", query,
		"listings", len(valid),
		"batch_size", a.judge.BatchSize(),
	)

	scored := make([]model.Listing, 0, len(valid))
	size := a.judge.BatchSize()
	for start := 0; start < len(valid); start += size {
		end := start + size
		if end > len(valid) {
			end = len(valid)
		}
		scored = append(scored, a.scoreChunk(ctx, valid[start:end], query)...)
	}

	kept := make([]model.Listing, 0, len(scored))
	var sum int
	for _, l := range scored {
		if l.Confidence.Score < minConfidence {
			continue
		}
		kept = append(kept, l)
		sum += l.Confidence.Score
	}
	// Stable sort keeps the marketplace ordering for equal scores.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence.Score > kept[j].Confidence.Score
	})

	result.Listings = kept
	result.AboveThreshold = len(kept)
	if len(kept) > 0 {
		result.AverageConfidence = round2(float64(sum) / float64(len(kept)))
		result.MaxConfidence = kept[0].Confidence.Score
		result.MinConfidence = kept[len(kept)-1].Confidence.Score
		for _, l := range kept {
			if l.Confidence.HighConfidence() {
				result.HighConfidence++
			}
		}
	}
	return result
}

// scoreChunk tries one batch call, then fills in whatever the batch did not
// cover with concurrent per-listing judgements. Listings the judge cannot
// reach at all (context cancelled) are dropped.
func (a *Analyzer) scoreChunk(ctx context.Context, chunk []model.Listing, query string) []model.Listing {
	analyses, err := a.judge.ScoreChunk(ctx, chunk, query)
	if err != nil {
		a.logger.Warn("batch scoring failed, falling back to single calls",
			"error", err,
			"listings", len(chunk),
		)
		analyses = nil
	}

	missing := make([]int, 0, len(chunk))
	for i := range chunk {
		if _, ok := analyses[i]; !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		filled := a.judgeConcurrently(ctx, chunk, missing, query)
		if analyses == nil {
			analyses = filled
		} else {
			for i, c := range filled {
				analyses[i] = c
			}
		}
	}

	out := make([]model.Listing, 0, len(chunk))
	for i, l := range chunk {
		c, ok := analyses[i]
		if !ok {
			continue
		}
		conf := c
		l.Confidence = &conf
		out = append(out, l)
	}
	return out
}

func (a *Analyzer) judgeConcurrently(ctx context.Context, chunk []model.Listing, indices []int, query string) map[int]model.ConfidenceAnalysis {
	type judgement struct {
		index   int
		outcome llm.Outcome
	}

	sem := make(chan struct{}, a.workers)
	results := make(chan judgement, len(indices))
	var wg sync.WaitGroup
	for _, idx := range indices {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int, l model.Listing) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			results <- judgement{index: idx, outcome: a.judge.JudgeSingle(ctx, l.Title, l.Price, query)}
		}(idx, chunk[idx])
	}
	wg.Wait()
	close(results)

	out := make(map[int]model.ConfidenceAnalysis, len(indices))
	for j := range results {
		if j.outcome.Degraded {
			a.logger.Debug("listing scored by rule-based judge",
				"index", j.index,
				"reason", j.outcome.Reason,
			)
		}
		out[j.index] = j.outcome.Analysis
	}
	return out
}

func round2(v float64) float64 {
	d := decimal.NewFromFloat(v).Round(2)
	f, _ := d.Float64()
	return f
}
