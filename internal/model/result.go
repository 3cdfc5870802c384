package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisResult is the outcome of scoring one batch of listings against a
// query. Listings holds only the survivors, ranked by confidence.
type AnalysisResult struct {
	Query             string    `json:"search_query"`
	TotalAnalyzed     int       `json:"total_listings_analyzed"`
	AboveThreshold    int       `json:"listings_above_threshold"`
	HighConfidence    int       `json:"high_confidence_listings"`
	AverageConfidence float64   `json:"average_confidence"`
	MinConfidence     int       `json:"min_confidence"`
	MaxConfidence     int       `json:"max_confidence"`
	Listings          []Listing `json:"scored_listings"`
	Timestamp         time.Time `json:"analysis_timestamp"`
}

// PricingStatistics holds confidence-weighted price aggregates over the
// surviving listings that carry a parseable price. A nil *PricingStatistics
// means "no pricing data", never "price of zero".
type PricingStatistics struct {
	WeightedAverage decimal.Decimal `json:"weighted_average"`
	Median          decimal.Decimal `json:"median_price"`
	P25             decimal.Decimal `json:"p25_price"`
	P75             decimal.Decimal `json:"p75_price"`
	Min             decimal.Decimal `json:"min_price"`
	Max             decimal.Decimal `json:"max_price"`
	Range           decimal.Decimal `json:"price_range"`
	SampleSize      int             `json:"total_weighted_sales"`
}

// Assessment is a qualitative rating with its human-readable justification.
type Assessment struct {
	Rating string `json:"assessment"`
	Reason string `json:"reason"`
}

// Recommendations summarizes the analysis into qualitative labels and a
// prioritized list of next steps.
type Recommendations struct {
	DataQuality    Assessment       `json:"data_quality"`
	Volatility     *Assessment      `json:"pricing_insights,omitempty"`
	SuggestedPrice *decimal.Decimal `json:"suggested_price,omitempty"`
	NextSteps      []string         `json:"next_steps"`
}

// CompositeResult is the full pipeline output for one request: scored
// listings, weighted pricing, and recommendations. This is the unit stored in
// the result cache and in the analysis history.
type CompositeResult struct {
	Request         SearchRequest      `json:"request"`
	Analysis        AnalysisResult     `json:"confidence_analysis"`
	Pricing         *PricingStatistics `json:"pricing_analysis,omitempty"`
	Recommendations Recommendations    `json:"recommendations"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// QueryOutcome is one entry of a batch analysis: either a composite result or
// the error that prevented it. Absent result with nil error means the query
// returned no listings at all.
type QueryOutcome struct {
	Query  string           `json:"search_query"`
	Result *CompositeResult `json:"result,omitempty"`
	Err    string           `json:"error,omitempty"`
}

// BatchResult aggregates per-query outcomes for a batch analysis run.
type BatchResult struct {
	TotalQueries      int            `json:"total_queries"`
	SucceededQueries  int            `json:"successful_queries"`
	FailedQueries     int            `json:"failed_queries"`
	Outcomes          []QueryOutcome `json:"results"`
	BatchTimestamp    time.Time      `json:"batch_timestamp"`
	ProcessingSeconds float64        `json:"processing_seconds"`
}
