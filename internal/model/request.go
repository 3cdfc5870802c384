package model

import "fmt"

// ProviderMaxResults is the per-page cap imposed by the search provider.
const ProviderMaxResults = 50

// SearchRequest describes one analysis request. It is immutable once issued
// and doubles as the result cache key, so it must stay a comparable value
// type.
type SearchRequest struct {
	Query         string `json:"search_query"`
	MaxResults    int    `json:"max_results"`
	MinConfidence int    `json:"min_confidence"`
	LookbackDays  int    `json:"lookback_days"`
}

// Validate checks the request against the provider and scoring contracts.
func (r SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("search query is required")
	}
	if r.MaxResults <= 0 || r.MaxResults > ProviderMaxResults {
		return fmt.Errorf("max results must be in 1..%d, got %d", ProviderMaxResults, r.MaxResults)
	}
	if r.MinConfidence < 0 || r.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be in 0..100, got %d", r.MinConfidence)
	}
	if r.LookbackDays < 0 {
		return fmt.Errorf("lookback days must not be negative, got %d", r.LookbackDays)
	}
	return nil
}
