package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight/internal/model"
)

func statsWithRange(rangeStr, avg string) *model.PricingStatistics {
	return &model.PricingStatistics{
		WeightedAverage: decimal.RequireFromString(avg),
		Range:           decimal.RequireFromString(rangeStr),
	}
}

func TestRecommendDataQualityBands(t *testing.T) {
	tests := []struct {
		highConfidence int
		rating         string
		reason         string
	}{
		{7, "Excellent", "Found 7 high-confidence listings"},
		{5, "Excellent", "Found 5 high-confidence listings"},
		{4, "Good", "Found 4 high-confidence listings"},
		{3, "Good", "Found 3 high-confidence listings"},
		{2, "Fair", "Only 2 high-confidence listings found"},
		{1, "Fair", "Only 1 high-confidence listings found"},
		{0, "Poor", "No high-confidence listings found"},
	}
	for _, tt := range tests {
		recs := Recommend(model.AnalysisResult{HighConfidence: tt.highConfidence}, nil)
		assert.Equal(t, tt.rating, recs.DataQuality.Rating, "count %d", tt.highConfidence)
		assert.Equal(t, tt.reason, recs.DataQuality.Reason, "count %d", tt.highConfidence)
	}
}

func TestRecommendVolatilityBands(t *testing.T) {
	tests := []struct {
		priceRange string
		rating     string
		reason     string
	}{
		{"4.99", "Low", "Price range is only $4.99"},
		{"5.00", "Moderate", "Price range is $5.00"},
		{"14.99", "Moderate", "Price range is $14.99"},
		{"15.00", "High", "Price range is $15.00 - consider filtering further"},
		{"80.00", "High", "Price range is $80.00 - consider filtering further"},
	}
	for _, tt := range tests {
		recs := Recommend(model.AnalysisResult{}, statsWithRange(tt.priceRange, "50.00"))
		require.NotNil(t, recs.Volatility, "range %s", tt.priceRange)
		assert.Equal(t, tt.rating, recs.Volatility.Rating, "range %s", tt.priceRange)
		assert.Equal(t, tt.reason, recs.Volatility.Reason, "range %s", tt.priceRange)
	}
}

func TestRecommendSuggestedPrice(t *testing.T) {
	recs := Recommend(model.AnalysisResult{}, statsWithRange("3.00", "46.67"))
	require.NotNil(t, recs.SuggestedPrice)
	assert.Equal(t, "46.67", recs.SuggestedPrice.StringFixed(2))

	recs = Recommend(model.AnalysisResult{}, nil)
	assert.Nil(t, recs.SuggestedPrice)
	assert.Nil(t, recs.Volatility)
}

func TestRecommendNextStepsOrder(t *testing.T) {
	// Everything triggers: low average, few high-confidence, wide range.
	recs := Recommend(model.AnalysisResult{
		HighConfidence:    1,
		AverageConfidence: 55,
	}, statsWithRange("40.00", "50.00"))

	assert.Equal(t, []string{
		"Consider refining search terms for better matches",
		"Expand search to include more results or different time periods",
		"High price volatility - consider analyzing by condition or seller",
		"Use confidence scores to weight your pricing decisions",
		"Monitor prices over time for trend analysis",
	}, recs.NextSteps)
}

func TestRecommendStandingSuggestionsAlwaysPresent(t *testing.T) {
	recs := Recommend(model.AnalysisResult{
		HighConfidence:    6,
		AverageConfidence: 92,
	}, statsWithRange("2.00", "45.00"))

	assert.Equal(t, []string{
		"Use confidence scores to weight your pricing decisions",
		"Monitor prices over time for trend analysis",
	}, recs.NextSteps)
}
