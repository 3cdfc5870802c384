package engine

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight/internal/model"
)

func pricedListing(price string, score int) model.Listing {
	p := decimal.RequireFromString(price)
	return model.Listing{
		Title:      fmt.Sprintf("listing at %s", price),
		Price:      &p,
		Confidence: &model.ConfidenceAnalysis{Score: score},
	}
}

func TestWeightedStatsEmpty(t *testing.T) {
	assert.Nil(t, WeightedStats(nil))
	assert.Nil(t, WeightedStats([]model.Listing{}))

	// Listings without a parseable price carry no pricing data.
	unpriced := []model.Listing{
		{Title: "no price", Confidence: &model.ConfidenceAnalysis{Score: 90}},
		{Title: "also no price", Confidence: &model.ConfidenceAnalysis{Score: 80}},
	}
	assert.Nil(t, WeightedStats(unpriced))
}

func TestWeightedStatsAllZeroScores(t *testing.T) {
	// Zero-weight prices carry no signal; the aggregate must degrade to
	// "no pricing data" rather than divide by the zero total weight.
	assert.Nil(t, WeightedStats([]model.Listing{
		pricedListing("10.00", 0),
	}))
	assert.Nil(t, WeightedStats([]model.Listing{
		pricedListing("10.00", 0),
		pricedListing("25.00", 0),
	}))

	// One non-zero score is enough to anchor the aggregate again.
	stats := WeightedStats([]model.Listing{
		pricedListing("10.00", 0),
		pricedListing("25.00", 40),
	})
	require.NotNil(t, stats)
	assert.Equal(t, "25.00", stats.WeightedAverage.StringFixed(2))
	assert.Equal(t, 2, stats.SampleSize)
}

func TestWeightedStatsWeightedAverage(t *testing.T) {
	// (40*1.0 + 60*0.5) / (1.0+0.5) = 46.67 to two decimals.
	stats := WeightedStats([]model.Listing{
		pricedListing("40.00", 100),
		pricedListing("60.00", 50),
	})
	require.NotNil(t, stats)
	assert.Equal(t, "46.67", stats.WeightedAverage.StringFixed(2))
	assert.Equal(t, 2, stats.SampleSize)
	assert.Equal(t, "40.00", stats.Min.StringFixed(2))
	assert.Equal(t, "60.00", stats.Max.StringFixed(2))
	assert.Equal(t, "20.00", stats.Range.StringFixed(2))
}

func TestWeightedStatsEqualWeightsReduceToMean(t *testing.T) {
	priceSets := [][]string{
		{"10.00"},
		{"10.00", "20.00", "30.00"},
		{"5.25", "17.80", "99.99", "42.00"},
		{"1.00", "1.00", "1.00", "1.00", "1.00"},
		{"123.45", "67.89", "10.11", "213.07", "55.00", "8.20"},
	}
	for _, prices := range priceSets {
		listings := make([]model.Listing, 0, len(prices))
		sum := decimal.Zero
		for _, p := range prices {
			listings = append(listings, pricedListing(p, 100))
			sum = sum.Add(decimal.RequireFromString(p))
		}
		mean := sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(2)

		stats := WeightedStats(listings)
		require.NotNil(t, stats)
		assert.True(t, stats.WeightedAverage.Equal(mean),
			"prices %v: weighted %s, mean %s", prices, stats.WeightedAverage, mean)
	}
}

func TestWeightedStatsSkipsUnpricedListings(t *testing.T) {
	stats := WeightedStats([]model.Listing{
		pricedListing("50.00", 80),
		{Title: "unpriced", Confidence: &model.ConfidenceAnalysis{Score: 95}},
		pricedListing("70.00", 60),
	})
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.SampleSize)
}

func TestWeightedStatsPercentiles(t *testing.T) {
	// Ascending prices 10, 20, 30, 40 with equal weight. Cumulative shares
	// hit 0.25 at the first element, 0.5 at the second, 0.75 at the third.
	stats := WeightedStats([]model.Listing{
		pricedListing("30.00", 80),
		pricedListing("10.00", 80),
		pricedListing("40.00", 80),
		pricedListing("20.00", 80),
	})
	require.NotNil(t, stats)
	assert.Equal(t, "10.00", stats.P25.StringFixed(2))
	assert.Equal(t, "20.00", stats.Median.StringFixed(2))
	assert.Equal(t, "30.00", stats.P75.StringFixed(2))
}

func TestWeightedStatsSkewedWeights(t *testing.T) {
	// One heavy listing dominates the cumulative distribution: with weights
	// 0.9 and 0.1 the first price already covers the 0.25, 0.5 and 0.75
	// fractions.
	stats := WeightedStats([]model.Listing{
		pricedListing("100.00", 10),
		pricedListing("50.00", 90),
	})
	require.NotNil(t, stats)
	assert.Equal(t, "50.00", stats.P25.StringFixed(2))
	assert.Equal(t, "50.00", stats.Median.StringFixed(2))
	assert.Equal(t, "50.00", stats.P75.StringFixed(2))
	assert.Equal(t, "100.00", stats.Max.StringFixed(2))
}

func TestWeightedPercentileExtremes(t *testing.T) {
	sets := [][]model.Listing{
		{pricedListing("42.00", 70)},
		{pricedListing("10.00", 100), pricedListing("90.00", 5)},
		{pricedListing("3.33", 40), pricedListing("7.77", 60), pricedListing("9.99", 80)},
	}
	for _, listings := range sets {
		stats := WeightedStats(listings)
		require.NotNil(t, stats)

		prices := make([]weightedPrice, 0, len(listings))
		total := decimal.Zero
		for _, l := range listings {
			w := decimal.NewFromInt(int64(l.Confidence.Score)).Div(decimal.NewFromInt(100))
			prices = append(prices, weightedPrice{price: *l.Price, weight: w})
			total = total.Add(w)
		}
		for i := 1; i < len(prices); i++ {
			for j := i; j > 0 && prices[j].price.LessThan(prices[j-1].price); j-- {
				prices[j], prices[j-1] = prices[j-1], prices[j]
			}
		}

		atZero := weightedPercentile(prices, total, decimal.Zero)
		atOne := weightedPercentile(prices, total, decimal.NewFromInt(1))
		assert.True(t, atZero.Equal(stats.Min), "fraction 0 should be the minimum")
		assert.True(t, atOne.Equal(stats.Max), "fraction 1 should be the maximum")
	}
}
