package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coinsight/coinsight/internal/model"
)

type weightedPrice struct {
	price  decimal.Decimal
	weight decimal.Decimal
}

// WeightedStats computes confidence-weighted price aggregates over the
// listings that carry both a price and a confidence score. Each price is
// weighted by score/100, so a 95-confidence sale moves the average almost
// twice as far as a 50-confidence one. Returns nil when no listing has a
// parseable price, or when every priced listing scored zero and the prices
// carry no weight at all.
func WeightedStats(listings []model.Listing) *model.PricingStatistics {
	hundred := decimal.NewFromInt(100)
	prices := make([]weightedPrice, 0, len(listings))
	for _, l := range listings {
		if l.Price == nil || l.Confidence == nil {
			continue
		}
		prices = append(prices, weightedPrice{
			price:  *l.Price,
			weight: decimal.NewFromInt(int64(l.Confidence.Score)).Div(hundred),
		})
	}
	if len(prices) == 0 {
		return nil
	}

	var weightedSum, totalWeight decimal.Decimal
	min, max := prices[0].price, prices[0].price
	for _, p := range prices {
		weightedSum = weightedSum.Add(p.price.Mul(p.weight))
		totalWeight = totalWeight.Add(p.weight)
		if p.price.LessThan(min) {
			min = p.price
		}
		if p.price.GreaterThan(max) {
			max = p.price
		}
	}
	if totalWeight.IsZero() {
		return nil
	}

	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].price.LessThan(prices[j].price)
	})

	return &model.PricingStatistics{
		WeightedAverage: weightedSum.Div(totalWeight).Round(2),
		Median:          weightedPercentile(prices, totalWeight, decimal.NewFromFloat(0.5)),
		P25:             weightedPercentile(prices, totalWeight, decimal.NewFromFloat(0.25)),
		P75:             weightedPercentile(prices, totalWeight, decimal.NewFromFloat(0.75)),
		Min:             min,
		Max:             max,
		Range:           max.Sub(min),
		SampleSize:      len(prices),
	}
}

// weightedPercentile is a nearest-rank percentile over the cumulative weight
// distribution: the first price (ascending) whose cumulative weight reaches
// the requested fraction of the total. Fraction 0 yields the minimum and
// fraction 1 the maximum. prices must be sorted ascending and non-empty.
func weightedPercentile(prices []weightedPrice, totalWeight decimal.Decimal, fraction decimal.Decimal) decimal.Decimal {
	target := totalWeight.Mul(fraction)
	var cumulative decimal.Decimal
	for _, p := range prices {
		cumulative = cumulative.Add(p.weight)
		if cumulative.GreaterThanOrEqual(target) {
			return p.price
		}
	}
	return prices[len(prices)-1].price
}
