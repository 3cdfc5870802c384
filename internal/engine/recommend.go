package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinsight/coinsight/internal/model"
)

// Volatility and coverage cutoffs for the qualitative assessments.
const (
	lowVolatilityRange      = 5
	moderateVolatilityRange = 15
	lowAverageConfidence    = 70
	goodHighConfidence      = 3
	excellentHighConfidence = 5
)

// Recommend maps coverage counts and pricing spread onto qualitative labels
// plus an ordered list of next steps. Purely derived from its inputs.
func Recommend(analysis model.AnalysisResult, stats *model.PricingStatistics) model.Recommendations {
	recs := model.Recommendations{
		DataQuality: assessDataQuality(analysis.HighConfidence),
		NextSteps:   []string{},
	}

	if stats != nil {
		volatility := assessVolatility(stats.Range)
		recs.Volatility = &volatility
		suggested := stats.WeightedAverage
		recs.SuggestedPrice = &suggested
	}

	if analysis.AverageConfidence < lowAverageConfidence {
		recs.NextSteps = append(recs.NextSteps, "Consider refining search terms for better matches")
	}
	if analysis.HighConfidence < goodHighConfidence {
		recs.NextSteps = append(recs.NextSteps, "Expand search to include more results or different time periods")
	}
	if stats != nil && stats.Range.GreaterThan(decimal.NewFromInt(moderateVolatilityRange)) {
		recs.NextSteps = append(recs.NextSteps, "High price volatility - consider analyzing by condition or seller")
	}
	recs.NextSteps = append(recs.NextSteps,
		"Use confidence scores to weight your pricing decisions",
		"Monitor prices over time for trend analysis",
	)
	return recs
}

func assessDataQuality(highConfidence int) model.Assessment {
	switch {
	case highConfidence >= excellentHighConfidence:
		return model.Assessment{
			Rating: "Excellent",
			Reason: fmt.Sprintf("Found %d high-confidence listings", highConfidence),
		}
	case highConfidence >= goodHighConfidence:
		return model.Assessment{
			Rating: "Good",
			Reason: fmt.Sprintf("Found %d high-confidence listings", highConfidence),
		}
	case highConfidence >= 1:
		return model.Assessment{
			Rating: "Fair",
			Reason: fmt.Sprintf("Only %d high-confidence listings found", highConfidence),
		}
	default:
		return model.Assessment{
			Rating: "Poor",
			Reason: "No high-confidence listings found",
		}
	}
}

func assessVolatility(priceRange decimal.Decimal) model.Assessment {
	switch {
	case priceRange.LessThan(decimal.NewFromInt(lowVolatilityRange)):
		return model.Assessment{
			Rating: "Low",
			Reason: fmt.Sprintf("Price range is only $%s", priceRange.StringFixed(2)),
		}
	case priceRange.LessThan(decimal.NewFromInt(moderateVolatilityRange)):
		return model.Assessment{
			Rating: "Moderate",
			Reason: fmt.Sprintf("Price range is $%s", priceRange.StringFixed(2)),
		}
	default:
		return model.Assessment{
			Rating: "High",
			Reason: fmt.Sprintf("Price range is $%s - consider filtering further", priceRange.StringFixed(2)),
		}
	}
}
