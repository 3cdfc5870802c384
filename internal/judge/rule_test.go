package judge

import (
	"testing"

	"github.com/coinsight/coinsight/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreDeterministic(t *testing.T) {
	// Identical inputs must produce identical output, field for field.
	first := Score("2004 Silver Eagle MS69 NGC", nil, "2004 Silver Eagle MS69")
	for i := 0; i < 10; i++ {
		again := Score("2004 Silver Eagle MS69 NGC", nil, "2004 Silver Eagle MS69")
		assert.Equal(t, first, again)
	}
}

func TestScoreClampInvariant(t *testing.T) {
	tests := []struct {
		name  string
		title string
		query string
	}{
		{"perfect match exceeds raw 100", "2004 Silver Eagle MS69 NGC", "2004 Silver Eagle MS69"},
		{"stacked penalties go below raw 0", "Colorized Painted Walking Liberty Mercury Barber box only empty", "2004 Silver Eagle MS69"},
		{"empty title", "", "2004 Silver Eagle MS69"},
		{"empty query", "2004 Silver Eagle MS69", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := Score(tt.title, nil, tt.query)
			assert.GreaterOrEqual(t, analysis.Score, 0)
			assert.LessOrEqual(t, analysis.Score, 100)
			assert.False(t, analysis.AIAnalyzed)
		})
	}
}

func TestScoreYearSignal(t *testing.T) {
	t.Run("matching year adds bonus", func(t *testing.T) {
		with := Score("2004 Silver Eagle", nil, "2004 Silver Eagle")
		without := Score("Silver Eagle", nil, "2004 Silver Eagle")
		assert.Greater(t, with.Score, without.Score)
		assert.Contains(t, with.KeyFactors, "2004 year matches")
	})

	t.Run("year mismatch is penalized and flagged", func(t *testing.T) {
		analysis := Score("2005 Silver Eagle MS69", nil, "2004 Silver Eagle MS69")
		assert.Contains(t, analysis.RedFlags, "Year mismatch: expected 2004")
	})

	t.Run("query without year is neutral, not penalized", func(t *testing.T) {
		analysis := Score("American Silver Eagle 1 oz", nil, "Silver Eagle")
		require.NotContains(t, analysis.RedFlags, "Year mismatch: expected ")
		assert.Contains(t, analysis.KeyFactors, "No specific year requested")
		// Baseline + year nudge + type match, nothing subtracted.
		assert.Equal(t, 80, analysis.Score)
	})
}

func TestScoreGradeSignal(t *testing.T) {
	t.Run("matching grade", func(t *testing.T) {
		analysis := Score("2004 Silver Eagle MS69 NGC", nil, "2004 Silver Eagle MS69")
		assert.Contains(t, analysis.KeyFactors, "Grade MS69 matches")
		assert.Equal(t, 100, analysis.Score)
	})

	t.Run("grade mismatch scores below grade match", func(t *testing.T) {
		match := Score("2004 Silver Eagle MS69 NGC", nil, "2004 Silver Eagle MS69")
		mismatch := Score("2004 Silver Eagle MS70 PCGS", nil, "2004 Silver Eagle MS69")
		assert.Greater(t, match.Score, mismatch.Score)
		assert.Contains(t, mismatch.RedFlags, "Grade mismatch: expected MS69, got MS70")
		assert.Equal(t, 80, mismatch.Score)
	})

	t.Run("requested grade missing from title", func(t *testing.T) {
		analysis := Score("2004 Silver Eagle BU", nil, "2004 Silver Eagle MS69")
		assert.Contains(t, analysis.RedFlags, "Expected grade MS69 not found")
	})

	t.Run("unrequested grade in title is penalized", func(t *testing.T) {
		// Asymmetric with the year rule on purpose: an unexpected grade is a
		// weak negative signal even though no grade was requested.
		analysis := Score("2004 Silver Eagle MS70", nil, "2004 Silver Eagle")
		assert.Contains(t, analysis.RedFlags, "Unexpected grade MS70 in listing")
		assert.Equal(t, 90, analysis.Score)
	})

	t.Run("specific grade token wins over its prefix", func(t *testing.T) {
		analysis := Score("2004 Silver Eagle MS70", nil, "2004 Silver Eagle MS69")
		assert.Contains(t, analysis.RedFlags, "Grade mismatch: expected MS69, got MS70")
	})
}

func TestScoreRedFlagsStack(t *testing.T) {
	one := Score("2004 Silver Eagle MS69 colorized", nil, "2004 Silver Eagle MS69")
	two := Score("2004 Silver Eagle MS69 colorized painted", nil, "2004 Silver Eagle MS69")
	assert.Greater(t, one.Score, two.Score)
	assert.Contains(t, one.RedFlags, "Contains 'colorized'")
	assert.Contains(t, two.RedFlags, "Contains 'painted'")
}

func TestScoreWrongItem(t *testing.T) {
	analysis := Score("Honda Accord Oil Filter", nil, "2004 Silver Eagle MS69")
	assert.Equal(t, 0, analysis.Score)
	assert.Equal(t, model.QualityPoor, analysis.MatchQuality)
	assert.Contains(t, analysis.RedFlags, "Wrong coin type")
}

func TestScoreReasoning(t *testing.T) {
	t.Run("concatenates factors and flags in detection order", func(t *testing.T) {
		analysis := Score("2004 Silver Eagle MS70 PCGS", nil, "2004 Silver Eagle MS69")
		assert.Equal(t,
			"Positive factors: 2004 year matches, Silver Eagle type matches | Red flags: Grade mismatch: expected MS69, got MS70",
			analysis.Reasoning)
	})
}

func TestQualityBands(t *testing.T) {
	tests := []struct {
		quality model.MatchQuality
		score   int
	}{
		{model.QualityPoor, 0},
		{model.QualityPoor, 39},
		{model.QualityFair, 40},
		{model.QualityFair, 59},
		{model.QualityGood, 60},
		{model.QualityGood, 79},
		{model.QualityExcellent, 80},
		{model.QualityExcellent, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.quality, model.QualityForScore(tt.score), "score %d", tt.score)
	}
}
