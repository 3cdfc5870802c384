package model

// MatchQuality is a qualitative band derived from a confidence score.
type MatchQuality string

// Match quality bands.
const (
	QualityPoor      MatchQuality = "poor"
	QualityFair      MatchQuality = "fair"
	QualityGood      MatchQuality = "good"
	QualityExcellent MatchQuality = "excellent"
)

// HighConfidenceScore is the threshold above which a listing is counted as a
// high-confidence match.
const HighConfidenceScore = 80

// ConfidenceAnalysis is attached to a listing after scoring. Exactly one
// judge (AI or rule-based) produces it; AIAnalyzed records which.
type ConfidenceAnalysis struct {
	Score        int          `json:"confidence_score"`
	Reasoning    string       `json:"reasoning"`
	KeyFactors   []string     `json:"key_factors"`
	RedFlags     []string     `json:"red_flags"`
	MatchQuality MatchQuality `json:"match_quality"`
	AIAnalyzed   bool         `json:"ai_analyzed"`
}

// ClampScore forces a raw score into the [0,100] contract range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// QualityForScore maps a confidence score to its quality band.
func QualityForScore(score int) MatchQuality {
	switch {
	case score >= 80:
		return QualityExcellent
	case score >= 60:
		return QualityGood
	case score >= 40:
		return QualityFair
	default:
		return QualityPoor
	}
}

// HighConfidence reports whether the analysis clears the high-confidence band.
func (c *ConfidenceAnalysis) HighConfidence() bool {
	return c != nil && c.Score >= HighConfidenceScore
}
