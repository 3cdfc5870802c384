package judge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coinsight/coinsight/internal/model"

	"github.com/shopspring/decimal"
)

// baselineScore is the neutral starting point before any signal is applied.
const baselineScore = 50

// Score deltas. The mismatch penalties deliberately outweigh the matching
// bonuses: the scorer is tuned to be conservative about false positives.
const (
	yearMatchBonus   = 20
	yearMismatch     = 30
	noYearNudge      = 5
	typeMatchBonus   = 25
	typeMismatch     = 40
	gradeMatchBonus  = 20
	gradeMismatch    = 15
	gradeMissing     = 10
	gradeUnrequested = 5
	redFlagPenalty   = 20
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// typeKeywords identify the coin type: the canonical name and its common
// abbreviation.
var typeKeywords = []string{"silver eagle", "ase"}

// gradeKeywords is the closed set of recognized grade tokens. Order matters:
// extraction keeps the last keyword found, so the more specific two-digit
// grades override their prefixes (ms69 beats ms6).
var gradeKeywords = []string{
	"ms6", "ms7", "ms8", "ms9", "ms67", "ms68", "ms69", "ms70",
	"pf6", "pf7", "pf8", "pf9", "pf69", "pf70", "proof",
}

// redFlagKeywords disqualify a title regardless of the query: wrong-category
// coins, damage indicators, and accessory-only listings. Each hit stacks its
// own penalty.
var redFlagKeywords = []string{
	"box only", "coa only", "empty", "no coin", "capsule only",
	"oil filter", "honda", "accord", "civic", "pilot",
	"walking liberty", "mercury", "barber", "seated",
	"colorized", "color", "colored", "painted",
}

// Score rates how well a listing title matches the search query using purely
// deterministic heuristics. It never fails, performs no I/O, and identical
// inputs always produce identical output. The price is accepted for contract
// symmetry with the AI judge but carries no signal here.
func Score(title string, _ *decimal.Decimal, query string) model.ConfidenceAnalysis {
	titleLower := strings.ToLower(title)
	queryLower := strings.ToLower(query)

	score := baselineScore
	var keyFactors []string
	var redFlags []string

	// Year signal. A query without a year token places no constraint, so
	// nothing can be violated; that path gets a small positive nudge rather
	// than a penalty. This asymmetry is intentional tuning.
	targetYear := yearPattern.FindString(queryLower)
	switch {
	case targetYear == "":
		score += noYearNudge
		keyFactors = append(keyFactors, "No specific year requested")
	case strings.Contains(titleLower, targetYear):
		score += yearMatchBonus
		keyFactors = append(keyFactors, fmt.Sprintf("%s year matches", targetYear))
	default:
		score -= yearMismatch
		redFlags = append(redFlags, fmt.Sprintf("Year mismatch: expected %s", targetYear))
	}

	// Coin type signal: a match requires the type in both query and title.
	if containsAny(titleLower, typeKeywords) && containsAny(queryLower, typeKeywords) {
		score += typeMatchBonus
		keyFactors = append(keyFactors, "Silver Eagle type matches")
	} else {
		score -= typeMismatch
		redFlags = append(redFlags, "Wrong coin type")
	}

	// Grade signal.
	searchGrade := extractGrade(queryLower)
	listingGrade := extractGrade(titleLower)
	switch {
	case searchGrade != "" && listingGrade != "":
		if searchGrade == listingGrade {
			score += gradeMatchBonus
			keyFactors = append(keyFactors, fmt.Sprintf("Grade %s matches", strings.ToUpper(searchGrade)))
		} else {
			score -= gradeMismatch
			redFlags = append(redFlags, fmt.Sprintf("Grade mismatch: expected %s, got %s",
				strings.ToUpper(searchGrade), strings.ToUpper(listingGrade)))
		}
	case searchGrade != "" && listingGrade == "":
		score -= gradeMissing
		redFlags = append(redFlags, fmt.Sprintf("Expected grade %s not found", strings.ToUpper(searchGrade)))
	case searchGrade == "" && listingGrade != "":
		score -= gradeUnrequested
		redFlags = append(redFlags, fmt.Sprintf("Unexpected grade %s in listing", strings.ToUpper(listingGrade)))
	}

	// Disqualifying keywords stack additively, no deduplication.
	for _, flag := range redFlagKeywords {
		if strings.Contains(titleLower, flag) {
			score -= redFlagPenalty
			redFlags = append(redFlags, fmt.Sprintf("Contains '%s'", flag))
		}
	}

	score = model.ClampScore(score)

	return model.ConfidenceAnalysis{
		Score:        score,
		Reasoning:    buildReasoning(keyFactors, redFlags),
		KeyFactors:   keyFactors,
		RedFlags:     redFlags,
		MatchQuality: model.QualityForScore(score),
		AIAnalyzed:   false,
	}
}

// extractGrade returns the last grade keyword found in the text, or "".
func extractGrade(text string) string {
	found := ""
	for _, grade := range gradeKeywords {
		if strings.Contains(text, grade) {
			found = grade
		}
	}
	return found
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func buildReasoning(keyFactors, redFlags []string) string {
	var parts []string
	if len(keyFactors) > 0 {
		parts = append(parts, "Positive factors: "+strings.Join(keyFactors, ", "))
	}
	if len(redFlags) > 0 {
		parts = append(parts, "Red flags: "+strings.Join(redFlags, ", "))
	}
	if len(parts) == 0 {
		return "Basic analysis completed"
	}
	return strings.Join(parts, " | ")
}
