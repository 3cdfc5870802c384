// Package judge implements the deterministic relevance scoring for
// marketplace listings: a cheap keyword prefilter and a rule-based
// confidence scorer used standalone or as the fallback when the AI judge is
// unavailable.
package judge

import (
	"strings"

	"github.com/coinsight/coinsight/internal/model"
)

// Exclusion terms for the prefilter. These are query-independent: a title
// containing any of them is either not a coin at all or an accessory with no
// underlying coin, so it is dropped before any scoring happens.
var prefilterExclusions = []string{
	// Wrong object class entirely.
	"oil filter", "honda", "accord", "civic", "pilot",
	// Accessory-only listings.
	"box only", "coa only", "empty", "no coin", "capsule only",
}

// Prefilter removes obviously irrelevant listings before expensive scoring.
// It is a pure function over title text; listings without a title pass
// through untouched.
func Prefilter(listings []model.Listing) []model.Listing {
	kept := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if excludedTitle(l.Title) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

func excludedTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, term := range prefilterExclusions {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
