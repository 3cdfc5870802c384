package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Listing represents a single marketplace offer returned by the search
// provider. Listings are enriched in place with a ConfidenceAnalysis by the
// scoring engine; they are filtered out of result sets but never mutated
// beyond that.
type Listing struct {
	ID        string           `json:"item_id"`
	Title     string           `json:"title"`
	RawPrice  string           `json:"sold_price"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Currency  string           `json:"currency"`
	Condition string           `json:"condition"`
	Location  string           `json:"item_location"`
	ItemURL   string           `json:"item_web_url"`

	Confidence *ConfidenceAnalysis `json:"confidence_analysis,omitempty"`
}

// ParsePrice converts a provider price string into a decimal. Returns nil for
// anything non-numeric; an absent price must never collapse to zero.
func ParsePrice(raw string) *decimal.Decimal {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// HasPrice reports whether the listing carries a numerically usable price.
func (l *Listing) HasPrice() bool {
	return l != nil && l.Price != nil
}

// Valid reports whether the listing is a usable input record. Scoring works
// on title text, so a listing without a title cannot be judged and is
// dropped before scoring.
func (l *Listing) Valid() bool {
	return l != nil && l.Title != ""
}
