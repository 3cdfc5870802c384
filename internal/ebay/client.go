// Package ebay talks to the eBay Browse API to retrieve sold listings.
package ebay

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/model"
)

const (
	// DefaultEndpoint is the Browse API item summary search endpoint.
	// The soldItems filter returns sold listings, not necessarily
	// completed transactions.
	DefaultEndpoint = "https://api.ebay.com/buy/browse/v1/item_summary/search"

	marketplaceID  = "EBAY-US"
	defaultTimeout = 30 * time.Second
)

// Client searches sold listings through the Browse API. It satisfies
// engine.Searcher.
type Client struct {
	http     *resty.Client
	endpoint string
	token    string
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the Browse API endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

// NewClient creates a Browse API client authenticated with an OAuth
// application token.
func NewClient(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: ebay access token is required", common.ErrMissingConfig)
	}

	http := resty.New()
	http.SetTimeout(defaultTimeout)

	c := &Client{
		http:     http,
		endpoint: DefaultEndpoint,
		token:    token,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type browseItem struct {
	ItemID string `json:"itemId"`
	Title  string `json:"title"`
	Price  struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
	Condition    string `json:"condition"`
	ItemLocation struct {
		Country string `json:"country"`
	} `json:"itemLocation"`
	ItemWebURL string `json:"itemWebUrl"`
}

type browseResponse struct {
	Total         int          `json:"total"`
	ItemSummaries []browseItem `json:"itemSummaries"`
}

// Search returns sold listings for the query, in the provider's price-sorted
// order. lookbackDays is accepted for interface parity; the Browse API does
// not support a sale-date window on the soldItems filter.
func (c *Client) Search(ctx context.Context, query string, maxResults, lookbackDays int) ([]model.Listing, error) {
	limit := maxResults
	if limit <= 0 || limit > model.ProviderMaxResults {
		limit = model.ProviderMaxResults
	}

	c.logger.Debug("searching sold listings",
		"query", query,
		"limit", limit,
	)

	var payload browseResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetHeader("X-EBAY-C-MARKETPLACE-ID", marketplaceID).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(map[string]string{
			"q":      query,
			"limit":  strconv.Itoa(limit),
			"filter": "soldItems",
			"sort":   "price",
		}).
		SetResult(&payload).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("ebay search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: ebay search returned status %d", common.ErrProviderFailure, resp.StatusCode())
	}

	listings := make([]model.Listing, 0, len(payload.ItemSummaries))
	for _, item := range payload.ItemSummaries {
		listings = append(listings, model.Listing{
			ID:        item.ItemID,
			Title:     item.Title,
			RawPrice:  item.Price.Value,
			Price:     model.ParsePrice(item.Price.Value),
			Currency:  item.Price.Currency,
			Condition: item.Condition,
			Location:  item.ItemLocation.Country,
			ItemURL:   item.ItemWebURL,
		})
	}

	c.logger.Info("sold listing search complete",
		"query", query,
		"returned", len(listings),
		"total_available", payload.Total,
	)
	return listings, nil
}
