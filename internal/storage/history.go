package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/model"
)

// HistoryEntry is one saved analysis, metadata plus the full composite
// result.
type HistoryEntry struct {
	ID             string                `json:"id"`
	Request        model.SearchRequest   `json:"request"`
	AboveThreshold int                   `json:"listings_above_threshold"`
	SuggestedPrice string                `json:"suggested_price,omitempty"`
	Result         model.CompositeResult `json:"result"`
	CreatedAt      time.Time             `json:"created_at"`
}

// HistorySummary is the list view of a saved analysis, without the payload.
type HistorySummary struct {
	ID             string    `json:"id"`
	Query          string    `json:"search_query"`
	AboveThreshold int       `json:"listings_above_threshold"`
	SuggestedPrice string    `json:"suggested_price,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveAnalysis stores one completed composite result and returns its
// generated id.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, result model.CompositeResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to serialize analysis: %w", err)
	}

	var weightedAvg sql.NullString
	if result.Pricing != nil {
		weightedAvg = sql.NullString{String: result.Pricing.WeightedAverage.String(), Valid: true}
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			id, search_query, max_results, min_confidence, lookback_days,
			listings_above_threshold, weighted_average, result, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		result.Request.Query,
		result.Request.MaxResults,
		result.Request.MinConfidence,
		result.Request.LookbackDays,
		result.Analysis.AboveThreshold,
		weightedAvg,
		string(payload),
		result.GeneratedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis loads one saved analysis by id. Returns common.ErrNotFound for
// an unknown id.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, search_query, max_results, min_confidence, lookback_days,
		       listings_above_threshold, weighted_average, result, created_at
		FROM analyses WHERE id = ?`, id)

	var entry HistoryEntry
	var weightedAvg sql.NullString
	var payload string
	err := row.Scan(
		&entry.ID,
		&entry.Request.Query,
		&entry.Request.MaxResults,
		&entry.Request.MinConfidence,
		&entry.Request.LookbackDays,
		&entry.AboveThreshold,
		&weightedAvg,
		&payload,
		&entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %q", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	if weightedAvg.Valid {
		entry.SuggestedPrice = weightedAvg.String
	}
	if err := json.Unmarshal([]byte(payload), &entry.Result); err != nil {
		return nil, fmt.Errorf("failed to decode stored analysis: %w", err)
	}
	return &entry, nil
}

// ListAnalyses returns the most recent analyses, newest first. limit <= 0
// selects a sensible default.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]HistorySummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, search_query, listings_above_threshold, weighted_average, created_at
		FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var summaries []HistorySummary
	for rows.Next() {
		var summary HistorySummary
		var weightedAvg sql.NullString
		if err := rows.Scan(&summary.ID, &summary.Query, &summary.AboveThreshold, &weightedAvg, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		if weightedAvg.Valid {
			summary.SuggestedPrice = weightedAvg.String
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return summaries, nil
}
