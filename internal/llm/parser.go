package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/model"
)

// analysisPayload is the strict schema the judge is asked to return for a
// single listing. Score is a pointer so a missing field is distinguishable
// from an explicit zero.
type analysisPayload struct {
	Score        *int     `json:"confidence_score"`
	Reasoning    string   `json:"reasoning"`
	KeyFactors   []string `json:"key_factors"`
	RedFlags     []string `json:"red_flags"`
	MatchQuality string   `json:"match_quality"`
}

// batchPayload is the schema for batch responses: each entry names its
// listing by positional index so response reordering is harmless.
type batchPayload struct {
	Results []batchEntry `json:"results"`
}

type batchEntry struct {
	Index *int `json:"index"`
	analysisPayload
}

// cleanResponse strips markdown code-fence decoration the judge sometimes
// wraps around its JSON.
func cleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseSingleResponse validates a single-listing judge response. Any schema
// violation collapses into the unified invalid-response condition that feeds
// the rule-based fallback.
func parseSingleResponse(raw string) (model.ConfidenceAnalysis, error) {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return model.ConfidenceAnalysis{}, common.ErrEmptyResponse
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return model.ConfidenceAnalysis{}, fmt.Errorf("%w: %v", common.ErrInvalidResponse, err)
	}

	return payload.toAnalysis()
}

// parseBatchResponse validates a batch judge response and maps each entry
// back to its listing by index. Entries referencing an index outside
// [0,size) are dropped, not errors; an empty result set is an error so the
// caller can fall back.
func parseBatchResponse(raw string, size int) (map[int]model.ConfidenceAnalysis, error) {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return nil, common.ErrEmptyResponse
	}

	var payload batchPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidResponse, err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: no results in batch response", common.ErrInvalidResponse)
	}

	analyses := make(map[int]model.ConfidenceAnalysis, len(payload.Results))
	for _, entry := range payload.Results {
		if entry.Index == nil || *entry.Index < 0 || *entry.Index >= size {
			continue
		}
		analysis, err := entry.toAnalysis()
		if err != nil {
			continue
		}
		analyses[*entry.Index] = analysis
	}

	if len(analyses) == 0 {
		return nil, fmt.Errorf("%w: no valid entries in batch response", common.ErrInvalidResponse)
	}

	return analyses, nil
}

func (p analysisPayload) toAnalysis() (model.ConfidenceAnalysis, error) {
	if p.Score == nil {
		return model.ConfidenceAnalysis{}, fmt.Errorf("%w: missing confidence_score", common.ErrInvalidResponse)
	}

	score := model.ClampScore(*p.Score)

	reasoning := p.Reasoning
	if reasoning == "" {
		reasoning = "AI analysis completed"
	}

	quality := model.MatchQuality(strings.ToLower(p.MatchQuality))
	switch quality {
	case model.QualityPoor, model.QualityFair, model.QualityGood, model.QualityExcellent:
	default:
		quality = model.QualityForScore(score)
	}

	return model.ConfidenceAnalysis{
		Score:        score,
		Reasoning:    reasoning,
		KeyFactors:   p.KeyFactors,
		RedFlags:     p.RedFlags,
		MatchQuality: quality,
		AIAnalyzed:   true,
	}, nil
}
