package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/model"
)

type analyzeRequest struct {
	Query         string `json:"search_query"`
	MaxResults    int    `json:"max_results"`
	MinConfidence int    `json:"min_confidence"`
	LookbackDays  int    `json:"lookback_days"`
}

func (r *analyzeRequest) applyDefaults() {
	if r.MaxResults == 0 {
		r.MaxResults = defaultMaxResults
	}
	if r.MinConfidence == 0 {
		r.MinConfidence = defaultMinConfidence
	}
	if r.LookbackDays == 0 {
		r.LookbackDays = defaultLookbackDays
	}
}

type batchAnalyzeRequest struct {
	// Queries as a list, or comma-separated in SearchQueries; the list wins
	// when both are set.
	Queries       []string `json:"queries"`
	SearchQueries string   `json:"search_queries"`
	MaxResults    int      `json:"max_results"`
	MinConfidence int      `json:"min_confidence"`
	LookbackDays  int      `json:"lookback_days"`
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "error": message})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		errorResponse(c, http.StatusBadRequest, "Search query is required")
		return
	}
	req.applyDefaults()

	result, err := s.pipeline.CompleteAnalysis(c.Request.Context(), model.SearchRequest{
		Query:         req.Query,
		MaxResults:    req.MaxResults,
		MinConfidence: req.MinConfidence,
		LookbackDays:  req.LookbackDays,
	})
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": noDataEnvelope(req.Query)})
		return
	}

	if s.history != nil {
		if _, saveErr := s.history.SaveAnalysis(c.Request.Context(), *result); saveErr != nil {
			s.logger.Warn("failed to save analysis", "query", req.Query, "error", saveErr)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

// noDataEnvelope is the zero-filled payload for a query with no listings,
// kept shape-compatible with a populated result for API consumers.
func noDataEnvelope(query string) gin.H {
	return gin.H{
		"search_query": query,
		"summary": gin.H{
			"total_listings_found":     0,
			"high_confidence_listings": 0,
			"average_confidence":       0,
		},
		"pricing_analysis": nil,
		"recommendations": gin.H{
			"data_quality": gin.H{
				"assessment": "No data available",
				"reason":     "No listings found for this search query",
			},
			"next_steps": []string{
				"Try broadening your search terms",
				"Check for typos in the search query",
				"Try searching for a different year or grade",
			},
		},
		"analysis_timestamp": time.Now().UTC(),
	}
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	var req batchAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	queries := req.Queries
	if len(queries) == 0 {
		queries = splitQueries(req.SearchQueries)
	}
	if len(queries) == 0 {
		errorResponse(c, http.StatusBadRequest, "Search queries are required")
		return
	}

	single := analyzeRequest{
		MaxResults:    req.MaxResults,
		MinConfidence: req.MinConfidence,
		LookbackDays:  req.LookbackDays,
	}
	single.applyDefaults()

	batch := s.pipeline.BatchAnalysis(c.Request.Context(), queries,
		single.MaxResults, single.MinConfidence, single.LookbackDays)

	if s.history != nil {
		for _, outcome := range batch.Outcomes {
			if outcome.Result == nil {
				continue
			}
			if _, saveErr := s.history.SaveAnalysis(c.Request.Context(), *outcome.Result); saveErr != nil {
				s.logger.Warn("failed to save analysis", "query", outcome.Query, "error", saveErr)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": batch})
}

func splitQueries(raw string) []string {
	var queries []string
	for _, q := range strings.Split(raw, ",") {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "online",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"cached_results": s.pipeline.CacheSize(),
		"history":        s.history != nil,
		"timestamp":      time.Now().UTC(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleHistoryList(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			errorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	summaries, err := s.history.ListAnalyses(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		errorResponse(c, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": summaries})
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	entry, err := s.history.GetAnalysis(c.Request.Context(), c.Param("id"))
	if errors.Is(err, common.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load analysis", "error", err)
		errorResponse(c, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entry})
}
