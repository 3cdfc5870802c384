package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight/internal/common"
	"github.com/coinsight/coinsight/internal/model"
	"github.com/coinsight/coinsight/internal/storage"
)

// fakePipeline records the last request and serves canned results per query.
type fakePipeline struct {
	results map[string]*model.CompositeResult
	lastReq model.SearchRequest
	err     error
}

func (f *fakePipeline) CompleteAnalysis(_ context.Context, req model.SearchRequest) (*model.CompositeResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.results[req.Query], nil
}

func (f *fakePipeline) BatchAnalysis(_ context.Context, queries []string, maxResults, minConfidence, lookbackDays int) model.BatchResult {
	batch := model.BatchResult{TotalQueries: len(queries), BatchTimestamp: time.Now().UTC()}
	for _, q := range queries {
		outcome := model.QueryOutcome{Query: q}
		if result := f.results[q]; result != nil {
			outcome.Result = result
			batch.SucceededQueries++
		} else {
			outcome.Err = "no listings found"
			batch.FailedQueries++
		}
		batch.Outcomes = append(batch.Outcomes, outcome)
	}
	return batch
}

func (f *fakePipeline) CacheSize() int { return 3 }

// fakeHistory keeps saved results in memory.
type fakeHistory struct {
	saved   []model.CompositeResult
	entries map[string]*storage.HistoryEntry
	listErr error
}

func (f *fakeHistory) SaveAnalysis(_ context.Context, result model.CompositeResult) (string, error) {
	f.saved = append(f.saved, result)
	return fmt.Sprintf("id-%d", len(f.saved)), nil
}

func (f *fakeHistory) ListAnalyses(_ context.Context, _ int) ([]storage.HistorySummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	summaries := make([]storage.HistorySummary, 0, len(f.saved))
	for i, r := range f.saved {
		summaries = append(summaries, storage.HistorySummary{
			ID:    fmt.Sprintf("id-%d", i+1),
			Query: r.Request.Query,
		})
	}
	return summaries, nil
}

func (f *fakeHistory) GetAnalysis(_ context.Context, id string) (*storage.HistoryEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: analysis %q", common.ErrNotFound, id)
	}
	return entry, nil
}

func compositeFor(query string) *model.CompositeResult {
	avg := decimal.RequireFromString("46.67")
	return &model.CompositeResult{
		Request:  model.SearchRequest{Query: query, MaxResults: 10, MinConfidence: 60, LookbackDays: 90},
		Analysis: model.AnalysisResult{Query: query, AboveThreshold: 2},
		Pricing:  &model.PricingStatistics{WeightedAverage: avg, SampleSize: 2},
		Recommendations: model.Recommendations{
			DataQuality: model.Assessment{Rating: "Fair", Reason: "Only 2 high-confidence listings found"},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func newTestServer(pipeline Pipeline, history History) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httptest.NewServer(New(pipeline, history, logger).Router())
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestAnalyzeEndpoint(t *testing.T) {
	pipeline := &fakePipeline{results: map[string]*model.CompositeResult{
		"2004 silver eagle": compositeFor("2004 silver eagle"),
	}}
	history := &fakeHistory{}
	server := newTestServer(pipeline, history)
	defer server.Close()

	resp, payload := postJSON(t, server.URL+"/api/analyze", `{"search_query": "2004 silver eagle"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", payload["status"])

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	analysis, ok := data["confidence_analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2004 silver eagle", analysis["search_query"])

	// Defaults applied when the caller omits tuning fields.
	assert.Equal(t, defaultMaxResults, pipeline.lastReq.MaxResults)
	assert.Equal(t, defaultMinConfidence, pipeline.lastReq.MinConfidence)
	assert.Equal(t, defaultLookbackDays, pipeline.lastReq.LookbackDays)

	// Successful analyses are persisted.
	require.Len(t, history.saved, 1)
	assert.Equal(t, "2004 silver eagle", history.saved[0].Request.Query)
}

func TestAnalyzeEndpointNoListings(t *testing.T) {
	history := &fakeHistory{}
	server := newTestServer(&fakePipeline{}, history)
	defer server.Close()

	resp, payload := postJSON(t, server.URL+"/api/analyze", `{"search_query": "unobtainium coin"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", payload["status"])

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unobtainium coin", data["search_query"])
	assert.Nil(t, data["pricing_analysis"])
	assert.Empty(t, history.saved, "no-data results are not persisted")
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	server := newTestServer(&fakePipeline{}, nil)
	defer server.Close()

	resp, payload := postJSON(t, server.URL+"/api/analyze", `{"search_query": "  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", payload["status"])

	resp, _ = postJSON(t, server.URL+"/api/analyze", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeEndpointPipelineError(t *testing.T) {
	server := newTestServer(&fakePipeline{err: fmt.Errorf("invalid request: boom")}, nil)
	defer server.Close()

	resp, payload := postJSON(t, server.URL+"/api/analyze", `{"search_query": "2004 silver eagle"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", payload["status"])
}

func TestBatchEndpointQueryList(t *testing.T) {
	pipeline := &fakePipeline{results: map[string]*model.CompositeResult{
		"2004 silver eagle": compositeFor("2004 silver eagle"),
	}}
	server := newTestServer(pipeline, nil)
	defer server.Close()

	resp, payload := postJSON(t, server.URL+"/api/analyze/batch",
		`{"queries": ["2004 silver eagle", "1999 silver eagle"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["total_queries"])
	assert.Equal(t, float64(1), data["successful_queries"])
	assert.Equal(t, float64(1), data["failed_queries"])
}

func TestBatchEndpointCommaSeparated(t *testing.T) {
	pipeline := &fakePipeline{}
	server := newTestServer(pipeline, nil)
	defer server.Close()

	resp, payload := postJSON(t, server.URL+"/api/analyze/batch",
		`{"search_queries": "2004 silver eagle, 2005 silver eagle , "}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["total_queries"])
}

func TestBatchEndpointRequiresQueries(t *testing.T) {
	server := newTestServer(&fakePipeline{}, nil)
	defer server.Close()

	resp, _ := postJSON(t, server.URL+"/api/analyze/batch", `{"search_queries": "  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusAndHealthEndpoints(t *testing.T) {
	server := newTestServer(&fakePipeline{}, &fakeHistory{})
	defer server.Close()

	resp, payload := getJSON(t, server.URL+"/api/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "online", payload["status"])
	assert.Equal(t, float64(3), payload["cached_results"])
	assert.Equal(t, true, payload["history"])

	resp, payload = getJSON(t, server.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", payload["status"])
}

func TestHistoryEndpoints(t *testing.T) {
	history := &fakeHistory{entries: map[string]*storage.HistoryEntry{
		"id-1": {ID: "id-1", Request: model.SearchRequest{Query: "2004 silver eagle"}},
	}}
	history.saved = append(history.saved, *compositeFor("2004 silver eagle"))
	server := newTestServer(&fakePipeline{}, history)
	defer server.Close()

	resp, payload := getJSON(t, server.URL+"/api/history")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := payload["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)

	resp, payload = getJSON(t, server.URL+"/api/history/id-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	entry, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "id-1", entry["id"])

	resp, _ = getJSON(t, server.URL+"/api/history/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryEndpointsDisabledWithoutStore(t *testing.T) {
	server := newTestServer(&fakePipeline{}, nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/history")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
