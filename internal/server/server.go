// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coinsight/coinsight/internal/model"
	"github.com/coinsight/coinsight/internal/storage"
)

// Request defaults applied when the caller omits tuning fields.
const (
	defaultMaxResults    = 10
	defaultMinConfidence = 60
	defaultLookbackDays  = 90
)

// Pipeline is the analysis engine the server fronts.
type Pipeline interface {
	CompleteAnalysis(ctx context.Context, req model.SearchRequest) (*model.CompositeResult, error)
	BatchAnalysis(ctx context.Context, queries []string, maxResults, minConfidence, lookbackDays int) model.BatchResult
	CacheSize() int
}

// History records completed analyses. Optional; a nil History disables the
// history endpoints and persistence.
type History interface {
	SaveAnalysis(ctx context.Context, result model.CompositeResult) (string, error)
	ListAnalyses(ctx context.Context, limit int) ([]storage.HistorySummary, error)
	GetAnalysis(ctx context.Context, id string) (*storage.HistoryEntry, error)
}

// Server wires the pipeline and history into a gin router.
type Server struct {
	pipeline Pipeline
	history  History
	logger   *slog.Logger
	started  time.Time
}

// New creates a Server. history may be nil.
func New(pipeline Pipeline, history History, logger *slog.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		history:  history,
		logger:   logger,
		started:  time.Now(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		id := uuid.New().String()
		c.Header("X-Request-ID", id)
		c.Next()
		s.logger.Info("request handled",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	})

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/analyze/batch", s.handleAnalyzeBatch)
		api.GET("/status", s.handleStatus)
		api.GET("/health", s.handleHealth)
		if s.history != nil {
			api.GET("/history", s.handleHistoryList)
			api.GET("/history/:id", s.handleHistoryGet)
		}
	}
	return r
}

// Run serves the API until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.logger.Info("api server listening", "addr", addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
