// Package api is the HTTP presentation layer around the scoring engine.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gokaycavdar/go-urlguard/pkg/engine"
	"github.com/gokaycavdar/go-urlguard/pkg/metrics"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
	"github.com/gokaycavdar/go-urlguard/pkg/storage"
)

// ScanRequest is the JSON body of POST /api/v1/scan.
type ScanRequest struct {
	URL string `json:"url" binding:"required"`
}

// Server wires the engine to its collaborators: result cache, metrics and
// optional GeoIP enrichment.
type Server struct {
	guard         *engine.URLGuard
	cache         storage.ResultCache
	metrics       *metrics.Metrics
	geo           Locator
	logger        *slog.Logger
	defaultScheme string
	now           func() time.Time
}

// Option configures a Server.
type Option func(*Server)

func WithCache(c storage.ResultCache) Option {
	return func(s *Server) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLocator enables host_geo enrichment for IP hosts.
func WithLocator(l Locator) Option {
	return func(s *Server) { s.geo = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDefaultScheme prepends scheme + "://" to input without a scheme.
func WithDefaultScheme(scheme string) Option {
	return func(s *Server) { s.defaultScheme = scheme }
}

// WithClock overrides the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a Server. Without options it uses a 1024-entry memory
// cache, fresh metrics and slog.Default.
func NewServer(guard *engine.URLGuard, opts ...Option) *Server {
	s := &Server{
		guard:   guard,
		cache:   storage.NewMemoryCache(1024),
		metrics: metrics.New(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	v1.POST("/scan", s.handleScan)
	v1.GET("/scan", s.handleScanQuery)
	v1.GET("/signals", s.handleSignals)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) handleScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	s.respondScan(c, req.URL)
}

func (s *Server) handleScanQuery(c *gin.Context) {
	s.respondScan(c, c.Query("url"))
}

func (s *Server) respondScan(c *gin.Context, raw string) {
	report, err := s.Scan(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleSignals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"catalog_version": s.guard.CatalogVersion(),
		"signals":         rules.Describe(s.guard.Rules()),
	})
}

// requestLogger replaces gin's default logger with one structured line
// per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
