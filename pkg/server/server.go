package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/duynguyendang/shaclreport/internal/observability"
	"github.com/duynguyendang/shaclreport/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes caps uploaded documents when Options leaves it unset.
const DefaultMaxUploadBytes = 32 << 20

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	Metrics        *observability.Collector
	Logger         *zap.Logger
}

// Server holds the state for the REST API server.
type Server struct {
	service *service.ReportService
	opts    Options
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(svc *service.ReportService, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(opts.Logger), gin.Recovery())
	if opts.Metrics != nil {
		r.Use(metricsMiddleware(opts.Metrics))
	}

	s := &Server{
		service: svc,
		opts:    opts,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.opts.Logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	if s.opts.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))
	}

	v1 := s.router.Group("/v1")
	v1.GET("/datasets", s.handleDatasets)
	v1.POST("/datasets", s.handleUpload)
	v1.GET("/datasets/:id", s.handleDataset)
	v1.DELETE("/datasets/:id", s.handleDelete)
	v1.GET("/datasets/:id/source", s.handleSource)
	v1.POST("/datasets/:id/query", s.handleQuery)
	v1.GET("/datasets/:id/triples", s.handleTriples)
	v1.GET("/datasets/:id/report", s.handleReport)
	v1.GET("/datasets/:id/graph", s.handleGraph)
	v1.GET("/datasets/:id/stats", s.handleStats)
	v1.GET("/datasets/:id/export", s.handleExport)
	v1.GET("/datasets/:id/predicates", s.handlePredicates)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
