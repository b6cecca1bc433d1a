package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/config"
	"tpgen-hq/tpgen/pkg/telemetry"
	"tpgen-hq/tpgen/pkg/telemetry/health"
	"tpgen-hq/tpgen/pkg/telemetry/metrics"
	"tpgen-hq/tpgen/pkg/telemetry/tracing"
)

// DefaultMaxBodyBytes caps request bodies when Deps.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 4 << 20

// Deps are the collaborators the API serves.
type Deps struct {
	Checker   *check.Checker
	Catalog   catalog.Catalog
	Telemetry *telemetry.Telemetry

	// Version, Commit and BuildTime are reported by /version.
	Version   string
	Commit    string
	BuildTime string

	// MaxBodyBytes rejects larger request bodies with 413.
	MaxBodyBytes int64

	// MetricsPath serves the Prometheus exposition. Defaults to /metrics.
	MetricsPath string

	// Now stamps generated documents. Defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP API for generating and checking test plans.
type Server struct {
	config     *config.ServerConfig
	deps       Deps
	logger     *slog.Logger
	metrics    *metrics.Collector
	tracer     *tracing.Tracer
	health     *health.Checker
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates a server. Checker and Catalog are required.
func New(cfg *config.ServerConfig, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if deps.Checker == nil || deps.Catalog == nil {
		return nil, errors.New("checker and catalog are required")
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = config.DefaultMetricsPath
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{config: cfg, deps: deps, logger: slog.Default()}
	if t := deps.Telemetry; t != nil {
		s.logger = t.Logger().Slog()
		s.metrics = t.Metrics()
		s.tracer = t.Tracer()
		s.health = t.Health()
	}
	if s.health == nil {
		s.health = health.New(0)
	}
	s.logger = s.logger.With("component", "server")

	s.health.RegisterCheck("catalog", func(ctx context.Context) error {
		_, err := deps.Catalog.Machines(ctx)
		return err
	})
	return s, nil
}

// Start listens on the configured address and serves until ctx is
// cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("API server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/plans/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/v1/documents/lint", s.handleLint)
	mux.HandleFunc("POST /api/v1/documents/validate", s.handleValidateDocument)
	mux.HandleFunc("POST /api/v1/documents/compatibility", s.handleCompatibility)
	mux.HandleFunc("POST /api/v1/configurations/validate", s.handleValidateConfiguration)
	mux.HandleFunc("GET /api/v1/catalog/machines", s.handleMachines)
	mux.HandleFunc("GET /api/v1/catalog/test-cases", s.handleTestCases)

	health.Register(mux, s.health, s.deps.Version, s.deps.Commit, s.deps.BuildTime)
	if s.metrics != nil {
		mux.Handle("GET "+s.deps.MetricsPath, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = s.tracer.HTTPMiddleware(handler)
	handler = s.rateLimit(handler)
	handler = s.observe(mux, handler)
	handler = requestID(handler)
	handler = s.recovery(handler)
	return handler
}
