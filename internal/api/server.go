package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/omote-irgen/internal/catalog"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/config"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/logging"
	"github.com/nerrad567/omote-irgen/internal/ir"
	"github.com/nerrad567/omote-irgen/internal/metrics"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig

	// Generator supplies the encoding defaults (raw protocol, workers).
	Generator config.GeneratorConfig

	Logger *logging.Logger

	// Catalog is optional; the /devices routes answer 503 without it.
	Catalog catalog.Repository

	// Metrics is optional; /metrics is not mounted without it.
	Metrics *metrics.Metrics

	Version string
}

// Server is the irgen HTTP API server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	gen     config.GeneratorConfig
	logger  *logging.Logger
	catalog catalog.Repository
	metrics *metrics.Metrics
	version string

	// mask and strict are the two encoders a request can select.
	mask   *ir.Encoder
	strict *ir.Encoder

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger); catalog and metrics
//     are optional
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing or the raw protocol
//     is not registered
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	mask, err := ir.NewEncoder(ir.Options{Policy: ir.PolicyMask, RawProtocol: deps.Generator.RawProtocol})
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	strict, err := ir.NewEncoder(ir.Options{Policy: ir.PolicyStrict, RawProtocol: deps.Generator.RawProtocol})
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	return &Server{
		cfg:     deps.Config,
		gen:     deps.Generator,
		logger:  deps.Logger,
		catalog: deps.Catalog,
		metrics: deps.Metrics,
		version: deps.Version,
		mask:    mask,
		strict:  strict,
	}, nil
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine.
//
// Parameters:
//   - ctx: Base context for request handling
//
// Returns:
//   - error: If the address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
