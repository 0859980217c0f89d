package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/lawgraph/docindex"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/health"
	"github.com/c360/lawgraph/monitor"
)

// Pipeline is the monitor-side contract the gateway exposes over HTTP.
type Pipeline interface {
	Status() monitor.Snapshot
	SourceStats(ctx context.Context) (docindex.Stats, error)
	Health() health.Status
	Polling() bool
	Pause() bool
	Resume() bool
	RunOnce(ctx context.Context, opts monitor.RunOptions) (*monitor.Report, error)
	Subscribe() (<-chan monitor.Event, func())
}

// Config holds gateway configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8090".
	Addr string

	// ProcessRatePerMinute caps on-demand batch runs. Zero uses the
	// default of 6 per minute.
	ProcessRatePerMinute int

	// RequestTimeout bounds a single on-demand run.
	RequestTimeout time.Duration
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"listen address is required")
	}
	if c.ProcessRatePerMinute < 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"process rate must not be negative")
	}
	return nil
}

// Server is the HTTP control surface for a pipeline.
type Server struct {
	cfg      Config
	pipeline Pipeline
	limiter  *rate.Limiter
	logger   *slog.Logger

	server      *http.Server
	lifecycleMu sync.Mutex

	startTime time.Time

	requestsTotal  atomic.Uint64
	requestsFailed atomic.Uint64
}

// New creates a gateway server for the pipeline.
func New(cfg Config, pipeline Pipeline, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pipeline == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "New",
			"pipeline is required")
	}
	if cfg.ProcessRatePerMinute == 0 {
		cfg.ProcessRatePerMinute = 6
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.ProcessRatePerMinute)/60.0), 1),
		logger:   logger.With("component", "gateway"),
	}, nil
}

// Handler builds the gateway's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/process-now", s.handleProcessNow)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return s.withRequestID(mux)
}

// Start runs the gateway server. It blocks until the server stops.
func (s *Server) Start() error {
	s.lifecycleMu.Lock()
	if s.server != nil {
		s.lifecycleMu.Unlock()
		return errors.Wrap(errors.ErrAlreadyStarted, "Server", "Start", "gateway")
	}
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.startTime = time.Now()
	s.lifecycleMu.Unlock()

	s.logger.Info("gateway listening", "addr", s.cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start", "serve on "+s.cfg.Addr)
	}
	return nil
}

// Stop shuts the gateway down, waiting up to timeout for in-flight
// requests to drain.
func (s *Server) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	server := s.server
	s.server = nil
	s.lifecycleMu.Unlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Stop", "graceful shutdown")
	}
	s.logger.Info("gateway stopped")
	return nil
}
