package monitor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/lawgraph/docindex"
	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/extract"
	"github.com/c360/lawgraph/graphstore"
	"github.com/c360/lawgraph/health"
	"github.com/c360/lawgraph/metric"
	"github.com/c360/lawgraph/mutation"
	"github.com/c360/lawgraph/pkg/retry"
	"github.com/c360/lawgraph/tracker"
)

// DocumentSource is the document-side contract the monitor polls.
type DocumentSource interface {
	Ping(ctx context.Context) error
	FetchUnprocessed(ctx context.Context, target entity.Type, limit int) ([]*entity.Document, error)
	Stats(ctx context.Context) (docindex.Stats, error)
}

// GraphStore is the graph-side contract the monitor commits through.
type GraphStore interface {
	Ping(ctx context.Context) error
	Mutate(ctx context.Context, tx *mutation.Transaction) (graphstore.Result, error)
	WriteSnapshot(tx *mutation.Transaction) error
}

// FlagUpdater merges completion flags after commit success.
type FlagUpdater interface {
	MarkBatch(ctx context.Context, results []extract.Result) (tracker.Outcome, error)
}

// Config holds monitor configuration.
type Config struct {
	// Interval between polling cycles.
	Interval time.Duration

	// BatchSize bounds documents per cycle.
	BatchSize int

	// KeyOptions controls natural-key normalization during extraction.
	KeyOptions extract.KeyOptions

	// StartPaused brings the loop up paused; manual runs still work.
	StartPaused bool
}

// RunOptions parameterizes a single cycle.
type RunOptions struct {
	// Entity targets one entity type's flag; empty targets the
	// document-level flag.
	Entity entity.Type

	// DryRun assembles and snapshots the transaction without committing
	// or marking anything.
	DryRun bool
}

// Report describes one completed cycle.
type Report struct {
	// ID correlates this cycle across logs, events, and API responses.
	ID           string         `json:"id"`
	Fetched      int            `json:"fetched"`
	Skipped      int            `json:"skipped"`
	Marked       int            `json:"marked"`
	FlagFailures int            `json:"flag_failures"`
	Nodes        int            `json:"nodes"`
	Lookups      int            `json:"lookups"`
	Entities     map[string]int `json:"entities"`
	DryRun       bool           `json:"dry_run"`
	Duration     time.Duration  `json:"duration"`

	// Transaction holds the would-be commit payload on dry runs, so
	// callers can inspect it without a snapshot path configured.
	Transaction json.RawMessage `json:"transaction,omitempty"`
}

// Snapshot is a point-in-time view of monitor state.
type Snapshot struct {
	Started      bool      `json:"started"`
	Polling      bool      `json:"polling"`
	InFlight     bool      `json:"in_flight"`
	StartTime    time.Time `json:"start_time,omitempty"`
	LastCycle    time.Time `json:"last_cycle,omitempty"`
	Cycles       int64     `json:"cycles"`
	Documents    int64     `json:"documents_processed"`
	FlagFailures int64     `json:"flag_failures"`
	RecentErrors []string  `json:"recent_errors,omitempty"`
}

// Event is a pipeline notification published to subscribers.
type Event struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"` // "cycle", "error", "started", "stopped", "paused", "resumed"
	Message string    `json:"message"`
	Report  *Report   `json:"report,omitempty"`
}

const recentErrorsKept = 10

// Service is the polling pipeline service.
type Service struct {
	cfg     Config
	source  DocumentSource
	store   GraphStore
	updater FlagUpdater
	metrics *metric.Metrics
	healthM *health.Monitor
	logger  *slog.Logger

	// Lifecycle
	shutdown    chan struct{}
	done        chan struct{}
	started     bool
	lifecycleMu sync.Mutex

	polling  atomic.Bool
	inFlight atomic.Bool

	// Status
	mu           sync.RWMutex
	startTime    time.Time
	lastCycle    time.Time
	cycles       int64
	documents    int64
	flagFailures int64
	recentErrors []string

	// Event fan-out
	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHealthMonitor attaches a health monitor.
func WithHealthMonitor(h *health.Monitor) Option {
	return func(s *Service) { s.healthM = h }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a monitor service.
func New(cfg Config, source DocumentSource, store GraphStore, updater FlagUpdater, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Service", "New", "document source is required")
	}
	if store == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Service", "New", "graph store is required")
	}
	if updater == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Service", "New", "flag updater is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	s := &Service{
		cfg:     cfg,
		source:  source,
		store:   store,
		updater: updater,
		subs:    make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "monitor")
	return s, nil
}

// Initialize verifies both dependencies are reachable, retrying so a
// freshly deployed stack has time to come up.
func (s *Service) Initialize(ctx context.Context) error {
	if err := retry.Do(ctx, retry.Persistent(), func() error {
		return s.source.Ping(ctx)
	}); err != nil {
		s.setDependencyHealth("source", err)
		return errors.WrapTransient(err, "Service", "Initialize", "document source unreachable")
	}
	s.setDependencyHealth("source", nil)

	if err := retry.Do(ctx, retry.Persistent(), func() error {
		return s.store.Ping(ctx)
	}); err != nil {
		s.setDependencyHealth("graph", err)
		return errors.WrapTransient(err, "Service", "Initialize", "graph store unreachable")
	}
	s.setDependencyHealth("graph", nil)

	s.logger.Info("dependencies reachable")
	return nil
}

// Start launches the polling loop. Safe to call once per lifecycle.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.started {
		return errors.Wrap(errors.ErrAlreadyStarted, "Service", "Start", "monitor")
	}

	s.shutdown = make(chan struct{})
	s.done = make(chan struct{})
	s.started = true
	s.polling.Store(!s.cfg.StartPaused)

	s.mu.Lock()
	s.startTime = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		if s.polling.Load() {
			s.metrics.MonitorRunning.Set(1)
		} else {
			s.metrics.MonitorRunning.Set(0)
		}
	}

	go s.loop(ctx)

	s.publish(Event{Kind: "started", Message: "monitor started"})
	s.logger.Info("monitor started",
		"interval", s.cfg.Interval, "batch_size", s.cfg.BatchSize, "paused", s.cfg.StartPaused)
	return nil
}

// Stop shuts the polling loop down, waiting up to timeout for the current
// cycle to finish.
func (s *Service) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.started {
		return errors.Wrap(errors.ErrNotStarted, "Service", "Stop", "monitor")
	}

	close(s.shutdown)
	select {
	case <-s.done:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"Service", "Stop", "graceful shutdown")
	}

	s.started = false
	s.polling.Store(false)
	if s.metrics != nil {
		s.metrics.MonitorRunning.Set(0)
	}
	s.publish(Event{Kind: "stopped", Message: "monitor stopped"})
	s.logger.Info("monitor stopped")
	return nil
}

// Pause suspends the polling loop without shutting it down. Manual runs
// remain available.
func (s *Service) Pause() bool {
	was := s.polling.Swap(false)
	if was {
		if s.metrics != nil {
			s.metrics.MonitorRunning.Set(0)
		}
		s.publish(Event{Kind: "paused", Message: "polling paused"})
		s.logger.Info("polling paused")
	}
	return was
}

// Resume restarts a paused polling loop.
func (s *Service) Resume() bool {
	was := s.polling.Swap(true)
	if !was {
		if s.metrics != nil {
			s.metrics.MonitorRunning.Set(1)
		}
		s.publish(Event{Kind: "resumed", Message: "polling resumed"})
		s.logger.Info("polling resumed")
	}
	return !was
}

// Polling reports whether the loop is actively processing ticks.
func (s *Service) Polling() bool {
	return s.polling.Load()
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			if !s.polling.Load() {
				continue
			}
			if _, err := s.RunOnce(ctx, RunOptions{}); err != nil {
				if stderrors.Is(err, errors.ErrBatchInFlight) {
					continue
				}
				s.logger.Error("cycle failed", "error", err)
			}
		}
	}
}

// RunOnce executes one fetch-extract-commit-mark cycle. Only one batch may
// be in flight; concurrent callers get ErrBatchInFlight.
func (s *Service) RunOnce(ctx context.Context, opts RunOptions) (*Report, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.Wrap(errors.ErrBatchInFlight, "Service", "RunOnce", "batch already running")
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	report, err := s.runCycle(ctx, opts)
	if report != nil {
		report.Duration = time.Since(start)
	}

	s.recordCycle(report, err)
	return report, err
}

func (s *Service) runCycle(ctx context.Context, opts RunOptions) (*Report, error) {
	docs, err := s.source.FetchUnprocessed(ctx, opts.Entity, s.cfg.BatchSize)
	if err != nil {
		s.setDependencyHealth("source", err)
		return nil, errors.Wrap(err, "Service", "runCycle", "fetch")
	}
	s.setDependencyHealth("source", nil)
	if s.metrics != nil {
		s.metrics.DocumentsFetched.Add(float64(len(docs)))
	}

	report := &Report{
		ID:       uuid.NewString(),
		Fetched:  len(docs),
		Entities: make(map[string]int),
		DryRun:   opts.DryRun,
	}
	if len(docs) == 0 {
		return report, nil
	}

	batch := extract.Extract(docs, s.cfg.KeyOptions)
	report.Skipped = len(batch.Skipped)
	report.Nodes = len(batch.Transaction.Set)
	report.Lookups = len(batch.Transaction.Lookups)
	for _, result := range batch.Results {
		for _, t := range result.Types {
			report.Entities[t.String()]++
		}
	}
	if s.metrics != nil {
		s.metrics.DocumentsSkipped.Add(float64(report.Skipped))
		for name, n := range report.Entities {
			s.metrics.EntitiesExtracted.WithLabelValues(name).Add(float64(n))
		}
	}
	for _, id := range batch.Skipped {
		s.logger.Warn("document skipped, missing title", "doc_id", id)
	}

	if len(batch.Results) == 0 {
		return report, nil
	}

	if opts.DryRun {
		payload, err := batch.Transaction.Payload()
		if err != nil {
			return report, errors.Wrap(err, "Service", "runCycle", "dry-run payload")
		}
		report.Transaction = payload
		if err := s.store.WriteSnapshot(batch.Transaction); err != nil {
			return report, errors.Wrap(err, "Service", "runCycle", "dry-run snapshot")
		}
		s.logger.Info("dry run assembled",
			"documents", len(batch.Results), "nodes", report.Nodes, "lookups", report.Lookups)
		return report, nil
	}

	result, err := s.store.Mutate(ctx, batch.Transaction)
	if err != nil {
		s.setDependencyHealth("graph", err)
		if s.metrics != nil {
			s.metrics.CommitFailures.Inc()
		}
		// Commit failed: no flags move, the whole batch stays eligible.
		return report, errors.Wrap(err, "Service", "runCycle", "commit")
	}
	s.setDependencyHealth("graph", nil)
	if s.metrics != nil {
		s.metrics.BatchNodes.Observe(float64(result.Nodes))
	}

	marked := batch.Results
	if opts.Entity != "" {
		marked = restrictToTarget(batch.Results, opts.Entity)
	}
	outcome, err := s.updater.MarkBatch(ctx, marked)
	if err != nil {
		return report, errors.Wrap(err, "Service", "runCycle", "mark batch")
	}
	report.Marked = outcome.Marked
	report.FlagFailures = len(outcome.Failed)
	if s.metrics != nil {
		s.metrics.DocumentsProcessed.Add(float64(outcome.Marked))
		s.metrics.FlagUpdateFailures.Add(float64(len(outcome.Failed)))
	}

	s.logger.Info("cycle committed",
		"cycle_id", report.ID,
		"documents", len(batch.Results),
		"nodes", report.Nodes,
		"created", len(result.Created),
		"marked", outcome.Marked,
		"flag_failures", len(outcome.Failed))
	return report, nil
}

// restrictToTarget narrows each result's flag set to the targeted type, so
// a targeted run flips only that type's flag. Documents where the type was
// not detected are dropped entirely; their flags stay untouched.
func restrictToTarget(results []extract.Result, target entity.Type) []extract.Result {
	out := make([]extract.Result, 0, len(results))
	for _, result := range results {
		for _, t := range result.Types {
			if t == target {
				narrowed := result
				narrowed.Types = []entity.Type{target}
				out = append(out, narrowed)
				break
			}
		}
	}
	return out
}

func (s *Service) recordCycle(report *Report, err error) {
	s.mu.Lock()
	s.cycles++
	s.lastCycle = time.Now()
	if report != nil {
		s.documents += int64(report.Marked)
		s.flagFailures += int64(report.FlagFailures)
	}
	if err != nil {
		s.recentErrors = append(s.recentErrors, err.Error())
		if len(s.recentErrors) > recentErrorsKept {
			s.recentErrors = s.recentErrors[len(s.recentErrors)-recentErrorsKept:]
		}
	}
	s.mu.Unlock()

	outcome := "success"
	switch {
	case err != nil:
		outcome = "failure"
	case report != nil && report.Fetched == 0:
		outcome = "empty"
	}
	if s.metrics != nil {
		s.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
		if report != nil {
			s.metrics.CycleDuration.Observe(report.Duration.Seconds())
		}
	}

	if err != nil {
		s.publish(Event{Kind: "error", Message: err.Error()})
		return
	}
	if report != nil && report.Fetched > 0 {
		s.publish(Event{
			Kind:    "cycle",
			Message: fmt.Sprintf("processed %d documents", report.Marked),
			Report:  report,
		})
	}
}

// Status returns a point-in-time snapshot of monitor state.
func (s *Service) Status() Snapshot {
	s.lifecycleMu.Lock()
	started := s.started
	s.lifecycleMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	errs := make([]string, len(s.recentErrors))
	copy(errs, s.recentErrors)

	return Snapshot{
		Started:      started,
		Polling:      s.polling.Load(),
		InFlight:     s.inFlight.Load(),
		StartTime:    s.startTime,
		LastCycle:    s.lastCycle,
		Cycles:       s.cycles,
		Documents:    s.documents,
		FlagFailures: s.flagFailures,
		RecentErrors: errs,
	}
}

// SourceStats proxies the document source's progress counters.
func (s *Service) SourceStats(ctx context.Context) (docindex.Stats, error) {
	return s.source.Stats(ctx)
}

// Health aggregates dependency health into a pipeline status.
func (s *Service) Health() health.Status {
	if s.healthM == nil {
		return health.NewHealthy("pipeline", "no health monitor attached")
	}
	return s.healthM.AggregateHealth("pipeline")
}

// Subscribe registers an event channel. The returned cancel function must
// be called to release it. Slow subscribers drop events rather than block
// the pipeline.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Service) publish(event Event) {
	event.Time = time.Now()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *Service) setDependencyHealth(name string, err error) {
	if s.metrics != nil {
		up := 0.0
		if err == nil {
			up = 1.0
		}
		switch name {
		case "source":
			s.metrics.SourceUp.Set(up)
		case "graph":
			s.metrics.StoreUp.Set(up)
		}
	}

	if s.healthM != nil {
		s.healthM.Update(name, health.FromError(name, err))
	}
}
