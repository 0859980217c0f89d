// Package main implements the entry point for the lawgraph pipeline.
// Lawgraph incrementally mirrors case-law documents from a search index
// into a knowledge graph: it polls for unprocessed documents, extracts
// typed entities, commits one atomic upsert per batch, and marks each
// document processed only after the commit lands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/lawgraph/config"
	"github.com/c360/lawgraph/docindex"
	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/extract"
	"github.com/c360/lawgraph/gateway"
	"github.com/c360/lawgraph/graphstore"
	"github.com/c360/lawgraph/health"
	"github.com/c360/lawgraph/metric"
	"github.com/c360/lawgraph/monitor"
	"github.com/c360/lawgraph/tracker"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "lawgraph"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	service, registry, healthMonitor, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cliCfg.Once {
		return runOnce(ctx, service, cliCfg)
	}

	return runWithSignalHandling(ctx, cfg, service, registry, healthMonitor, logger, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting lawgraph (case-law graph pipeline)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads configuration and applies log overrides
// from the command line.
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}

	return cfg, nil
}

// buildPipeline wires the document source, graph store, flag tracker, and
// monitor service together.
func buildPipeline(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*monitor.Service, *metric.MetricsRegistry, *health.Monitor, error) {
	registry := metric.NewMetricsRegistry()
	healthMonitor := health.NewMonitor()

	source, err := docindex.NewClient(docindex.Config{
		BaseURL:        cfg.Source.URL,
		Index:          cfg.Source.Index,
		Username:       cfg.Source.Username,
		Password:       cfg.Source.Password,
		Timeout:        time.Duration(cfg.Source.Timeout) * time.Second,
		PageSize:       cfg.Source.PageSize,
		DocumentSchema: cfg.Source.DocumentSchema,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create document source: %w", err)
	}

	store, err := graphstore.NewClient(graphstore.Config{
		BaseURL:      cfg.Graph.URL,
		Timeout:      time.Duration(cfg.Graph.Timeout) * time.Second,
		SnapshotPath: cfg.Graph.SnapshotPath,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create graph store: %w", err)
	}

	updater := tracker.New(source, logger)

	service, err := monitor.New(
		monitor.Config{
			Interval:    time.Duration(cfg.Monitor.Interval) * time.Second,
			BatchSize:   cfg.Monitor.BatchSize,
			KeyOptions:  extract.KeyOptions{FoldCase: cfg.Extraction.FoldCaseKeys},
			StartPaused: cfg.Monitor.StartPaused,
		},
		source, store, updater,
		monitor.WithMetrics(registry.CoreMetrics()),
		monitor.WithHealthMonitor(healthMonitor),
		monitor.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create monitor: %w", err)
	}

	slog.Info("Waiting for dependencies")
	if err := service.Initialize(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("initialize pipeline: %w", err)
	}

	if cfg.Graph.ApplySchema {
		slog.Info("Applying graph schema")
		if err := store.ApplySchema(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("apply graph schema: %w", err)
		}
	}

	return service, registry, healthMonitor, nil
}

// runOnce executes a single cycle, optionally targeting one entity type
// or suppressing the commit, then exits.
func runOnce(ctx context.Context, service *monitor.Service, cliCfg *CLIConfig) error {
	opts := monitor.RunOptions{DryRun: cliCfg.DryRun}
	if cliCfg.Entity != "" {
		target, err := entity.ParseType(cliCfg.Entity)
		if err != nil {
			return fmt.Errorf("invalid -entity: %w", err)
		}
		opts.Entity = target
	}

	report, err := service.RunOnce(ctx, opts)
	if err != nil {
		return fmt.Errorf("single cycle: %w", err)
	}

	if report.DryRun && len(report.Transaction) > 0 {
		fmt.Println(string(report.Transaction))
	}

	slog.Info("Cycle complete",
		"cycle_id", report.ID,
		"dry_run", report.DryRun,
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"marked", report.Marked,
		"nodes", report.Nodes,
		"lookups", report.Lookups,
		"duration", report.Duration)
	return nil
}

// runWithSignalHandling starts the monitor, gateway, and metrics server,
// then blocks until a shutdown signal arrives.
func runWithSignalHandling(
	ctx context.Context,
	cfg *config.Config,
	service *monitor.Service,
	registry *metric.MetricsRegistry,
	healthMonitor *health.Monitor,
	logger *slog.Logger,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	gw, err := gateway.New(gateway.Config{
		Addr:                 cfg.Gateway.Addr,
		ProcessRatePerMinute: cfg.Gateway.ProcessRatePerMinute,
	}, service, logger)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Addr, "/metrics", registry)
	}

	if err := service.Start(signalCtx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(gw.Start)
	if metricsServer != nil {
		group.Go(metricsServer.Start)
	}
	group.Go(func() error {
		<-groupCtx.Done()
		if err := gw.Stop(shutdownTimeout); err != nil {
			slog.Warn("Gateway shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Stop(); err != nil {
				slog.Warn("Metrics server shutdown error", "error", err)
			}
		}
		return nil
	})

	slog.Info("Lawgraph started",
		"gateway", cfg.Gateway.Addr,
		"metrics_enabled", cfg.Metrics.Enabled,
		"poll_interval_seconds", cfg.Monitor.Interval)

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := service.Stop(shutdownTimeout); err != nil {
		slog.Error("Monitor shutdown error", "error", err)
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	finalHealth := healthMonitor.AggregateHealth("pipeline")
	slog.Info("Lawgraph shutdown complete", "final_health", finalHealth.Status)
	return nil
}
