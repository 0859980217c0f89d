package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/lawgraph/errors"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "LAWGRAPH"

// Config is the complete pipeline configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source" json:"source"`
	Graph      GraphConfig      `yaml:"graph" json:"graph"`
	Monitor    MonitorConfig    `yaml:"monitor" json:"monitor"`
	Gateway    GatewayConfig    `yaml:"gateway" json:"gateway"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// SourceConfig configures the document source connection.
type SourceConfig struct {
	URL      string `yaml:"url" json:"url"`
	Index    string `yaml:"index" json:"index"`
	Username string `yaml:"username" json:"username,omitempty"`
	Password string `yaml:"password" json:"-"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// PageSize is the scroll page size.
	PageSize int `yaml:"page_size" json:"page_size"`

	// DocumentSchema is an optional JSON schema applied to fetched
	// documents; failures skip the document.
	DocumentSchema string `yaml:"document_schema" json:"document_schema,omitempty"`
}

// GraphConfig configures the graph store connection.
type GraphConfig struct {
	URL     string `yaml:"url" json:"url"`
	Timeout int    `yaml:"timeout" json:"timeout"`

	// SnapshotPath receives the last transaction payload when set.
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path,omitempty"`

	// ApplySchema applies the store schema on startup.
	ApplySchema bool `yaml:"apply_schema" json:"apply_schema"`
}

// MonitorConfig configures the polling loop.
type MonitorConfig struct {
	// Interval is the poll interval in seconds.
	Interval int `yaml:"interval" json:"interval"`

	// BatchSize bounds documents per cycle.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// StartPaused brings the service up without the polling loop running.
	StartPaused bool `yaml:"start_paused" json:"start_paused"`
}

// GatewayConfig configures the HTTP control surface.
type GatewayConfig struct {
	Addr string `yaml:"addr" json:"addr"`

	// ProcessRatePerMinute limits manual process-now requests.
	ProcessRatePerMinute int `yaml:"process_rate_per_minute" json:"process_rate_per_minute"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// ExtractionConfig configures entity extraction.
type ExtractionConfig struct {
	// FoldCaseKeys lowercases natural keys before hashing, merging
	// entities that differ only in case.
	FoldCaseKeys bool `yaml:"fold_case_keys" json:"fold_case_keys"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:      "http://localhost:9200",
			Index:    "judgments",
			Timeout:  30,
			PageSize: 100,
		},
		Graph: GraphConfig{
			URL:         "http://localhost:8080",
			Timeout:     30,
			ApplySchema: true,
		},
		Monitor: MonitorConfig{
			Interval:  60,
			BatchSize: 100,
		},
		Gateway: GatewayConfig{
			Addr:                 ":8090",
			ProcessRatePerMinute: 6,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9091",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration: defaults, then the YAML file when path is
// non-empty, then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "config", "Load", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse "+path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "source.url")
	}
	if c.Source.Index == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "source.index")
	}
	if c.Graph.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "graph.url")
	}
	if c.Monitor.Interval <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"monitor.interval must be positive")
	}
	if c.Monitor.BatchSize <= 0 || c.Monitor.BatchSize > 10000 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"monitor.batch_size must be between 1 and 10000")
	}
	if c.Gateway.Addr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "gateway.addr")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"logging.format must be json or text")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"logging.level must be debug, info, warn or error")
	}
	return nil
}

// applyEnvOverrides copies LAWGRAPH_* variables over the loaded values.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Source.URL, "SOURCE_URL")
	setString(&cfg.Source.Index, "SOURCE_INDEX")
	setString(&cfg.Source.Username, "SOURCE_USERNAME")
	setString(&cfg.Source.Password, "SOURCE_PASSWORD")
	setInt(&cfg.Source.Timeout, "SOURCE_TIMEOUT")
	setInt(&cfg.Source.PageSize, "SOURCE_PAGE_SIZE")

	setString(&cfg.Graph.URL, "GRAPH_URL")
	setInt(&cfg.Graph.Timeout, "GRAPH_TIMEOUT")
	setString(&cfg.Graph.SnapshotPath, "GRAPH_SNAPSHOT_PATH")
	setBool(&cfg.Graph.ApplySchema, "GRAPH_APPLY_SCHEMA")

	setInt(&cfg.Monitor.Interval, "MONITOR_INTERVAL")
	setInt(&cfg.Monitor.BatchSize, "MONITOR_BATCH_SIZE")
	setBool(&cfg.Monitor.StartPaused, "MONITOR_START_PAUSED")

	setString(&cfg.Gateway.Addr, "GATEWAY_ADDR")
	setInt(&cfg.Gateway.ProcessRatePerMinute, "GATEWAY_PROCESS_RATE")

	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	setString(&cfg.Metrics.Addr, "METRICS_ADDR")

	setBool(&cfg.Extraction.FoldCaseKeys, "EXTRACTION_FOLD_CASE")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + "_" + key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + "_" + key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + "_" + key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
