package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "judgments", cfg.Source.Index)
	assert.Equal(t, 60, cfg.Monitor.Interval)
	assert.True(t, cfg.Graph.ApplySchema)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  url: http://es.internal:9200
  index: caselaw
monitor:
  interval: 15
  batch_size: 50
extraction:
  fold_case_keys: true
logging:
  level: debug
  format: text
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://es.internal:9200", cfg.Source.URL)
	assert.Equal(t, "caselaw", cfg.Source.Index)
	assert.Equal(t, 15, cfg.Monitor.Interval)
	assert.Equal(t, 50, cfg.Monitor.BatchSize)
	assert.True(t, cfg.Extraction.FoldCaseKeys)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, ":8090", cfg.Gateway.Addr)
	assert.Equal(t, 30, cfg.Source.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/lawgraph.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LAWGRAPH_SOURCE_URL", "http://override:9200")
	t.Setenv("LAWGRAPH_MONITOR_BATCH_SIZE", "25")
	t.Setenv("LAWGRAPH_GRAPH_APPLY_SCHEMA", "false")
	t.Setenv("LAWGRAPH_EXTRACTION_FOLD_CASE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://override:9200", cfg.Source.URL)
	assert.Equal(t, 25, cfg.Monitor.BatchSize)
	assert.False(t, cfg.Graph.ApplySchema)
	assert.True(t, cfg.Extraction.FoldCaseKeys)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  index: from_file\n"), 0o644))
	t.Setenv("LAWGRAPH_SOURCE_INDEX", "from_env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Source.Index, "environment wins over the file layer")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing source url", func(c *Config) { c.Source.URL = "" }},
		{"missing index", func(c *Config) { c.Source.Index = "" }},
		{"missing graph url", func(c *Config) { c.Graph.URL = "" }},
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }},
		{"batch size too large", func(c *Config) { c.Monitor.BatchSize = 20000 }},
		{"missing gateway addr", func(c *Config) { c.Gateway.Addr = "" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
