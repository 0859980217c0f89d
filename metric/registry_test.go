package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry.CoreMetrics())
	require.NotNil(t, registry.PrometheusRegistry())

	// Core metrics are live immediately.
	registry.CoreMetrics().DocumentsFetched.Add(3)
	assert.Equal(t, float64(3),
		testutil.ToFloat64(registry.CoreMetrics().DocumentsFetched))

	registry.CoreMetrics().EntitiesExtracted.WithLabelValues("judges").Inc()
	assert.Equal(t, float64(1),
		testutil.ToFloat64(registry.CoreMetrics().EntitiesExtracted.WithLabelValues("judges")))
}

func TestMetricsRegistry_Register(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "test_component_total",
		Help:      "test counter",
	})

	require.NoError(t, registry.Register("gateway", "requests", counter))
	assert.Error(t, registry.Register("gateway", "requests", counter),
		"duplicate keys are rejected")

	assert.True(t, registry.Unregister("gateway", "requests"))
	assert.False(t, registry.Unregister("gateway", "requests"))
}

func TestMetricsRegistry_CoreMetricsGathered(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().CyclesTotal.WithLabelValues("success").Inc()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["lawgraph_pipeline_cycles_total"])
	assert.True(t, names["go_goroutines"], "runtime collectors are registered")
}
