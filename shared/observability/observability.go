// Package observability wires tracing and prometheus metrics
package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "maeum-toegeun/backend"

// SetupTracing installs a stdout span exporter as the global tracer provider
func SetupTracing(serviceName string) (func(context.Context) error, error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// SetupMeterProvider exports otel metrics through the default prometheus registry
func SetupMeterProvider() (*metric.MeterProvider, error) {
	exp, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Tracer returns the module tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}

// Metrics are the service level prometheus collectors
type Metrics struct {
	ChatLatency     *prometheus.HistogramVec
	StreamFragments prometheus.Counter
	StreamOutcomes  *prometheus.CounterVec
	CircuitState    *prometheus.GaugeVec
	Activities      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when non-nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChatLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "maeum",
			Name:      "chat_latency_seconds",
			Help:      "Latency of generative-text calls by mode and outcome.",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 15, 30},
		}, []string{"mode", "outcome"}),
		StreamFragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "maeum",
			Name:      "stream_fragments_total",
			Help:      "Text fragments decoded from provider streams.",
		}),
		StreamOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maeum",
			Name:      "stream_outcomes_total",
			Help:      "Decoded streams by terminal outcome.",
		}, []string{"outcome"}),
		CircuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "maeum",
			Name:      "circuit_open",
			Help:      "1 while the named circuit is open or half-open.",
		}, []string{"name"}),
		Activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maeum",
			Name:      "activities_total",
			Help:      "Recorded user activities by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.ChatLatency, m.StreamFragments, m.StreamOutcomes, m.CircuitState, m.Activities)
	}
	return m
}

// SetCircuit records whether the circuit is open
func (m *Metrics) SetCircuit(name string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitState.WithLabelValues(name).Set(v)
}
