// Package metrics provides Prometheus instrumentation for companions.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the Prometheus registry and every companion metric.
// A disabled Manager accepts all calls and records nothing.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	interactions       *prometheus.CounterVec
	emotionTransitions *prometheus.CounterVec
	bondingLevel       *prometheus.GaugeVec
	energyLevel        *prometheus.GaugeVec
	driftTicks         prometheus.Counter
	persistOps         *prometheus.CounterVec
	persistDuration    *prometheus.HistogramVec
	loadedCompanions   prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	PersistDurationBuckets []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		Port:                   9091,
		Path:                   "/metrics",
		PersistDurationBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}
	if len(cfg.PersistDurationBuckets) == 0 {
		cfg.PersistDurationBuckets = DefaultConfig().PersistDurationBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "companion_interactions_total",
			Help: "Total number of processed interactions by resulting emotional state",
		},
		[]string{"emotion"},
	)
	m.emotionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "companion_emotion_transitions_total",
			Help: "Emotional state changes",
		},
		[]string{"from", "to"},
	)
	m.bondingLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "companion_bonding_level",
			Help: "Current bonding level per companion identity",
		},
		[]string{"identity"},
	)
	m.energyLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "companion_energy_level",
			Help: "Current energy level per companion identity",
		},
		[]string{"identity"},
	)
	m.driftTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "companion_drift_ticks_total",
			Help: "Total number of applied drift ticks",
		},
	)
	m.persistOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "companion_persist_operations_total",
			Help: "Persistence operations by kind and status",
		},
		[]string{"op", "status"},
	)
	m.persistDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "companion_persist_duration_seconds",
			Help:    "Persistence operation duration in seconds",
			Buckets: cfg.PersistDurationBuckets,
		},
		[]string{"op"},
	)
	m.loadedCompanions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "companion_loaded",
			Help: "Number of companion identities held in memory",
		},
	)

	registry.MustRegister(
		m.interactions,
		m.emotionTransitions,
		m.bondingLevel,
		m.energyLevel,
		m.driftTicks,
		m.persistOps,
		m.persistDuration,
		m.loadedCompanions,
	)

	return m
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Registry exposes the underlying registry, nil when disabled.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordInteraction records one processed interaction.
func (m *Manager) RecordInteraction(identity, from, to string, bonding float64) {
	if !m.enabled {
		return
	}
	m.interactions.WithLabelValues(to).Inc()
	if from != to {
		m.emotionTransitions.WithLabelValues(from, to).Inc()
	}
	m.bondingLevel.WithLabelValues(identity).Set(bonding)
}

// RecordDrift records one drift tick.
func (m *Manager) RecordDrift(identity string, energy float64) {
	if !m.enabled {
		return
	}
	m.driftTicks.Inc()
	m.energyLevel.WithLabelValues(identity).Set(energy)
}

// RecordPersist records a persistence operation outcome.
func (m *Manager) RecordPersist(op string, duration time.Duration, err error) {
	if !m.enabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.persistOps.WithLabelValues(op, status).Inc()
	m.persistDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ForgetIdentity removes per-identity series after a reset.
func (m *Manager) ForgetIdentity(identity string) {
	if !m.enabled {
		return
	}
	m.bondingLevel.DeleteLabelValues(identity)
	m.energyLevel.DeleteLabelValues(identity)
}

// SetLoaded sets the number of in-memory companions.
func (m *Manager) SetLoaded(n int) {
	if !m.enabled {
		return
	}
	m.loadedCompanions.Set(float64(n))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves the metrics endpoint until ctx is cancelled.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Metrics] Error shutting down metrics server: %v", err)
		}
	}()

	log.Printf("[Metrics] Serving on :%d%s", port, path)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
