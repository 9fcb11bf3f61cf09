// Package metrics exposes Prometheus collectors for bridge attempts and
// adapter invocations.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nimusd"

// Metrics bundles the collectors. A nil *Metrics is valid and records
// nothing, so callers never need to guard.
type Metrics struct {
	registry           *prometheus.Registry
	Attempts           *prometheus.CounterVec
	AttemptDuration    *prometheus.HistogramVec
	Invocations        *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
}

// New constructs a registry with the nimusd collectors and the standard Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_attempts_total",
		Help:      "Outbound NIM completion attempts by outcome and HTTP status",
	}, []string{"outcome", "status"})

	attemptDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bridge_attempt_duration_seconds",
		Help:      "Duration of single NIM completion attempts",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"outcome"})

	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invocations_total",
		Help:      "Tool invocations by operation and outcome",
	}, []string{"operation", "outcome"})

	invocationDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "invocation_duration_seconds",
		Help:      "End-to-end tool invocation duration",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"operation"})

	reg.MustRegister(
		attempts, attemptDur, invocations, invocationDur,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:           reg,
		Attempts:           attempts,
		AttemptDuration:    attemptDur,
		Invocations:        invocations,
		InvocationDuration: invocationDur,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordAttempt counts one bridge attempt. status is 0 when no HTTP
// response was received.
func (m *Metrics) RecordAttempt(outcome string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.Attempts.WithLabelValues(outcome, code).Inc()
	m.AttemptDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordInvocation counts one adapter invocation.
func (m *Metrics) RecordInvocation(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.Invocations.WithLabelValues(op, outcome).Inc()
	m.InvocationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format, plus a
// /healthz probe.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if m != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("metrics listener: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	return nil
}
