// Package metrics exposes reading and degradation counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "woflstrology"

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Readings          *prometheus.CounterVec
	ReadingDuration   *prometheus.HistogramVec
	GeocodeFallbacks  prometheus.Counter
	BodiesUnavailable *prometheus.CounterVec
	ContentMissing    *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Readings generated, by report kind.",
		}, []string{"kind"}),
		ReadingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reading_duration_seconds",
			Help:      "Time to generate a reading, by report kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		GeocodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_fallbacks_total",
			Help:      "Place lookups that fell back to the default location.",
		}),
		BodiesUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bodies_unavailable_total",
			Help:      "Bodies omitted from a chart because no source could place them.",
		}, []string{"body"}),
		ContentMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_missing_total",
			Help:      "Advice lookups answered with placeholder text.",
		}, []string{"category"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Scheduled readings pushed to chat, by outcome.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.Readings, m.ReadingDuration, m.GeocodeFallbacks,
		m.BodiesUnavailable, m.ContentMissing, m.Deliveries)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ReadingGenerated(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Readings.WithLabelValues(kind).Inc()
	m.ReadingDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) GeocodeFallback() {
	if m == nil {
		return
	}
	m.GeocodeFallbacks.Inc()
}

func (m *Metrics) BodyUnavailable(body string) {
	if m == nil {
		return
	}
	m.BodiesUnavailable.WithLabelValues(body).Inc()
}

func (m *Metrics) ContentMiss(category string) {
	if m == nil {
		return
	}
	m.ContentMissing.WithLabelValues(category).Inc()
}

func (m *Metrics) Delivery(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.Deliveries.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}
