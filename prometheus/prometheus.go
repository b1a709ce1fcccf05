// Package prometheus exports stream metrics through the Prometheus client
// library.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/trickle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trickle"

const readHeaderTimeout = 10 * time.Second

// Metrics holds the collectors shared by every stream.
type Metrics struct {
	registry  *prometheus.Registry
	bytes     *prometheus.CounterVec
	deltas    *prometheus.CounterVec
	malformed *prometheus.CounterVec
	streams   *prometheus.CounterVec
}

// New creates a registry with stream collectors plus Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received_bytes_total",
			Help:      "Bytes read from response bodies.",
		}, []string{"provider"}),
		deltas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_total",
			Help:      "Text deltas appended to replies.",
		}, []string{"provider"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Frames dropped because they could not be parsed.",
		}, []string{"provider"}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Streams by outcome (completed, failed, cancelled).",
		}, []string{"provider", "outcome"}),
	}
	m.registry.MustRegister(m.bytes, m.deltas, m.malformed, m.streams)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observer returns a [trickle.Observer] that records under the given
// provider label.
func (m *Metrics) Observer(provider string) trickle.Observer {
	return &observer{m: m, provider: provider}
}

// Handler returns an http.Handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type observer struct {
	m        *Metrics
	provider string
}

var _ trickle.Observer = (*observer)(nil)

func (o *observer) ObserveChunk(n int) {
	o.m.bytes.WithLabelValues(o.provider).Add(float64(n))
}

func (o *observer) ObserveDelta(string) {
	o.m.deltas.WithLabelValues(o.provider).Inc()
}

func (o *observer) ObserveMalformed(error) {
	o.m.malformed.WithLabelValues(o.provider).Inc()
}

func (o *observer) ObserveEnd(status trickle.Status, err error) {
	o.m.streams.WithLabelValues(o.provider, outcome(status, err)).Inc()
}

func outcome(status trickle.Status, err error) string {
	if status == trickle.StatusFailed && trickle.IsCancelled(err) {
		return "cancelled"
	}
	return status.String()
}
