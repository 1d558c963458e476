package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StreamMetrics counts batch-sanitising activity.
type StreamMetrics struct {
	Documents   prometheus.Counter
	ParseErrors prometheus.Counter
	Duration    prometheus.Histogram
}

// NewStreamMetrics creates and registers the processor's collectors.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	m := &StreamMetrics{
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweetwash_documents_total",
			Help: "Number of JSON documents read from the input stream.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweetwash_parse_errors_total",
			Help: "Number of documents that failed to parse and were emitted as error objects.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tweetwash_sanitise_duration_seconds",
			Help:    "Per-document sanitise latency.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	reg.MustRegister(m.Documents, m.ParseErrors, m.Duration)
	return m
}

// ServeMetrics exposes /metrics for the given registry on addr and returns a
// shutdown function. Listen failures are logged, not fatal: metrics are a
// best-effort companion to the batch run.
func ServeMetrics(addr string, reg *prometheus.Registry) func(context.Context) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           newMetricsHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()

	return server.Shutdown
}

// newMetricsHandler builds the scrape endpoint, traced like any other HTTP
// surface of the process.
func newMetricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return otelhttp.NewHandler(mux, "metrics")
}
