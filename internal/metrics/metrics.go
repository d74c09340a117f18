package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Tracks the number of HTTP requests.",
	})

	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Tracks the latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	})

	postMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_post_mutations_total",
		Help: "Post inserts, updates and deletes accepted by the document store.",
	}, []string{"op"})

	blobOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_blob_operations_total",
		Help: "Blob uploads and deletes.",
	}, []string{"op"})

	liveSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "xclone_live_subscriptions",
		Help: "Open live post subscriptions.",
	})

	snapshotsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "xclone_live_snapshots_total",
		Help: "Full snapshots delivered to live subscriptions.",
	})
)

// Registry собирает реестр со всеми метриками сервиса.
func Registry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		postMutations,
		blobOps,
		liveSubscriptions,
		snapshotsDelivered,
	)
	return registry
}

// Handler отдает метрики реестра в формате Prometheus.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Middleware считает запросы и их длительность. /metrics не учитывается.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		requestsTotal.Inc()

		next.ServeHTTP(w, r)

		requestDuration.Observe(time.Since(start).Seconds())
	})
}

func PostMutation(op string) { postMutations.WithLabelValues(op).Inc() }

func BlobOperation(op string) { blobOps.WithLabelValues(op).Inc() }

func SubscriptionOpened() { liveSubscriptions.Inc() }

func SubscriptionClosed() { liveSubscriptions.Dec() }

func SnapshotDelivered() { snapshotsDelivered.Inc() }
