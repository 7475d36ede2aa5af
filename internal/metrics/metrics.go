package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	productsEnriched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skubridge_products_enriched_total",
			Help: "Products processed by the enricher, by outcome.",
		},
		[]string{"site", "result"},
	)
	batchFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skubridge_batch_flushes_total",
			Help: "Batches handed to the store writer.",
		},
		[]string{"site"},
	)
	batchFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skubridge_batch_flush_duration_seconds",
			Help:    "Histogram of batch read-merge-write durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"site"},
	)
	upstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skubridge_upstream_retries_total",
			Help: "Retried upstream catalog requests.",
		},
		[]string{"site"},
	)
)

func init() {
	prometheus.MustRegister(productsEnriched)
	prometheus.MustRegister(batchFlushes)
	prometheus.MustRegister(batchFlushDuration)
	prometheus.MustRegister(upstreamRetries)
}

func RecordEnriched(site string, ok bool) {
	result := "success"
	if !ok {
		result = "failed"
	}
	productsEnriched.WithLabelValues(site, result).Inc()
}

func RecordBatchFlush(site string, duration time.Duration) {
	batchFlushes.WithLabelValues(site).Inc()
	batchFlushDuration.WithLabelValues(site).Observe(duration.Seconds())
}

func RecordUpstreamRetry(site string) {
	upstreamRetries.WithLabelValues(site).Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
