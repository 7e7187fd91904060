package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photosearch",
			Name:      "ingest_total",
			Help:      "Total number of processed upload records",
		},
		[]string{"status"}, // indexed / retrieval_failed / detection_failed / index_failed / invalid
	)

	DetectionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photosearch",
			Name:      "detection_requests_total",
			Help:      "Total number of label detection requests",
		},
		[]string{"provider", "status"},
	)

	DetectionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photosearch",
			Name:      "detection_duration_seconds",
			Help:      "Label detection request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	IndexRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photosearch",
			Name:      "index_requests_total",
			Help:      "Total number of search index requests",
		},
		[]string{"op", "status"},
	)

	IndexRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photosearch",
			Name:      "index_request_duration_seconds",
			Help:      "Search index request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "photosearch",
			Name:      "search_results",
			Help:      "Number of photos returned per query",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	LabelCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photosearch",
			Name:      "label_cache_total",
			Help:      "Label cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestTotal)
	prometheus.MustRegister(DetectionRequestsTotal)
	prometheus.MustRegister(DetectionRequestDuration)
	prometheus.MustRegister(IndexRequestsTotal)
	prometheus.MustRegister(IndexRequestDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(LabelCacheTotal)
	pipelineMetricsRegistered = true
}
