package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aqmap"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	refreshTotal      *prometheus.CounterVec
	refreshDuration   prometheus.Histogram
	readings          prometheus.Gauge
	labels            prometheus.Gauge
	markers           *prometheus.GaugeVec
	mqttPublishErrors prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Snapshot refreshes by outcome.",
		}, []string{"status"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time to fetch readings and build marker layers.",
			Buckets:   prometheus.DefBuckets,
		}),
		readings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_readings",
			Help:      "Readings in the current snapshot.",
		}),
		labels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_labels",
			Help:      "Text labels after position deduplication.",
		}),
		markers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_markers",
			Help:      "Markers in the current snapshot by air quality band.",
		}, []string{"band"}),
		mqttPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_errors_total",
			Help:      "Failed snapshot publications.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.refreshTotal,
		m.refreshDuration,
		m.readings,
		m.labels,
		m.markers,
		m.mqttPublishErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests by the matched ServeMux pattern. Requests that
// matched nothing are reported under "unmatched".
func (m *Metrics) WrapHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRefresh records one refresh attempt and, on success or failure
// alike, the shape of the snapshot now being served.
func (m *Metrics) ObserveRefresh(status string, d time.Duration, readings, labels int, bands map[string]int) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(status).Inc()
	m.refreshDuration.Observe(d.Seconds())
	m.readings.Set(float64(readings))
	m.labels.Set(float64(labels))
	m.markers.Reset()
	for band, n := range bands {
		m.markers.WithLabelValues(band).Set(float64(n))
	}
}

func (m *Metrics) MQTTPublishFailed() {
	if m == nil {
		return
	}
	m.mqttPublishErrors.Inc()
}
