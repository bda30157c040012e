package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resources the API exposes. Any other route is reported under ResourceOther.
const (
	ResourceContracts  = "contracts"
	ResourceAmendments = "amendments"
	ResourceSettings   = "settings"
	ResourceJobs       = "jobs"
	ResourceOther      = "other"
)

// Metrics holds the HTTP collectors of the contract API.
type Metrics struct {
	registry  *prometheus.Registry
	handler   http.Handler
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	inFlight  *prometheus.GaugeVec
	conflicts *prometheus.CounterVec
}

// NewMetrics builds a private registry with API and runtime collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_http_requests_total",
			Help: "HTTP requests by resource, method, route and status code.",
		}, []string{"resource", "method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gestao_http_request_duration_seconds",
			Help:    "HTTP request duration per resource and route.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"resource", "route"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gestao_http_in_flight_requests",
			Help: "Requests currently being served per resource.",
		}, []string{"resource"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_http_conflicts_total",
			Help: "Writes rejected with 409, usually a stale amendment version.",
		}, []string{"resource", "method"}),
	}
	registry.MustRegister(
		m.requests,
		m.latency,
		m.inFlight,
		m.conflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every request against the resource it addressed.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// The route is unknown until chi has matched, so in-flight uses the raw path.
		pathResource := ResourceFor(r.URL.Path)
		gauge := m.inFlight.WithLabelValues(pathResource)
		gauge.Inc()
		defer gauge.Dec()

		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)

		route := routePattern(r)
		resource := pathResource
		if route != "unknown" {
			resource = ResourceFor(route)
		}
		m.requests.WithLabelValues(resource, r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.latency.WithLabelValues(resource, route).Observe(time.Since(start).Seconds())
		if recorder.status == http.StatusConflict {
			m.conflicts.WithLabelValues(resource, r.Method).Inc()
		}
	})
}

// Registerer exposes the registry so other packages can add collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// ResourceFor maps a path or route pattern to its API resource.
func ResourceFor(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	switch first {
	case ResourceContracts:
		// Amendments nested under a contract are still amendment traffic.
		if strings.Contains(path, "/amendments") {
			return ResourceAmendments
		}
		return ResourceContracts
	case ResourceAmendments, ResourceSettings, ResourceJobs:
		return first
	default:
		return ResourceOther
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Route patterns are only complete after chi has routed the request.
func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
