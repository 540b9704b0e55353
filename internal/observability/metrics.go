package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles Prometheus metrics for the geometry engine
// and its HTTP surface, and provides a ready-to-serve /metrics
// handler.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests       *prometheus.CounterVec
	RecomputeDurations prometheus.Histogram

	ScenePoles      prometheus.Gauge
	SceneSpans      prometheus.Gauge
	SceneViolations prometheus.Gauge
}

// NewEngineCollector registers engine Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridscaper_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "status"})
	requests, err := registerCounterVec(reg, requests, "gridscaper_http_requests_total")
	if err != nil {
		return nil, err
	}

	// Recomputes run once per user interaction and should stay in
	// low single-digit milliseconds for typical scenes.
	durations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridscaper_recompute_duration_seconds",
		Help:    "Full scene recompute latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	})
	durations, err = registerHistogram(reg, durations, "gridscaper_recompute_duration_seconds")
	if err != nil {
		return nil, err
	}

	poles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridscaper_scene_poles",
		Help: "Current number of poles in the scene.",
	}), "gridscaper_scene_poles")
	if err != nil {
		return nil, err
	}
	spans, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridscaper_scene_spans",
		Help: "Current number of spans in the scene.",
	}), "gridscaper_scene_spans")
	if err != nil {
		return nil, err
	}
	violations, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridscaper_scene_clearance_violations",
		Help: "Number of spans violating the clearance threshold after the last recompute.",
	}), "gridscaper_scene_clearance_violations")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:           gatherer,
		HTTPRequests:       requests,
		RecomputeDurations: durations,
		ScenePoles:         poles,
		SceneSpans:         spans,
		SceneViolations:    violations,
	}, nil
}

// ObserveRequest records one handled HTTP request.
func (c *EngineCollector) ObserveRequest(route, method string, status int) {
	if c == nil || c.HTTPRequests == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// ObserveRecompute satisfies the scene.MetricsRecorder interface.
func (c *EngineCollector) ObserveRecompute(d time.Duration) {
	if c == nil || c.RecomputeDurations == nil {
		return
	}
	c.RecomputeDurations.Observe(d.Seconds())
}

// SetSceneCounts satisfies the scene.MetricsRecorder interface so the
// scene store can drive gauge values directly from its mutators.
func (c *EngineCollector) SetSceneCounts(poles, spans, violations int) {
	if c == nil {
		return
	}
	if c.ScenePoles != nil {
		c.ScenePoles.Set(float64(poles))
	}
	if c.SceneSpans != nil {
		c.SceneSpans.Set(float64(spans))
	}
	if c.SceneViolations != nil {
		c.SceneViolations.Set(float64(violations))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
