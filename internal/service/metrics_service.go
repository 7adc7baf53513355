package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService instruments call handling with Prometheus collectors.
type MetricsService struct {
	registry     *prometheus.Registry
	handler      http.Handler
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	stepRetries  prometheus.Counter
}

// NewMetricsService registers the call collectors. activeCalls is polled for
// the live-session gauge; pass nil to skip it.
func NewMetricsService(activeCalls func() float64) *MetricsService {
	registry := prometheus.NewRegistry()

	callsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ivr_calls_total",
		Help: "Completed calls by flow and outcome",
	}, []string{"flow", "outcome"})

	callDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ivr_call_duration_seconds",
		Help:    "Call duration from answer to hangup",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
	}, []string{"flow"})

	stepRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ivr_step_retries_total",
		Help: "Input collections rejected by grammar or allow-list",
	})

	registry.MustRegister(callsTotal, callDuration, stepRetries)

	if activeCalls != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ivr_active_calls",
			Help: "Call sessions currently in progress",
		}, activeCalls))
	}

	return &MetricsService{
		registry:     registry,
		handler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		callsTotal:   callsTotal,
		callDuration: callDuration,
		stepRetries:  stepRetries,
	}
}

// ObserveCall records one finished call.
func (m *MetricsService) ObserveCall(flow, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(flow, outcome).Inc()
	m.callDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

// ObserveRetry records one rejected input.
func (m *MetricsService) ObserveRetry() {
	if m == nil {
		return
	}
	m.stepRetries.Inc()
}

// Handler exposes the registry for the /metrics route.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}
