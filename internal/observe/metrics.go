// Package observe holds the Prometheus metrics shared by the commands.
package observe

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "energy_profile_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls     *prometheus.CounterVec
	toolLatency   *prometheus.HistogramVec
	pvgisRequests *prometheus.CounterVec
	pvgisLatency  prometheus.Histogram
	rowsLoaded    prometheus.Counter
	rowsReshaped  prometheus.Counter
	chatClients   prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tool_calls_total",
				Help: "Total tool invocations by tool and result",
			},
			[]string{"tool", "result"},
		),
		toolLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "tool_latency_seconds",
				Help:    "Tool execution latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		pvgisRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pvgis_requests_total",
				Help: "Total PVGIS requests by result",
			},
			[]string{"result"},
		),
		pvgisLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pvgis_latency_seconds",
				Help:    "PVGIS request latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		rowsLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "wide_rows_loaded_total",
				Help: "Total wide rows read from meter exports",
			},
		),
		rowsReshaped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_reshaped_total",
				Help: "Total narrow readings produced by reshaping",
			},
		),
		chatClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "chat_clients",
				Help: "Connected chat WebSocket clients",
			},
		),
	}
	m.registry.MustRegister(
		m.toolCalls, m.toolLatency,
		m.pvgisRequests, m.pvgisLatency,
		m.rowsLoaded, m.rowsReshaped,
		m.chatClients,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ToolCall records one tool execution.
func (m *Metrics) ToolCall(tool string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, result(err)).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(d.Seconds())
}

// PVGISRequest records one upstream call.
func (m *Metrics) PVGISRequest(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.pvgisRequests.WithLabelValues(result(err)).Inc()
	m.pvgisLatency.Observe(d.Seconds())
}

// Prepared records a load and reshape run.
func (m *Metrics) Prepared(wideRows, readings int) {
	if m == nil {
		return
	}
	m.rowsLoaded.Add(float64(wideRows))
	m.rowsReshaped.Add(float64(readings))
}

func (m *Metrics) ClientConnected() {
	if m != nil {
		m.chatClients.Inc()
	}
}

func (m *Metrics) ClientDisconnected() {
	if m != nil {
		m.chatClients.Dec()
	}
}
