// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Message types as they appear in the "type" label.
const (
	TypeStatus = "status"
	TypeImage  = "image"
)

// Session end reasons as they appear in the "reason" label.
const (
	ReasonClosed   = "closed"
	ReasonError    = "error"
	ReasonShutdown = "shutdown"
)

// Metrics holds every collector the streamer exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	bytesSent       *prometheus.CounterVec
	imageReadErrors prometheus.Counter
	mirrorErrors    *prometheus.CounterVec
	catalogSize     prometheus.Gauge
}

// New builds the collectors on a private registry.
// Go runtime and process collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dronesim_sessions_active",
			Help: "Number of connected streaming sessions.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dronesim_sessions_total",
			Help: "Total sessions accepted.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dronesim_sessions_ended_total",
			Help: "Sessions that reached the terminal state, by reason.",
		}, []string{"reason"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dronesim_messages_sent_total",
			Help: "Messages written to clients, by message type.",
		}, []string{"type"}),
		bytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dronesim_message_bytes_sent_total",
			Help: "Encoded message bytes written to clients, by message type.",
		}, []string{"type"}),
		imageReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dronesim_image_read_errors_total",
			Help: "Image files that could not be read during rotation.",
		}),
		mirrorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dronesim_mirror_errors_total",
			Help: "Failed status mirror deliveries, by sink.",
		}, []string{"sink"}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dronesim_images_discovered",
			Help: "Image files discovered at startup.",
		}),
	}

	m.registry.MustRegister(
		m.sessionsActive,
		m.sessionsTotal,
		m.sessionsEnded,
		m.messagesSent,
		m.bytesSent,
		m.imageReadErrors,
		m.mirrorErrors,
		m.catalogSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
	m.sessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) MessageSent(msgType string, size int) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(msgType).Inc()
	m.bytesSent.WithLabelValues(msgType).Add(float64(size))
}

func (m *Metrics) ImageReadFailed() {
	if m == nil {
		return
	}
	m.imageReadErrors.Inc()
}

func (m *Metrics) MirrorFailed(sink string) {
	if m == nil {
		return
	}
	m.mirrorErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.catalogSize.Set(float64(n))
}
