package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector publishes streaming metrics.
type PrometheusCollector struct {
	sessionsActive   prometheus.Gauge
	connectionsTotal prometheus.Counter

	framesCaptured  *prometheus.CounterVec
	framesDelivered *prometheus.CounterVec
	qualitySwitches *prometheus.CounterVec

	rttMs          prometheus.Histogram
	encodeDuration prometheus.Histogram
}

// NewPrometheusCollector registers and returns the collector.
func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "deskcast_sessions_active",
			Help: "Number of active viewer sessions",
		}),

		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskcast_connections_total",
			Help: "Total number of WebRTC connections established",
		}),

		framesCaptured: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deskcast_frames_captured_total",
			Help: "Total frames captured from the screen",
		}, []string{"preset"}),

		framesDelivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deskcast_frames_delivered_total",
			Help: "Total frames written to peer connections",
		}, []string{"preset"}),

		qualitySwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deskcast_quality_switches_total",
			Help: "Adaptive quality tier switches",
		}, []string{"from", "to"}),

		rttMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deskcast_viewer_rtt_milliseconds",
			Help:    "Viewer round-trip time reports",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800},
		}),

		encodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deskcast_frame_encode_duration_seconds",
			Help:    "Time spent encoding a single frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (p *PrometheusCollector) SessionOpened() {
	p.sessionsActive.Inc()
	p.connectionsTotal.Inc()
}

func (p *PrometheusCollector) SessionClosed() {
	p.sessionsActive.Dec()
}

func (p *PrometheusCollector) FrameCaptured(preset string) {
	p.framesCaptured.WithLabelValues(preset).Inc()
}

func (p *PrometheusCollector) FrameDelivered(preset string) {
	p.framesDelivered.WithLabelValues(preset).Inc()
}

func (p *PrometheusCollector) QualitySwitched(from, to string) {
	p.qualitySwitches.WithLabelValues(from, to).Inc()
}

func (p *PrometheusCollector) ObserveRTT(rttMs float64) {
	p.rttMs.Observe(rttMs)
}

func (p *PrometheusCollector) ObserveEncode(d time.Duration) {
	p.encodeDuration.Observe(d.Seconds())
}
