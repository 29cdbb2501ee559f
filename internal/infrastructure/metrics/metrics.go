package metrics

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// Metrics метрики конвейера детекции в собственном реестре Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	submissions  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	skippedTicks prometheus.Counter
	discarded    *prometheus.CounterVec
	detections   *prometheus.CounterVec

	reachable atomic.Bool
}

// New создаёт и регистрирует все коллекторы.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fatigue_submissions_total",
			Help: "Detection requests sent to the inference service",
		}, []string{"source", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fatigue_submission_latency_seconds",
			Help:    "Round-trip latency of detection requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"source"}),
		skippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fatigue_autodetect_ticks_skipped_total",
			Help: "Auto-detect ticks skipped because a request was still in flight",
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fatigue_results_discarded_total",
			Help: "Results dropped before reaching the panel",
		}, []string{"reason"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fatigue_detections_total",
			Help: "Accepted detection results by predicted class",
		}, []string{"class", "source"}),
	}

	m.registry.MustRegister(m.submissions, m.latency, m.skippedTicks, m.discarded, m.detections)
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fatigue_inference_reachable",
			Help: "Inference service reachability (0=unreachable, 1=reachable)",
		},
		func() float64 {
			if m.reachable.Load() {
				return 1
			}
			return 0
		},
	))

	return m
}

func (m *Metrics) ObserveSubmission(source entity.Source, outcome string, latencySeconds float64) {
	m.submissions.WithLabelValues(string(source), outcome).Inc()
	m.latency.WithLabelValues(string(source)).Observe(latencySeconds)
}

func (m *Metrics) TickSkipped() {
	m.skippedTicks.Inc()
}

func (m *Metrics) ResultDiscarded(reason string) {
	m.discarded.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetReachable(reachable bool) {
	m.reachable.Store(reachable)
}

// Publish считает принятые результаты по классам.
func (m *Metrics) Publish(_ context.Context, record entity.DetectionRecord) error {
	m.detections.WithLabelValues(string(record.Result.PredictedClass), string(record.Source)).Inc()
	return nil
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр для дополнительных коллекторов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var (
	_ port.Recorder   = (*Metrics)(nil)
	_ port.ResultSink = (*Metrics)(nil)
)
