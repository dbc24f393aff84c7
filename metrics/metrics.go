package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mindsurvey"

// Outcome labels for the predictions counter.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Registry owns the service's collectors. Each server gets its own registry
// so tests can build several without duplicate registration.
type Registry struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	duration    prometheus.Histogram
	unseen      *prometheus.CounterVec
	artifact    *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent handling prediction requests",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		unseen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unseen_categories_total",
			Help:      "Categorical values replaced by the sentinel at inference",
		}, []string{"column"}),
		artifact: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_info",
			Help:      "Loaded model artifact",
		}, []string{"format", "trained_at"}),
	}
	r.registry.MustRegister(
		r.predictions,
		r.duration,
		r.unseen,
		r.artifact,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) ObservePrediction(outcome string, elapsed time.Duration) {
	r.predictions.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Registry) UnseenCategory(column string) {
	r.unseen.WithLabelValues(column).Inc()
}

func (r *Registry) SetArtifact(format string, trainedAt time.Time) {
	r.artifact.Reset()
	r.artifact.WithLabelValues(format, trainedAt.UTC().Format(time.RFC3339)).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
