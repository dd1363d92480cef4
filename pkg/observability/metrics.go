package observability

import (
	"net/http"

	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by engine hooks.
type Metrics struct {
	Steps       *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Passes      *prometheus.CounterVec
	PassSteps   *prometheus.HistogramVec
	PathLength  *prometheus.HistogramVec
	PathCost    *prometheus.HistogramVec
	Frontier    *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors under namespace (default "stepgrid").
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stepgrid"
	}
	return &Metrics{
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of engine steps that did work.",
		}, []string{"algorithm"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Engine status transitions.",
		}, []string{"from", "to"}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Finished passes by terminal status.",
		}, []string{"algorithm", "status"}),
		PassSteps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_steps",
			Help:      "Steps taken by finished passes.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 12),
		}, []string{"algorithm"}),
		PathLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_length_cells",
			Help:      "Cells on found paths, endpoints included.",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
		}, []string{"algorithm"}),
		PathCost: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_cost",
			Help:      "Summed weight of found paths.",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 16),
		}, []string{"algorithm"}),
		Frontier: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frontier_size",
			Help:      "Frontier size observed after each search step.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"algorithm"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Steps, m.Transitions, m.Passes, m.PassSteps, m.PathLength, m.PathCost, m.Frontier}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(e *domain.StepEvent) {
			algo := string(e.Algorithm)
			m.Steps.WithLabelValues(algo).Inc()
			if e.Status == domain.StatusRunning {
				m.Frontier.WithLabelValues(algo).Observe(float64(e.FrontierSize))
			}
		},
		OnStatusChange: func(e *domain.StatusEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			if !e.To.Terminal() {
				return
			}
			algo := string(e.Algorithm)
			m.Passes.WithLabelValues(algo, string(e.To)).Inc()
			m.PassSteps.WithLabelValues(algo).Observe(float64(e.Steps))
			if e.To == domain.StatusPathDone {
				m.PathLength.WithLabelValues(algo).Observe(float64(e.PathLength))
				m.PathCost.WithLabelValues(algo).Observe(float64(e.PathCost))
			}
		},
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
