package match

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for matcher calls.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	calls       *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates matcher metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anyutils",
				Subsystem: "match",
				Name:      "calls_total",
				Help:      "Total number of match calls",
			},
			[]string{"op", "status"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anyutils",
				Subsystem: "match",
				Name:      "evaluations_total",
				Help:      "Total number of (text, pattern) evaluations",
			},
			[]string{"result"}, // "match" / "nomatch" / "error"
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "anyutils",
				Subsystem: "match",
				Name:      "call_duration_seconds",
				Help:      "Match call duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{m.calls, m.evaluations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCall(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.calls.WithLabelValues(op, status).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeEval(matched bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.evaluations.WithLabelValues("error").Inc()
	case matched:
		m.evaluations.WithLabelValues("match").Inc()
	default:
		m.evaluations.WithLabelValues("nomatch").Inc()
	}
}
