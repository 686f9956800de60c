package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/njchilds90/exactode"
)

// Solve outcomes as reported in the exactode_solves_total counter.
const (
	outcomeSolved   = "solved"
	outcomeNoFactor = "no_factor"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
)

type metrics struct {
	registry *prometheus.Registry
	solves   *prometheus.CounterVec
	duration prometheus.Histogram
	requests *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exactode",
			Name:      "solves_total",
			Help:      "Solves by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exactode",
			Name:      "solve_duration_seconds",
			Help:      "Wall time of completed solves.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exactode",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.solves,
		m.duration,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// outcome classifies a finished solve.
func outcome(solved bool, steps []exactode.Step) string {
	if solved {
		return outcomeSolved
	}
	if n := len(steps); n > 0 && steps[n-1].Title == exactode.TitleNoFactor {
		return outcomeNoFactor
	}
	return outcomeError
}
