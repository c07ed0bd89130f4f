package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromSink records engine activity in Prometheus metrics.
type PromSink struct {
	sequences   *prometheus.CounterVec
	seqDuration prometheus.Histogram
	improvement prometheus.Histogram
	iterations  prometheus.Histogram
	schedules   *prometheus.CounterVec
	makespan    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		sequences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsched_sequence_runs_total",
			Help: "Total number of sequence optimizations",
		}, []string{"success", "converged"}),
		seqDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsched_sequence_duration_seconds",
			Help:    "Wall time of sequence optimizations",
			Buckets: prometheus.DefBuckets,
		}),
		improvement: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsched_sequence_improvement_percent",
			Help:    "Cost improvement over the input order",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsched_sequence_iterations",
			Help:    "ACO iterations run before stopping",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		schedules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsched_schedule_runs_total",
			Help: "Total number of scheduling runs",
		}, []string{"mode", "rule", "complete"}),
		makespan: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsched_schedule_makespan",
			Help:    "Makespan of produced schedules",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}, []string{"mode"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsched_action_errors_total",
			Help: "Rejected action calls by kind",
		}, []string{"action", "kind"}),
	}

	var err error
	if s.sequences, err = register(reg, s.sequences); err != nil {
		return nil, err
	}
	if s.seqDuration, err = register(reg, s.seqDuration); err != nil {
		return nil, err
	}
	if s.improvement, err = register(reg, s.improvement); err != nil {
		return nil, err
	}
	if s.iterations, err = register(reg, s.iterations); err != nil {
		return nil, err
	}
	if s.schedules, err = register(reg, s.schedules); err != nil {
		return nil, err
	}
	if s.makespan, err = register(reg, s.makespan); err != nil {
		return nil, err
	}
	if s.errors, err = register(reg, s.errors); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same type.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordSequence(ev SequenceEvent) error {
	s.sequences.WithLabelValues(strconv.FormatBool(ev.Success), strconv.FormatBool(ev.Converged)).Inc()
	s.seqDuration.Observe(ev.Duration.Seconds())
	if ev.Success {
		s.improvement.Observe(ev.Improvement)
		s.iterations.Observe(float64(ev.Iterations))
	}
	return nil
}

func (s *PromSink) RecordSchedule(ev ScheduleEvent) error {
	s.schedules.WithLabelValues(ev.Mode, ev.Rule, strconv.FormatBool(ev.Complete)).Inc()
	s.makespan.WithLabelValues(ev.Mode).Observe(ev.Makespan)
	return nil
}

func (s *PromSink) RecordActionError(action, kind string) error {
	s.errors.WithLabelValues(action, kind).Inc()
	return nil
}

// Handler exposes the metrics gathered by g. A nil gatherer uses the default.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
