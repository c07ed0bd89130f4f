package metrics

import "time"

// SequenceEvent describes one optimize-sequence call.
type SequenceEvent struct {
	Features    int
	Success     bool
	Converged   bool
	Iterations  int
	Cost        float64
	Improvement float64
	Duration    time.Duration
}

// ScheduleEvent describes one schedule-operations call.
type ScheduleEvent struct {
	Mode     string
	Rule     string
	Jobs     int
	Makespan float64
	Complete bool
	Duration time.Duration
}

// Sink records engine activity for observability purposes. Implementations
// must be safe for concurrent use.
type Sink interface {
	RecordSequence(ev SequenceEvent) error
	RecordSchedule(ev ScheduleEvent) error
	RecordActionError(action, kind string) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSequence(SequenceEvent) error     { return nil }
func (NopSink) RecordSchedule(ScheduleEvent) error     { return nil }
func (NopSink) RecordActionError(string, string) error { return nil }
