package metrics

import (
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// OutcomeEvent is one resolved ride request to be recorded.
type OutcomeEvent struct {
	Outcome model.Outcome
	// Latency is the time spent matching and completing the request.
	Latency time.Duration
	Time    time.Time
}

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordOutcome(ev OutcomeEvent) error
}

// FleetSizeRecorder records the number of registered vehicles.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// Closer is implemented by sinks holding buffers or connections that must be
// flushed on shutdown.
type Closer interface {
	Close()
}

// Close closes sink when it implements Closer.
func Close(sink MetricsSink) {
	if c, ok := sink.(Closer); ok {
		c.Close()
	}
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordOutcome(OutcomeEvent) error { return nil }

// Ensure NopSink implements FleetSizeRecorder.
func (NopSink) RecordFleetSize(int) error { return nil }

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOutcome forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordOutcome(ev OutcomeEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordOutcome(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSize forwards fleet size metrics when supported by the sink.
func (m *MultiSink) RecordFleetSize(size int) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing Closer.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}
