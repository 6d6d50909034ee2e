// Package audit provides the append-only decision trail. Every stage
// invocation produces one Record; records flow through a bounded queue to
// one or more sinks so concurrent requests never interleave entries.
package audit

import (
	"context"
	"time"
)

// Record is one audited pipeline decision.
type Record struct {
	RequestID string    `json:"request_id"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink consumes audit records (file, database, etc.). Implementations must
// serialize their own writes.
type Sink interface {
	Name() string
	Deliver(context.Context, *Record) error
	Close(context.Context) error
}

// Metrics holds counters for audit delivery.
type Metrics struct {
	enqueued uint64
	dropped  uint64

	sinkSuccess map[string]uint64
	sinkFailure map[string]uint64
}

// Snapshot copies the counters for observation/testing.
func (m *Metrics) Snapshot() Metrics {
	if m == nil {
		return Metrics{}
	}
	out := Metrics{
		enqueued:    m.enqueued,
		dropped:     m.dropped,
		sinkSuccess: make(map[string]uint64, len(m.sinkSuccess)),
		sinkFailure: make(map[string]uint64, len(m.sinkFailure)),
	}
	for k, v := range m.sinkSuccess {
		out.sinkSuccess[k] = v
	}
	for k, v := range m.sinkFailure {
		out.sinkFailure[k] = v
	}
	return out
}

// Public accessors for metrics.
func (m *Metrics) Enqueued() uint64 { return m.enqueued }
func (m *Metrics) Dropped() uint64  { return m.dropped }
func (m *Metrics) SinkSuccess(name string) uint64 {
	if m == nil {
		return 0
	}
	return m.sinkSuccess[name]
}
func (m *Metrics) SinkFailure(name string) uint64 {
	if m == nil {
		return 0
	}
	return m.sinkFailure[name]
}
