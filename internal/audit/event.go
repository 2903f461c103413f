// Package audit defines the audit event vocabulary and the sink interface
// guarded operations emit through. The trail itself is append-only: events
// are never mutated or deleted once emitted.
package audit

import "time"

// Event kinds emitted by guard operations.
const (
	KindCrossOriginBlock  = "cross-origin-block"
	KindTelemetryBlock    = "telemetry-block"
	KindTelemetrySDKBlock = "telemetry-sdk-block"
	KindObjectCreated     = "ar-object-created"
	KindObjectCreateBlock = "object-create-block"
	KindGovernanceBlock   = "governance-block"
)

// Event is one audit trail entry.
type Event struct {
	Kind      string            `json:"kind"`
	Timestamp time.Time         `json:"ts"`
	Details   map[string]string `json:"details"`
}

// NewEvent builds an event stamped with the current UTC time.
func NewEvent(kind string, details map[string]string) Event {
	if details == nil {
		details = map[string]string{}
	}
	return Event{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}

// Sink receives audit events from guarded call sites. Implementations may be
// invoked concurrently and must not block the calling path; buffering or
// asynchronous hand-off is the sink's responsibility. The core never waits
// on audit delivery to decide pass/fail.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

// Emit delivers e to every sink.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
