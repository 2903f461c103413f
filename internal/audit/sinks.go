package audit

import (
	"sync"

	"github.com/rs/zerolog"
)

// MemorySink collects events in memory. Intended for tests and for CLI
// commands that print the trail after a run.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends the event.
func (s *MemorySink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of everything emitted so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Count returns how many events of the given kind were seen. Empty kind
// counts everything.
func (s *MemorySink) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == "" {
		return len(s.events)
	}
	n := 0
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// CountSink counts emissions per kind without retaining event bodies.
type CountSink struct {
	mu     sync.Mutex
	counts map[string]int
}

// Emit increments the counter for the event's kind.
func (s *CountSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[e.Kind]++
}

// Count returns the number of emissions seen for kind.
func (s *CountSink) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[kind]
}

// ZerologSink writes each event as one structured log line.
type ZerologSink struct {
	Logger zerolog.Logger
}

// Emit logs the event at info level with its details flattened into fields.
func (s ZerologSink) Emit(e Event) {
	ev := s.Logger.Info().Str("kind", e.Kind).Time("ts", e.Timestamp)
	for k, v := range e.Details {
		ev = ev.Str(k, v)
	}
	ev.Msg("audit")
}
