package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultTrailBuffer is the hand-off buffer size for TrailSink.
const DefaultTrailBuffer = 256

// TrailSink is an append-only JSONL audit trail on disk. Emission hands the
// event to a background writer through a buffered channel so guarded call
// sites never block on disk I/O; when the buffer is full the event is
// dropped and counted rather than stalling the caller.
//
// The trail is plain JSONL with no hash chaining: this system makes no
// cryptographic integrity claims about the audit log.
type TrailSink struct {
	path string
	ch   chan Event

	mu      sync.Mutex
	file    *os.File
	dropped uint64
	done    chan struct{}
	closed  bool
}

// OpenTrail opens (or creates) a JSONL trail file for appending.
func OpenTrail(path string) (*TrailSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open trail: %w", err)
	}

	s := &TrailSink{
		path: path,
		ch:   make(chan Event, DefaultTrailBuffer),
		file: file,
		done: make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// Emit hands the event to the background writer. Never blocks. Emitting
// against a closed sink is safe: the event is dropped and counted, the same
// as a full buffer, so guarded call sites racing shutdown never crash.
func (s *TrailSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped++
		return
	}
	select {
	case s.ch <- e:
	default:
		s.dropped++
	}
}

// Dropped returns how many events were discarded: buffer-full drops,
// emissions after Close, and events lost to write failures.
func (s *TrailSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close drains pending events, flushes, and closes the file. The closed
// flag is set under the same lock Emit sends under, so no send can land on
// the channel after it is closed.
func (s *TrailSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.ch)
	<-s.done

	return s.file.Close()
}

func (s *TrailSink) writeLoop() {
	defer close(s.done)
	for e := range s.ch {
		line, err := json.Marshal(e)
		if err != nil {
			s.countDrop()
			continue
		}
		if _, err := s.file.Write(append(line, '\n')); err != nil {
			s.countDrop()
		}
	}
	s.file.Sync()
}

func (s *TrailSink) countDrop() {
	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
}

// ReadTrail loads every event from a JSONL trail file. Intended for CLI
// inspection and tests.
func ReadTrail(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audit: read trail: %w", err)
	}

	var events []Event
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1
			if len(line) == 0 {
				continue
			}
			var e Event
			if err := json.Unmarshal(line, &e); err != nil {
				return nil, fmt.Errorf("audit: parse trail line: %w", err)
			}
			events = append(events, e)
		}
	}
	return events, nil
}
