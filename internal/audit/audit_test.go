package audit

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewEventStampsTimeAndDetails(t *testing.T) {
	e := NewEvent(KindTelemetryBlock, nil)
	if e.Kind != KindTelemetryBlock {
		t.Errorf("kind wrong: %s", e.Kind)
	}
	if e.Details == nil {
		t.Error("nil details must be normalized to an empty map")
	}
	if time.Since(e.Timestamp) > time.Minute {
		t.Error("timestamp not set to now")
	}
}

func TestMemorySinkCollectsAndCounts(t *testing.T) {
	sink := &MemorySink{}
	sink.Emit(NewEvent(KindCrossOriginBlock, map[string]string{"operation": "read"}))
	sink.Emit(NewEvent(KindTelemetryBlock, nil))
	sink.Emit(NewEvent(KindTelemetryBlock, nil))

	if sink.Count("") != 3 {
		t.Errorf("expected 3 events, got %d", sink.Count(""))
	}
	if sink.Count(KindTelemetryBlock) != 2 {
		t.Errorf("expected 2 telemetry-block events, got %d", sink.Count(KindTelemetryBlock))
	}
	if got := sink.Events(); got[0].Details["operation"] != "read" {
		t.Errorf("event details lost: %v", got[0])
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &MemorySink{}
	b := &CountSink{}
	m := MultiSink{a, b}

	m.Emit(NewEvent(KindGovernanceBlock, nil))

	if a.Count(KindGovernanceBlock) != 1 || b.Count(KindGovernanceBlock) != 1 {
		t.Error("event not delivered to every sink")
	}
}

func TestDiscardDropsSilently(t *testing.T) {
	Discard.Emit(NewEvent("anything", nil))
}

func TestTrailSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")
	sink, err := OpenTrail(path)
	if err != nil {
		t.Fatalf("open trail: %v", err)
	}

	sink.Emit(NewEvent(KindCrossOriginBlock, map[string]string{"source_origin": "a", "target_origin": "b"}))
	sink.Emit(NewEvent(KindObjectCreated, map[string]string{"id": "obj-1"}))

	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	events, err := ReadTrail(path)
	if err != nil {
		t.Fatalf("read trail: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != KindCrossOriginBlock || events[0].Details["source_origin"] != "a" {
		t.Errorf("first event wrong: %+v", events[0])
	}
	if events[1].Kind != KindObjectCreated {
		t.Errorf("second event wrong: %+v", events[1])
	}
}

func TestTrailSinkAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")

	for i := 0; i < 2; i++ {
		sink, err := OpenTrail(path)
		if err != nil {
			t.Fatal(err)
		}
		sink.Emit(NewEvent(KindTelemetryBlock, nil))
		sink.Close()
	}

	events, err := ReadTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected trail to append across opens, got %d events", len(events))
	}
}

func TestTrailSinkConcurrentEmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")
	sink, err := OpenTrail(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	const emitters = 8
	for i := 0; i < emitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				sink.Emit(NewEvent(KindGovernanceBlock, nil))
			}
		}()
	}
	wg.Wait()
	sink.Close()

	events, err := ReadTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events)+int(sink.Dropped()) != emitters*10 {
		t.Errorf("expected %d events accounted for, got %d written + %d dropped",
			emitters*10, len(events), sink.Dropped())
	}
}

func TestEmitAfterCloseDropsInsteadOfPanicking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")
	sink, err := OpenTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	sink.Emit(NewEvent(KindTelemetryBlock, nil))
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	sink.Emit(NewEvent(KindGovernanceBlock, nil))
	sink.Emit(NewEvent(KindGovernanceBlock, nil))

	if got := sink.Dropped(); got != 2 {
		t.Errorf("expected 2 post-close emissions counted as dropped, got %d", got)
	}
	events, err := ReadTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("expected only the pre-close event on disk, got %d", len(events))
	}
}

func TestEmitRacingClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")
	sink, err := OpenTrail(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sink.Emit(NewEvent(KindCrossOriginBlock, nil))
			}
		}()
	}
	sink.Close()
	wg.Wait()

	events, err := ReadTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events)+int(sink.Dropped()) != 4*50 {
		t.Errorf("expected every emission written or dropped, got %d written + %d dropped",
			len(events), sink.Dropped())
	}
}

func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")
	sink, err := OpenTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second close must be a no-op, got %v", err)
	}
}
