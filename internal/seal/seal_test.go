package seal

import (
	"errors"
	"testing"

	"atlaswatch/internal/audit"
	"atlaswatch/internal/model"
	"atlaswatch/internal/policy"
)

func sealWith(t *testing.T, p policy.RuntimePolicy) (*Seal, *audit.MemorySink) {
	t.Helper()
	sink := &audit.MemorySink{}
	return New(p, sink), sink
}

func TestGuardCrossOriginDenied(t *testing.T) {
	s, sink := sealWith(t, policy.Deny("app.example"))

	err := s.GuardCrossOrigin("read-top-window", "https://a.example", "https://b.example")

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.Domain != "app.example" {
		t.Errorf("expected domain app.example, got %s", blocked.Domain)
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Kind != audit.KindCrossOriginBlock {
		t.Fatalf("expected one cross-origin-block event, got %v", events)
	}
	d := events[0].Details
	if d["operation"] != "read-top-window" || d["source_origin"] != "https://a.example" || d["target_origin"] != "https://b.example" {
		t.Errorf("event details incomplete: %v", d)
	}
}

func TestGuardCrossOriginAllowed(t *testing.T) {
	p := policy.Deny("trusted.example")
	p.AllowCrossOriginIntrospection = true
	s, sink := sealWith(t, p)

	if err := s.GuardCrossOrigin("read-top-window", "a", "b"); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if sink.Count("") != 0 {
		t.Error("allowed operation must not emit audit events")
	}
}

func TestGuardTelemetryDisabledByPolicy(t *testing.T) {
	s, sink := sealWith(t, policy.Deny("app.example"))

	if s.GuardTelemetry("otel-go", "export-spans") {
		t.Fatal("telemetry disabled by policy must return false")
	}
	if sink.Count(audit.KindTelemetryBlock) != 1 {
		t.Errorf("expected one telemetry-block event, got %d", sink.Count(audit.KindTelemetryBlock))
	}
}

func TestGuardTelemetrySDKNotAllowListed(t *testing.T) {
	p := policy.Deny("app.example")
	p.AllowTelemetry = true
	p.AllowedSDKs = []string{"otel-go"}
	s, sink := sealWith(t, p)

	if s.GuardTelemetry("datadog-rum", "profile") {
		t.Fatal("SDK outside the allow-list must be denied")
	}
	// Both denial paths audit uniformly.
	if sink.Count(audit.KindTelemetrySDKBlock) != 1 {
		t.Errorf("expected one telemetry-sdk-block event, got %d", sink.Count(audit.KindTelemetrySDKBlock))
	}
	if sink.Count(audit.KindTelemetryBlock) != 0 {
		t.Error("allow-list miss must not emit telemetry-block")
	}
}

func TestGuardTelemetryAllowed(t *testing.T) {
	p := policy.Deny("app.example")
	p.AllowTelemetry = true
	p.AllowedSDKs = []string{"otel-go"}
	s, sink := sealWith(t, p)

	if !s.GuardTelemetry("otel-go", "export-spans") {
		t.Fatal("allow-listed SDK with telemetry enabled must pass")
	}
	if sink.Count("") != 0 {
		t.Error("allowed telemetry must not emit audit events")
	}
}

func TestCreateObjectPublicModeRequiresSafeTag(t *testing.T) {
	p := policy.Deny("plaza.example")
	p.CitizenMode = model.ModePublic
	s, sink := sealWith(t, p)

	_, err := s.CreateObject("obj-1", "bostrom1xyz", AROverlay, Geometry{}, []string{"ads:targeted"})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError in public mode without safe tags, got %v", err)
	}
	if sink.Count(audit.KindObjectCreateBlock) != 1 {
		t.Error("creation refusal must emit object-create-block")
	}
	if sink.Count(audit.KindObjectCreated) != 0 {
		t.Error("refused creation must not emit ar-object-created")
	}
}

func TestCreateObjectPublicModeWithSafeTag(t *testing.T) {
	p := policy.Deny("plaza.example")
	p.CitizenMode = model.ModePublic
	s, sink := sealWith(t, p)

	for _, tag := range []string{TagNonInvasive, TagLocalOnly} {
		obj, err := s.CreateObject("obj-1", "owner", ARMarker, Geometry{X: 1}, []string{tag})
		if err != nil {
			t.Fatalf("tag %s: expected creation to pass, got %v", tag, err)
		}
		if obj.CreatedAt.IsZero() {
			t.Error("created object must be timestamped")
		}
	}
	if sink.Count(audit.KindObjectCreated) != 2 {
		t.Errorf("expected two ar-object-created events, got %d", sink.Count(audit.KindObjectCreated))
	}
}

func TestCreateObjectPrivateModeUnrestricted(t *testing.T) {
	s, sink := sealWith(t, policy.Deny("home.example"))

	obj, err := s.CreateObject("obj-2", "owner", ARPortal, Geometry{}, nil)
	if err != nil {
		t.Fatalf("private mode creation must pass: %v", err)
	}
	if obj.Kind != ARPortal {
		t.Errorf("expected portal kind, got %s", obj.Kind)
	}
	if sink.Count(audit.KindObjectCreated) != 1 {
		t.Error("successful creation must emit ar-object-created")
	}
}

func TestAttachAnchorComputesLocalProof(t *testing.T) {
	s, _ := sealWith(t, policy.Deny("home.example"))

	obj, err := s.CreateObject("obj-3", "0x519f", ARSafetyBeacon, Geometry{X: 1, Y: 2, Z: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}

	AttachAnchor(obj, "bostrom", "tx-abc123")

	if obj.Anchor == nil {
		t.Fatal("anchor not attached")
	}
	if obj.Anchor.ChainID != "bostrom" || obj.Anchor.TxID != "tx-abc123" {
		t.Errorf("anchor fields wrong: %+v", obj.Anchor)
	}
	if obj.Anchor.LocalProofHex != obj.LocalProof() {
		t.Error("anchor proof must match the object's local proof")
	}
	if len(obj.Anchor.LocalProofHex) != 8 {
		t.Errorf("expected 8 hex chars, got %q", obj.Anchor.LocalProofHex)
	}
}

func TestLocalProofSensitiveToPosition(t *testing.T) {
	a := &ARObject{ID: "x", Owner: "o", Kind: ARMarker, Geometry: Geometry{X: 1}}
	b := &ARObject{ID: "x", Owner: "o", Kind: ARMarker, Geometry: Geometry{X: 2}}
	if a.LocalProof() == b.LocalProof() {
		t.Error("proof must change when position changes")
	}
}
