// Package seal wraps guarded operations with per-domain policy enforcement
// and audit emission. A seal binds one resolved policy and one audit sink;
// every denial emits an audit event, so no refusal is silent.
package seal

import (
	"fmt"
	"strconv"

	"atlaswatch/internal/audit"
	"atlaswatch/internal/policy"
)

// BlockedError is returned when a guarded operation is denied by policy.
type BlockedError struct {
	Operation string
	Domain    string
	Reason    string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocked for domain %q: %s", e.Operation, e.Domain, e.Reason)
}

// Seal guards operations under one resolved runtime policy.
type Seal struct {
	policy policy.RuntimePolicy
	sink   audit.Sink
}

// New creates a seal from a resolved policy and an audit sink. A nil sink
// discards events.
func New(p policy.RuntimePolicy, sink audit.Sink) *Seal {
	if sink == nil {
		sink = audit.Discard
	}
	return &Seal{policy: p, sink: sink}
}

// ForDomain resolves the domain's policy from the registry and seals it.
func ForDomain(reg *policy.Registry, domain string, sink audit.Sink) *Seal {
	return New(reg.PolicyFor(domain), sink)
}

// Policy returns the bound policy.
func (s *Seal) Policy() policy.RuntimePolicy { return s.policy }

// GuardCrossOrigin denies cross-origin introspection unless the policy
// allows it. On denial it emits a cross-origin-block event carrying the
// operation and both origins.
func (s *Seal) GuardCrossOrigin(operation, sourceOrigin, targetOrigin string) error {
	if s.policy.AllowCrossOriginIntrospection {
		return nil
	}

	s.sink.Emit(audit.NewEvent(audit.KindCrossOriginBlock, map[string]string{
		"domain":        s.policy.Domain,
		"operation":     operation,
		"source_origin": sourceOrigin,
		"target_origin": targetOrigin,
	}))

	return &BlockedError{
		Operation: operation,
		Domain:    s.policy.Domain,
		Reason:    "cross-origin introspection disallowed by policy",
	}
}

// GuardTelemetry reports whether the named SDK may perform the action.
// Telemetry disabled outright emits a telemetry-block event; an SDK missing
// from the allow-list emits a telemetry-sdk-block event. Both denial paths
// are audited uniformly.
func (s *Seal) GuardTelemetry(sdkName, action string) bool {
	if !s.policy.AllowTelemetry {
		s.sink.Emit(audit.NewEvent(audit.KindTelemetryBlock, map[string]string{
			"domain": s.policy.Domain,
			"sdk":    sdkName,
			"action": action,
		}))
		return false
	}

	if !s.policy.SDKAllowed(sdkName) {
		s.sink.Emit(audit.NewEvent(audit.KindTelemetrySDKBlock, map[string]string{
			"domain": s.policy.Domain,
			"sdk":    sdkName,
			"action": action,
		}))
		return false
	}

	return true
}

func (s *Seal) emitCreated(obj *ARObject, modeLabel string) {
	s.sink.Emit(audit.NewEvent(audit.KindObjectCreated, map[string]string{
		"domain": s.policy.Domain,
		"id":     obj.ID,
		"owner":  obj.Owner,
		"kind":   string(obj.Kind),
		"mode":   modeLabel,
		"tags":   strconv.Itoa(len(obj.PolicyTags)),
	}))
}
