// Package governance composes environment qualification, live host resource
// state, and an object's governance tier and drift into one pass/fail
// consumption decision.
package governance

import (
	"fmt"

	"atlaswatch/internal/audit"
	"atlaswatch/internal/model"
)

// DriftBackstop is the fixed drift ceiling applied to governed objects. It
// is deliberately non-configurable and distinct from the profile's auto-use
// threshold: a hard backstop that still blocks unsafe auto-use even when a
// deployment profile is misconfigured with a looser threshold.
const DriftBackstop = 0.30

// EnvironmentQualifier answers whether the execution environment is
// safety-qualified for auto-use. Implemented by external collaborators.
type EnvironmentQualifier interface {
	SafetyQualified() bool
}

// QualifierFunc adapts a function to EnvironmentQualifier.
type QualifierFunc func() bool

// SafetyQualified calls f.
func (f QualifierFunc) SafetyQualified() bool { return f() }

// StaticQualifier is a fixed qualification answer, useful in tests and CLIs.
type StaticQualifier bool

// SafetyQualified returns the fixed answer.
func (q StaticQualifier) SafetyQualified() bool { return bool(q) }

// HostBudget is the live remaining-resource state of the host, queried and
// decremented by the caller; read-only from this package's perspective.
type HostBudget struct {
	RemainingEnergyJoules float64 `json:"remaining_energy_joules"`
	RemainingProteinGrams float64 `json:"remaining_protein_grams"`
}

// Positive reports whether both tracked dimensions have strictly positive
// remaining amounts.
func (h HostBudget) Positive() bool {
	return h.RemainingEnergyJoules > 0 && h.RemainingProteinGrams > 0
}

// Evaluate runs the ordered short-circuit governance chain:
//
//  1. the environment must report itself safety-qualified
//  2. both host resource dimensions must be strictly positive
//  3. ungoverned objects pass
//  4. governed objects pass only while drift stays at or below the backstop
func Evaluate(env EnvironmentQualifier, host HostBudget, obj model.VirtualObjectDescriptor) bool {
	ok, _ := EvaluateWithReason(env, host, obj)
	return ok
}

// EvaluateWithReason runs the chain and reports why a denial happened.
func EvaluateWithReason(env EnvironmentQualifier, host HostBudget, obj model.VirtualObjectDescriptor) (bool, string) {
	if env == nil || !env.SafetyQualified() {
		return false, "environment not safety-qualified"
	}
	if host.RemainingEnergyJoules <= 0 {
		return false, "host energy budget exhausted"
	}
	if host.RemainingProteinGrams <= 0 {
		return false, "host protein budget exhausted"
	}
	if !obj.Governance.Governed() {
		return true, ""
	}
	if obj.Drift.DriftScore > DriftBackstop {
		return false, fmt.Sprintf("drift %.2f exceeds governance backstop %.2f",
			obj.Drift.DriftScore, DriftBackstop)
	}
	return true, ""
}

// Gate evaluates the chain and emits a governance-block audit event on
// denial, keeping the no-silent-denial rule uniform across guards. A nil
// sink discards the event.
func Gate(env EnvironmentQualifier, host HostBudget, obj model.VirtualObjectDescriptor, sink audit.Sink) bool {
	ok, reason := EvaluateWithReason(env, host, obj)
	if !ok && sink != nil {
		sink.Emit(audit.NewEvent(audit.KindGovernanceBlock, map[string]string{
			"object_id":  obj.ID.String(),
			"governance": string(obj.Governance),
			"drift":      fmt.Sprintf("%.4f", obj.Drift.DriftScore),
			"reason":     reason,
		}))
	}
	return ok
}
