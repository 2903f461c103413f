// Package excavate drives the per-pass lifecycle for one extraction pass:
//
//	Discovered -> {deep-pass-admitted | shallow-only} ->
//	Classified{auto-use | show-with-warning | quarantine} ->
//	(if governance required) GovernanceGate{pass | block}
//
// Each pass is terminal; the next extraction pass restarts at Discovered,
// carrying forward the revision count and the prior drift baseline computed
// by the external diff engine.
package excavate

import (
	"context"
	"fmt"

	"atlaswatch/internal/audit"
	"atlaswatch/internal/gate"
	"atlaswatch/internal/governance"
	"atlaswatch/internal/ledger"
	"atlaswatch/internal/model"
)

// Phase marks how far a pass progressed.
type Phase string

const (
	PhaseDiscovered     Phase = "discovered"
	PhaseBudgetBlocked  Phase = "budget-blocked"
	PhaseClassified     Phase = "classified"
	PhaseGovernanceGate Phase = "governance-gate"
)

// PassInput is everything one extraction pass supplies: the descriptor, the
// freshly extracted payload, and the metrics the external diff engine
// computed against the prior snapshot.
type PassInput struct {
	Descriptor model.VirtualObjectDescriptor
	Payload    []byte
	Topology   *model.GraphTopologyStats
	Stability  model.StabilityMetrics
	Drift      model.DriftMetrics

	// Confidence in the extraction itself, in [0,1].
	Confidence float64

	// Deep-pass admission scores.
	ValueScore float64
	CostScore  float64

	// Observed run consumption for budget enforcement.
	Usage gate.Usage
}

// PassResult is the terminal outcome of one pass.
type PassResult struct {
	Phase            Phase                    `json:"phase"`
	BudgetViolations []string                 `json:"budget_violations,omitempty"`
	DeepPassAdmitted bool                     `json:"deep_pass_admitted"`
	Classification   model.Classification     `json:"classification,omitempty"`
	Excavation       *ledger.ExcavationResult `json:"excavation,omitempty"`
	GovernanceOK     bool                     `json:"governance_ok"`
	GovernanceReason string                   `json:"governance_reason,omitempty"`
	// AutoUse is the final verdict: classified auto-use, snapshot flagged
	// auto-use-allowed, and the governance gate (when required) passed.
	AutoUse bool `json:"auto_use"`
}

// Runner executes passes against one profile-bound gate and ledger.
type Runner struct {
	Gate   *gate.Gate
	Ledger *ledger.Ledger
	Env    governance.EnvironmentQualifier
	Host   governance.HostBudget
	Sink   audit.Sink
}

// RunPass executes one full extraction pass. Budget breaches halt the pass
// with the complete violation list in the result, not an error; errors are
// reserved for store failures, which propagate unchanged.
func (r *Runner) RunPass(ctx context.Context, in PassInput) (*PassResult, error) {
	result := &PassResult{Phase: PhaseDiscovered}

	if violations := r.Gate.EnforceBudgets(in.Usage); len(violations) > 0 {
		result.Phase = PhaseBudgetBlocked
		result.BudgetViolations = violations
		return result, nil
	}

	result.DeepPassAdmitted = r.Gate.ShouldEnterDeepPass(in.ValueScore, in.CostScore)
	result.Classification = r.Gate.Classify(in.Confidence, in.Drift.DriftScore)
	result.Phase = PhaseClassified

	exc, err := r.Ledger.ApplyExcavationUpdate(ctx, in.Descriptor, in.Payload, in.Topology, in.Stability, in.Drift)
	if err != nil {
		return nil, fmt.Errorf("record pass: %w", err)
	}
	result.Excavation = exc

	result.GovernanceOK = true
	if in.Descriptor.Governance.Governed() {
		result.Phase = PhaseGovernanceGate
		obj := exc.Object
		ok, reason := governance.EvaluateWithReason(r.Env, r.Host, obj)
		result.GovernanceOK = ok
		result.GovernanceReason = reason
		if !ok && r.Sink != nil {
			r.Sink.Emit(audit.NewEvent(audit.KindGovernanceBlock, map[string]string{
				"object_id":  obj.ID.String(),
				"governance": string(obj.Governance),
				"drift":      fmt.Sprintf("%.4f", obj.Drift.DriftScore),
				"reason":     reason,
			}))
		}
	}

	result.AutoUse = result.Classification == model.ClassAutoUse &&
		exc.Snapshot.AutoUseAllowed &&
		result.GovernanceOK

	return result, nil
}
