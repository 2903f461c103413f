// Package gate is the pure, stateless safety gate: budget enforcement,
// deep-pass admission, confidence/drift classification, and text redaction.
// Every function is safe for concurrent use from any number of callers.
package gate

import (
	"strings"
	"time"

	"atlaswatch/internal/model"
	"atlaswatch/internal/profile"
)

// Canonical budget names reported by EnforceBudgets.
const (
	ViolationNodeBudget      = "nodeBudget"
	ViolationTraceSpanBudget = "traceSpanBudget"
	ViolationDeepPassBudget  = "deepPassBudget"
	ViolationMaxRunSeconds   = "maxRunSeconds"
)

// DeepPassAdmissionMargin is the fixed value-minus-cost margin for deep-pass
// admission. It is independent of the profile: a cheap linear proxy that
// bounds how many objects enter the expensive deep-analysis stage without
// needing a full cost model.
const DeepPassAdmissionMargin = 0.25

// Usage is the observed consumption of one excavation run.
type Usage struct {
	Nodes          uint64
	Spans          uint64
	DeepCandidates uint64
	RunDuration    time.Duration
}

// Gate evaluates observations against one immutable profile.
type Gate struct {
	profile *profile.Profile
}

// New creates a gate bound to the given profile.
func New(p *profile.Profile) *Gate {
	if p == nil {
		p = profile.Default()
	}
	return &Gate{profile: p}
}

// Profile returns the bound profile.
func (g *Gate) Profile() *profile.Profile { return g.profile }

// EnforceBudgets checks every observed quantity against its configured
// budget independently and returns the complete set of violated budget
// names. It never short-circuits on the first violation, so a caller can
// report everything wrong in one pass. An empty result means all four
// quantities are within limits.
func (g *Gate) EnforceBudgets(usage Usage) []string {
	var violations []string

	if usage.Nodes > g.profile.NodeBudget {
		violations = append(violations, ViolationNodeBudget)
	}
	if usage.Spans > g.profile.TraceSpanBudget {
		violations = append(violations, ViolationTraceSpanBudget)
	}
	if usage.DeepCandidates > g.profile.DeepPassBudget {
		violations = append(violations, ViolationDeepPassBudget)
	}
	if usage.RunDuration > g.profile.MaxRunDuration {
		violations = append(violations, ViolationMaxRunSeconds)
	}

	return violations
}

// BudgetError carries the complete violation set from one budget check.
type BudgetError struct {
	Violations []string
}

func (e *BudgetError) Error() string {
	return "budgets breached: " + strings.Join(e.Violations, ", ")
}

// CheckStats folds EnforceBudgets into an error for callers that want a
// single pass/fail answer: nil when every budget holds, a *BudgetError
// naming every breached budget otherwise.
func (g *Gate) CheckStats(usage Usage) error {
	if violations := g.EnforceBudgets(usage); len(violations) > 0 {
		return &BudgetError{Violations: violations}
	}
	return nil
}

// ShouldEnterDeepPass decides whether an object is admitted into the
// expensive deep-analysis stage. Admission requires the value-minus-cost
// score to reach the fixed margin; the boundary value itself admits.
// A profile with a zero deep-pass budget never admits anything.
func (g *Gate) ShouldEnterDeepPass(valueScore, costScore float64) bool {
	if g.profile.DeepPassBudget == 0 {
		return false
	}
	return valueScore-costScore >= DeepPassAdmissionMargin
}

// Classify maps confidence and drift onto exactly one consumption verdict.
// The threshold tests run in fixed priority order: auto-use, then
// show-with-warning, then quarantine.
func (g *Gate) Classify(confidence, drift float64) model.Classification {
	if confidence >= g.profile.MinConfidenceForAutoUse && drift <= g.profile.MaxDriftForAutoUse {
		return model.ClassAutoUse
	}
	if confidence >= g.profile.MinConfidenceForDisplay && drift <= g.profile.MaxDriftForCitizenUI {
		return model.ClassShowWithWarning
	}
	return model.ClassQuarantine
}
