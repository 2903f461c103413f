package gate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"atlaswatch/internal/model"
	"atlaswatch/internal/profile"
)

func defaultGate(t *testing.T) *Gate {
	t.Helper()
	return New(profile.Default())
}

func TestEnforceBudgetsWithinLimits(t *testing.T) {
	g := defaultGate(t)

	violations := g.EnforceBudgets(Usage{
		Nodes:          19999,
		Spans:          50000,
		DeepCandidates: 2000,
		RunDuration:    15 * time.Second,
	})

	if len(violations) != 0 {
		t.Fatalf("expected no violations at budget boundaries, got %v", violations)
	}
}

func TestEnforceBudgetsReturnsCompleteSet(t *testing.T) {
	g := defaultGate(t)

	violations := g.EnforceBudgets(Usage{
		Nodes:          20001,
		Spans:          50001,
		DeepCandidates: 2001,
		RunDuration:    16 * time.Second,
	})

	want := []string{ViolationNodeBudget, ViolationTraceSpanBudget, ViolationDeepPassBudget, ViolationMaxRunSeconds}
	if len(violations) != len(want) {
		t.Fatalf("expected all %d violations, got %v", len(want), violations)
	}
	for i, name := range want {
		if violations[i] != name {
			t.Errorf("violation[%d]: expected %s, got %s", i, name, violations[i])
		}
	}
}

func TestEnforceBudgetsIndependentChecks(t *testing.T) {
	g := defaultGate(t)

	tests := []struct {
		name  string
		usage Usage
		want  string
	}{
		{"nodes only", Usage{Nodes: 30000}, ViolationNodeBudget},
		{"spans only", Usage{Spans: 60000}, ViolationTraceSpanBudget},
		{"deep candidates only", Usage{DeepCandidates: 5000}, ViolationDeepPassBudget},
		{"duration only", Usage{RunDuration: time.Minute}, ViolationMaxRunSeconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := g.EnforceBudgets(tt.usage)
			if len(violations) != 1 || violations[0] != tt.want {
				t.Fatalf("expected exactly [%s], got %v", tt.want, violations)
			}
		})
	}
}

func TestCheckStats(t *testing.T) {
	g := defaultGate(t)

	if err := g.CheckStats(Usage{Nodes: 100, Spans: 100}); err != nil {
		t.Fatalf("expected nil for usage within budgets, got %v", err)
	}

	err := g.CheckStats(Usage{Nodes: 20001, RunDuration: time.Minute})
	if err == nil {
		t.Fatal("expected an error when budgets are breached")
	}
	var be *BudgetError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BudgetError, got %T", err)
	}
	want := []string{ViolationNodeBudget, ViolationMaxRunSeconds}
	if len(be.Violations) != len(want) {
		t.Fatalf("expected violations %v, got %v", want, be.Violations)
	}
	for i, name := range want {
		if be.Violations[i] != name {
			t.Errorf("violation[%d]: expected %s, got %s", i, name, be.Violations[i])
		}
	}
	if !strings.Contains(err.Error(), ViolationNodeBudget) {
		t.Errorf("error message should name the breached budgets, got %q", err.Error())
	}
}

func TestDeepPassAdmission(t *testing.T) {
	g := defaultGate(t)

	tests := []struct {
		value, cost float64
		want        bool
	}{
		{0.80, 0.40, true},  // 0.40 >= 0.25
		{0.60, 0.50, false}, // 0.10 < 0.25
		{0.90, 0.70, false}, // 0.20 < 0.25
		{0.50, 0.25, true},  // boundary value admits
		{0.25, 0.00, true},
		{0.2499, 0.0, false},
	}

	for _, tt := range tests {
		if got := g.ShouldEnterDeepPass(tt.value, tt.cost); got != tt.want {
			t.Errorf("ShouldEnterDeepPass(%v, %v) = %v, want %v", tt.value, tt.cost, got, tt.want)
		}
	}
}

func TestDeepPassZeroBudgetNeverAdmits(t *testing.T) {
	p := profile.Default()
	p.DeepPassBudget = 0
	g := New(p)

	if g.ShouldEnterDeepPass(1.0, 0.0) {
		t.Fatal("zero deep-pass budget must never admit")
	}
}

func TestClassifyScenarios(t *testing.T) {
	g := defaultGate(t)

	tests := []struct {
		confidence, drift float64
		want              model.Classification
	}{
		{0.90, 0.10, model.ClassAutoUse},
		{0.50, 0.50, model.ClassShowWithWarning},
		{0.10, 0.90, model.ClassQuarantine},
		{0.85, 0.20, model.ClassAutoUse},         // both boundaries inclusive
		{0.85, 0.21, model.ClassShowWithWarning}, // drift just past auto-use ceiling
		{0.40, 0.60, model.ClassShowWithWarning}, // display boundaries inclusive
		{0.39, 0.60, model.ClassQuarantine},
		{0.40, 0.61, model.ClassQuarantine},
	}

	for _, tt := range tests {
		if got := g.Classify(tt.confidence, tt.drift); got != tt.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tt.confidence, tt.drift, got, tt.want)
		}
	}
}

func TestClassifyExhaustive(t *testing.T) {
	g := defaultGate(t)

	for c := 0.0; c <= 1.0; c += 0.05 {
		for d := 0.0; d <= 1.0; d += 0.05 {
			switch g.Classify(c, d) {
			case model.ClassAutoUse, model.ClassShowWithWarning, model.ClassQuarantine:
			default:
				t.Fatalf("Classify(%v, %v) returned an unknown label", c, d)
			}
		}
	}
}

func TestClassifyMonotone(t *testing.T) {
	g := defaultGate(t)

	// If (c, d) classifies auto-use, any higher confidence with lower drift
	// must as well.
	base := struct{ c, d float64 }{0.85, 0.20}
	if g.Classify(base.c, base.d) != model.ClassAutoUse {
		t.Fatalf("expected base point to classify auto-use")
	}
	for _, pt := range []struct{ c, d float64 }{
		{0.86, 0.20}, {0.85, 0.19}, {1.0, 0.0}, {0.95, 0.10},
	} {
		if got := g.Classify(pt.c, pt.d); got != model.ClassAutoUse {
			t.Errorf("Classify(%v, %v) = %s, want auto-use (monotonicity)", pt.c, pt.d, got)
		}
	}
}

func TestNilProfileFallsBackToDefault(t *testing.T) {
	g := New(nil)
	if g.Profile().NodeBudget != profile.Default().NodeBudget {
		t.Fatal("nil profile should fall back to defaults")
	}
}
