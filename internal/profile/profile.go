// Package profile defines the deployment-scoped excavation safety profile:
// hard resource budgets per run plus the confidence/drift thresholds used by
// the safety gate. One profile per deployment tier; profiles are never
// mutated after construction during a run.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile holds all configurable budgets and thresholds for one deployment
// tier. Zero-value fields are replaced by defaults at load time.
type Profile struct {
	Name string `yaml:"name"`

	// Hard resource limits per excavation run.
	NodeBudget      uint64        `yaml:"node_budget"`
	TraceSpanBudget uint64        `yaml:"trace_span_budget"`
	DeepPassBudget  uint64        `yaml:"deep_pass_budget"`
	MaxRunDuration  time.Duration `yaml:"max_run_duration"`

	// Confidence and drift thresholds, all in [0,1].
	MinConfidenceForAutoUse float64 `yaml:"min_confidence_for_auto_use"`
	MinConfidenceForDisplay float64 `yaml:"min_confidence_for_display"`
	MaxDriftForAutoUse      float64 `yaml:"max_drift_for_auto_use"`
	MaxDriftForCitizenUI    float64 `yaml:"max_drift_for_citizen_ui"`
}

// Default returns the built-in profile with the standard budget and
// threshold values.
func Default() *Profile {
	return Named("default")
}

// Named returns the built-in profile values under the given name.
func Named(name string) *Profile {
	return &Profile{
		Name:                    name,
		NodeBudget:              20000,
		TraceSpanBudget:         50000,
		DeepPassBudget:          2000,
		MaxRunDuration:          15 * time.Second,
		MinConfidenceForAutoUse: 0.85,
		MinConfidenceForDisplay: 0.40,
		MaxDriftForAutoUse:      0.20,
		MaxDriftForCitizenUI:    0.60,
	}
}

// Validate checks threshold ranges and ordering. A profile whose display
// threshold exceeds its auto-use threshold, or whose auto-use drift ceiling
// exceeds the citizen-UI ceiling, would make the classification tests
// unreachable in order.
func (p *Profile) Validate() error {
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"min_confidence_for_auto_use", p.MinConfidenceForAutoUse},
		{"min_confidence_for_display", p.MinConfidenceForDisplay},
		{"max_drift_for_auto_use", p.MaxDriftForAutoUse},
		{"max_drift_for_citizen_ui", p.MaxDriftForCitizenUI},
	} {
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("profile %q: %s must be in [0,1], got %v", p.Name, c.name, c.value)
		}
	}
	if p.MinConfidenceForDisplay > p.MinConfidenceForAutoUse {
		return fmt.Errorf("profile %q: min_confidence_for_display (%v) exceeds min_confidence_for_auto_use (%v)",
			p.Name, p.MinConfidenceForDisplay, p.MinConfidenceForAutoUse)
	}
	if p.MaxDriftForAutoUse > p.MaxDriftForCitizenUI {
		return fmt.Errorf("profile %q: max_drift_for_auto_use (%v) exceeds max_drift_for_citizen_ui (%v)",
			p.Name, p.MaxDriftForAutoUse, p.MaxDriftForCitizenUI)
	}
	if p.MaxRunDuration < 0 {
		return fmt.Errorf("profile %q: max_run_duration must not be negative", p.Name)
	}
	return nil
}

// Load loads a profile from a YAML file. Empty path falls back to
// ~/.atlaswatch/profile.yaml. Missing file returns defaults. Invalid YAML or
// an invalid profile returns an error.
func Load(path string) (*Profile, error) {
	p, _, err := LoadWithHash(path)
	return p, err
}

// LoadWithHash loads a profile and returns the SHA-256 content hash of the
// raw YAML bytes for provenance reporting. When no file exists (defaults
// used), the hash is the SHA-256 of empty input. The hash identifies which
// configuration produced a decision; it is not a data integrity primitive.
func LoadWithHash(path string) (*Profile, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), emptyHash(), nil
		}
		path = filepath.Join(home, ".atlaswatch", "profile.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("failed to read profile: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, "", fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, "", err
	}

	return p, hash, nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}
