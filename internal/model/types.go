package model

import (
	"time"

	"github.com/google/uuid"
)

// VirtualObjectKind identifies the source modality an object was extracted from.
type VirtualObjectKind string

const (
	KindMermaidDiagram VirtualObjectKind = "mermaid-diagram"
	KindOtelSpanGraph  VirtualObjectKind = "otel-span-graph"
	KindDomSheet       VirtualObjectKind = "dom-sheet"
	KindJSONSchema     VirtualObjectKind = "json-schema"
	KindAlnPlan        VirtualObjectKind = "aln-plan"
	KindRustCrate      VirtualObjectKind = "rust-crate"
	KindJSModule       VirtualObjectKind = "js-module"
	KindLuaModule      VirtualObjectKind = "lua-module"
	KindAutomationJob  VirtualObjectKind = "automation-job"
)

// ValidKind reports whether k belongs to the closed kind set.
func ValidKind(k VirtualObjectKind) bool {
	switch k {
	case KindMermaidDiagram, KindOtelSpanGraph, KindDomSheet, KindJSONSchema,
		KindAlnPlan, KindRustCrate, KindJSModule, KindLuaModule, KindAutomationJob:
		return true
	}
	return false
}

// TrustTier classifies how much operational weight an object carries.
type TrustTier string

const (
	TierEphemeral          TrustTier = "ephemeral"
	TierLabExperiment      TrustTier = "lab-experiment"
	TierStableInternal     TrustTier = "stable-internal"
	TierProductionCritical TrustTier = "production-critical"
)

// TierRank maps trust tiers to comparable integers.
var TierRank = map[TrustTier]int{
	TierEphemeral:          0,
	TierLabExperiment:      1,
	TierStableInternal:     2,
	TierProductionCritical: 3,
}

// GovernanceRequirement tags objects that need external review before auto-use.
// RequiresGovernance and RequiresMultisig are distinct values but currently
// receive identical gating treatment; multisig approval counting is not
// modeled.
type GovernanceRequirement string

const (
	GovernanceNone     GovernanceRequirement = "none"
	RequiresGovernance GovernanceRequirement = "requires-governance"
	RequiresMultisig   GovernanceRequirement = "requires-multisig"
)

// Governed reports whether the requirement mandates the governance gate.
func (g GovernanceRequirement) Governed() bool {
	return g == RequiresGovernance || g == RequiresMultisig
}

// CitizenSafetyMode is the high-level safety mode of an augmented citizen.
type CitizenSafetyMode string

const (
	ModePublic   CitizenSafetyMode = "public"
	ModePrivate  CitizenSafetyMode = "private"
	ModeResearch CitizenSafetyMode = "research"
)

// Label returns the canonical audit label for the mode.
func (m CitizenSafetyMode) Label() string {
	switch m {
	case ModePublic:
		return "CITIZEN_MODE_PUBLIC"
	case ModeResearch:
		return "CITIZEN_MODE_RESEARCH"
	default:
		return "CITIZEN_MODE_PRIVATE"
	}
}

// Classification is the three-way consumption verdict for a snapshot.
type Classification string

const (
	ClassAutoUse         Classification = "auto-use"
	ClassShowWithWarning Classification = "show-with-warning"
	ClassQuarantine      Classification = "quarantine"
)

// VirtualObjectID identifies one tracked virtual object.
type VirtualObjectID = uuid.UUID

// NewVirtualObjectID allocates a fresh object identity.
func NewVirtualObjectID() VirtualObjectID {
	return uuid.New()
}

// StabilityMetrics are rolling measures of historical change vs corpus novelty.
type StabilityMetrics struct {
	// Stability in [0,1]; 1.0 means rarely changing.
	Stability float64 `json:"stability" yaml:"stability"`
	// Novelty in [0,1]; 1.0 means highly novel relative to the corpus.
	Novelty float64 `json:"novelty" yaml:"novelty"`
	// RevisionCount is monotonically non-decreasing, one per recorded snapshot.
	RevisionCount uint64 `json:"revision_count" yaml:"revision_count"`
}

// DriftMetrics quantify change between consecutive snapshots. They are
// computed by an external diff engine and only consumed here.
type DriftMetrics struct {
	DriftScore      float64 `json:"drift_score" yaml:"drift_score"`
	StructuralDelta float64 `json:"structural_delta" yaml:"structural_delta"`
	SemanticDelta   float64 `json:"semantic_delta" yaml:"semantic_delta"`
	// Note is an optional prev->curr migration note.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// GraphTopologyStats summarize graph-shaped payloads for budget checks.
type GraphTopologyStats struct {
	NodeCount int     `json:"node_count"`
	EdgeCount int     `json:"edge_count"`
	MaxDepth  int     `json:"max_depth"`
	MaxFanIn  int     `json:"max_fan_in"`
	MaxFanOut int     `json:"max_fan_out"`
	// EdgeDensity is 2E / (N(N-1)).
	EdgeDensity float64 `json:"edge_density"`
}

// VirtualObjectDescriptor is the canonical record for one tracked object.
// Descriptors are updated in place on each extraction pass and never deleted;
// stale descriptors are retained for audit.
type VirtualObjectDescriptor struct {
	ID         VirtualObjectID       `json:"id"`
	Kind       VirtualObjectKind     `json:"kind"`
	TrustTier  TrustTier             `json:"trust_tier"`
	Governance GovernanceRequirement `json:"governance"`
	Name       string                `json:"name"`
	OriginURI  string                `json:"origin_uri"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
	// EvidenceRef points at an opaque evidence bundle owned by external tooling.
	EvidenceRef string           `json:"evidence_ref,omitempty"`
	Stability   StabilityMetrics `json:"stability"`
	Drift       DriftMetrics     `json:"drift"`
	// ContentChecksum is a local non-cryptographic sanity checksum, not a
	// security primitive.
	ContentChecksum string `json:"content_checksum,omitempty"`
	// AnchorManifestID optionally points at an external anchor manifest.
	AnchorManifestID *uuid.UUID `json:"anchor_manifest_id,omitempty"`
}

// AtlasSnapshotRecord is one immutable captured version of an object.
// For a given object, versions form a contiguous sequence starting at 1.
type AtlasSnapshotRecord struct {
	ID             uuid.UUID           `json:"id"`
	ObjectID       VirtualObjectID     `json:"object_id"`
	Version        uint64              `json:"version"`
	CapturedAt     time.Time           `json:"captured_at"`
	Payload        []byte              `json:"payload"`
	Topology       *GraphTopologyStats `json:"topology,omitempty"`
	Stability      StabilityMetrics    `json:"stability"`
	Drift          DriftMetrics        `json:"drift"`
	AutoUseAllowed bool                `json:"auto_use_allowed"`
}

// ExcavationMetricsRecord is one append-only metrics-history entry per pass.
type ExcavationMetricsRecord struct {
	ID         uuid.UUID        `json:"id"`
	ObjectID   VirtualObjectID  `json:"object_id"`
	CapturedAt time.Time        `json:"captured_at"`
	Stability  StabilityMetrics `json:"stability"`
	Drift      DriftMetrics     `json:"drift"`
	Notes      string           `json:"notes,omitempty"`
}
