package seal

import (
	"time"

	"atlaswatch/internal/anchor"
	"atlaswatch/internal/audit"
	"atlaswatch/internal/model"
)

// ARKind is the coarse taxonomy for sealed AR objects.
type ARKind string

const (
	ARPortal          ARKind = "portal"
	ARMarker          ARKind = "marker"
	AROverlay         ARKind = "overlay"
	ARGovernancePanel ARKind = "governance-panel"
	ARSafetyBeacon    ARKind = "safety-beacon"
)

// Geometry is a normalized spatial placement for an AR object.
type Geometry struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Scale float64 `json:"scale"`
}

// Safe policy tags accepted for creation in public citizen mode.
const (
	TagNonInvasive = "safety:noninvasive"
	TagLocalOnly   = "privacy:local-only"
)

// ARObject is a policy-sealed virtual object ready for AR placement.
type ARObject struct {
	ID         string               `json:"id"`
	Owner      string               `json:"owner"`
	Kind       ARKind               `json:"kind"`
	Geometry   Geometry             `json:"geometry"`
	PolicyTags []string             `json:"policy_tags"`
	Anchor     *anchor.LedgerAnchor `json:"ledger_anchor,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// LocalProof computes the object's non-cryptographic sanity checksum over
// identity, owner, kind, and position.
func (o *ARObject) LocalProof() string {
	sum := anchor.ObjectSummary(o.ID, o.Owner, string(o.Kind), o.Geometry.X, o.Geometry.Y, o.Geometry.Z)
	return anchor.Hex(anchor.Checksum(sum))
}

// CreateObject constructs an AR object under the seal's policy. In public
// citizen mode, creation is rejected unless the policy tags include at least
// one of the safe tags; the refusal emits an object-create-block event.
// Successful creation emits ar-object-created.
func (s *Seal) CreateObject(id, owner string, kind ARKind, geom Geometry, policyTags []string) (*ARObject, error) {
	mode := s.policy.CitizenMode

	if mode == model.ModePublic && !hasSafeTag(policyTags) {
		s.sink.Emit(audit.NewEvent(audit.KindObjectCreateBlock, map[string]string{
			"domain": s.policy.Domain,
			"id":     id,
			"owner":  owner,
			"kind":   string(kind),
			"mode":   mode.Label(),
		}))
		return nil, &BlockedError{
			Operation: "create-object",
			Domain:    s.policy.Domain,
			Reason:    "public citizen mode requires a noninvasive or local-only policy tag",
		}
	}

	obj := &ARObject{
		ID:         id,
		Owner:      owner,
		Kind:       kind,
		Geometry:   geom,
		PolicyTags: policyTags,
		CreatedAt:  time.Now().UTC(),
	}

	s.emitCreated(obj, mode.Label())
	return obj, nil
}

// AttachAnchor binds an external chain transaction to the object, computing
// the local proof for sanity cross-checking. The core performs no on-chain
// interaction.
func AttachAnchor(obj *ARObject, chainID, txID string) {
	sum := anchor.ObjectSummary(obj.ID, obj.Owner, string(obj.Kind), obj.Geometry.X, obj.Geometry.Y, obj.Geometry.Z)
	a := anchor.New(chainID, txID, sum)
	obj.Anchor = &a
}

func hasSafeTag(tags []string) bool {
	for _, t := range tags {
		if t == TagNonInvasive || t == TagLocalOnly {
			return true
		}
	}
	return false
}
