package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"atlaswatch/internal/anchor"
	"atlaswatch/internal/model"
	"atlaswatch/internal/profile"
)

// Ledger assigns versions, derives the auto-use flag at insert time, and
// appends immutable history records through the backing store.
type Ledger struct {
	store   Store
	profile *profile.Profile
}

// New creates a ledger over the given store and profile.
func New(store Store, p *profile.Profile) *Ledger {
	if p == nil {
		p = profile.Default()
	}
	return &Ledger{store: store, profile: p}
}

// Store exposes the backing store for callers that need direct reads.
func (l *Ledger) Store() Store { return l.store }

// Insert captures a new snapshot for the object. The version is assigned by
// the ledger as 1 + the latest existing version (1 when none exists); the
// store's compare-and-insert guard still rejects out-of-sequence writes that
// race past this read. The auto-use flag is derived from the profile's drift
// ceiling at insert time.
func (l *Ledger) Insert(
	ctx context.Context,
	objectID model.VirtualObjectID,
	payload []byte,
	topo *model.GraphTopologyStats,
	stability model.StabilityMetrics,
	drift model.DriftMetrics,
) (*model.AtlasSnapshotRecord, error) {
	latest, err := l.store.LatestSnapshot(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}

	var version uint64 = 1
	if latest != nil {
		version = latest.Version + 1
	}

	rec := model.AtlasSnapshotRecord{
		ID:             uuid.New(),
		ObjectID:       objectID,
		Version:        version,
		CapturedAt:     time.Now().UTC(),
		Payload:        payload,
		Topology:       topo,
		Stability:      stability,
		Drift:          drift,
		AutoUseAllowed: drift.DriftScore <= l.profile.MaxDriftForAutoUse,
	}

	if err := l.store.InsertSnapshot(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Latest returns the most recent snapshot for the object, or nil when none
// exists.
func (l *Ledger) Latest(ctx context.Context, objectID model.VirtualObjectID) (*model.AtlasSnapshotRecord, error) {
	return l.store.LatestSnapshot(ctx, objectID)
}

// RecordMetrics appends one excavation metrics record to the object's
// history trail.
func (l *Ledger) RecordMetrics(
	ctx context.Context,
	objectID model.VirtualObjectID,
	stability model.StabilityMetrics,
	drift model.DriftMetrics,
	notes string,
) (*model.ExcavationMetricsRecord, error) {
	rec := model.ExcavationMetricsRecord{
		ID:         uuid.New(),
		ObjectID:   objectID,
		CapturedAt: time.Now().UTC(),
		Stability:  stability,
		Drift:      drift,
		Notes:      notes,
	}
	if err := l.store.AppendMetrics(ctx, rec); err != nil {
		return nil, fmt.Errorf("append metrics: %w", err)
	}
	return &rec, nil
}

// MayAutoUse evaluates the descriptor-level auto-use rule: ungoverned
// objects always qualify; governed objects qualify only while their current
// drift stays at or below the profile ceiling.
func (l *Ledger) MayAutoUse(d model.VirtualObjectDescriptor) bool {
	if !d.Governance.Governed() {
		return true
	}
	return d.Drift.DriftScore <= l.profile.MaxDriftForAutoUse
}

// ExcavationResult bundles everything one extraction pass recorded.
type ExcavationResult struct {
	Object   model.VirtualObjectDescriptor `json:"object"`
	Snapshot model.AtlasSnapshotRecord     `json:"snapshot"`
	Metrics  model.ExcavationMetricsRecord `json:"metrics_record"`
}

// ApplyExcavationUpdate persists one full extraction pass: descriptor
// upsert, snapshot insert, and metrics append. The descriptor's drift and
// stability are replaced with the pass values, its update timestamp is
// refreshed, and its local content checksum is recomputed before persisting.
func (l *Ledger) ApplyExcavationUpdate(
	ctx context.Context,
	descriptor model.VirtualObjectDescriptor,
	payload []byte,
	topo *model.GraphTopologyStats,
	stability model.StabilityMetrics,
	drift model.DriftMetrics,
) (*ExcavationResult, error) {
	descriptor.Stability = stability
	descriptor.Drift = drift
	descriptor.UpdatedAt = time.Now().UTC()
	descriptor.ContentChecksum = anchor.DescriptorChecksum(descriptor)

	if err := l.store.UpsertDescriptor(ctx, descriptor); err != nil {
		return nil, fmt.Errorf("upsert descriptor: %w", err)
	}

	snap, err := l.Insert(ctx, descriptor.ID, payload, topo, stability, drift)
	if err != nil {
		return nil, err
	}

	metrics, err := l.RecordMetrics(ctx, descriptor.ID, stability, drift, drift.Note)
	if err != nil {
		return nil, err
	}

	return &ExcavationResult{
		Object:   descriptor,
		Snapshot: *snap,
		Metrics:  *metrics,
	}, nil
}
