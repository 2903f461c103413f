package ledger

import (
	"context"
	"sync"

	"atlaswatch/internal/model"
)

// MemoryStore is an in-process Store: one append-only snapshot sequence per
// object identity, guarded by a single mutex. Suitable for tests, the CLI's
// dry-run mode, and single-process embedding.
type MemoryStore struct {
	mu          sync.Mutex
	descriptors map[model.VirtualObjectID]model.VirtualObjectDescriptor
	snapshots   map[model.VirtualObjectID][]model.AtlasSnapshotRecord
	metrics     map[model.VirtualObjectID][]model.ExcavationMetricsRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		descriptors: make(map[model.VirtualObjectID]model.VirtualObjectDescriptor),
		snapshots:   make(map[model.VirtualObjectID][]model.AtlasSnapshotRecord),
		metrics:     make(map[model.VirtualObjectID][]model.ExcavationMetricsRecord),
	}
}

// UpsertDescriptor stores the descriptor, replacing any prior value.
func (s *MemoryStore) UpsertDescriptor(_ context.Context, d model.VirtualObjectDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors[d.ID] = d
	return nil
}

// GetDescriptor returns a copy of the descriptor, or nil when unknown.
func (s *MemoryStore) GetDescriptor(_ context.Context, id model.VirtualObjectID) (*model.VirtualObjectDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.descriptors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// InsertSnapshot appends the record iff it extends the object's chain by
// exactly one.
func (s *MemoryStore) InsertSnapshot(_ context.Context, rec model.AtlasSnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.snapshots[rec.ObjectID]
	expected := uint64(len(chain)) + 1
	if rec.Version != expected {
		return &VersionConflictError{
			ObjectID:  rec.ObjectID,
			Attempted: rec.Version,
			Expected:  expected,
		}
	}

	s.snapshots[rec.ObjectID] = append(chain, rec)
	return nil
}

// LatestSnapshot returns a copy of the newest record, or nil when the object
// has no snapshots.
func (s *MemoryStore) LatestSnapshot(_ context.Context, id model.VirtualObjectID) (*model.AtlasSnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.snapshots[id]
	if len(chain) == 0 {
		return nil, nil
	}
	rec := chain[len(chain)-1]
	return &rec, nil
}

// AppendMetrics appends the record to the object's metrics trail.
func (s *MemoryStore) AppendMetrics(_ context.Context, rec model.ExcavationMetricsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[rec.ObjectID] = append(s.metrics[rec.ObjectID], rec)
	return nil
}

// MetricsHistory returns a copy of the metrics trail, oldest first.
func (s *MemoryStore) MetricsHistory(_ context.Context, id model.VirtualObjectID) ([]model.ExcavationMetricsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trail := s.metrics[id]
	out := make([]model.ExcavationMetricsRecord, len(trail))
	copy(out, trail)
	return out, nil
}
