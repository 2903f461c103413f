// Package ledger maintains the versioned snapshot history of virtual
// objects: an append-only per-object version chain plus the excavation
// metrics trail. The backing store is a transactional collaborator keyed by
// object identity; the ledger assumes single-writer-per-object semantics and
// does not implement cross-process locking.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"atlaswatch/internal/model"
)

// ErrVersionConflict signals an insert that does not extend an object's
// version chain by exactly one.
var ErrVersionConflict = errors.New("snapshot version conflict")

// VersionConflictError reports the attempted and expected versions for one
// object. It unwraps to ErrVersionConflict.
type VersionConflictError struct {
	ObjectID  model.VirtualObjectID
	Attempted uint64
	Expected  uint64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("object %s: version %d does not extend chain (expected %d)",
		e.ObjectID, e.Attempted, e.Expected)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

// Store is the transactional object/version store. Implementations must
// provide per-object atomicity for InsertSnapshot and LatestSnapshot:
// a snapshot becomes visible to readers exactly once it is durably recorded,
// never partially.
type Store interface {
	// UpsertDescriptor registers or updates a descriptor in place.
	// Descriptors are never deleted.
	UpsertDescriptor(ctx context.Context, d model.VirtualObjectDescriptor) error

	// GetDescriptor returns the descriptor, or (nil, nil) when unknown.
	GetDescriptor(ctx context.Context, id model.VirtualObjectID) (*model.VirtualObjectDescriptor, error)

	// InsertSnapshot appends a snapshot. The record's version must equal
	// 1 + the latest stored version for the object (1 when none exists);
	// anything else fails with a VersionConflictError.
	InsertSnapshot(ctx context.Context, rec model.AtlasSnapshotRecord) error

	// LatestSnapshot returns the highest-version snapshot for the object,
	// or (nil, nil) when none exists.
	LatestSnapshot(ctx context.Context, id model.VirtualObjectID) (*model.AtlasSnapshotRecord, error)

	// AppendMetrics appends one immutable excavation metrics record.
	AppendMetrics(ctx context.Context, rec model.ExcavationMetricsRecord) error

	// MetricsHistory returns the metrics trail for an object, oldest first.
	MetricsHistory(ctx context.Context, id model.VirtualObjectID) ([]model.ExcavationMetricsRecord, error)
}
