// Package sqlite implements the ledger store on SQLite via the pure-Go
// modernc.org/sqlite driver. Per-object atomicity for insert-next-version
// comes from transactions opened with the write lock held (txlock=immediate)
// plus a UNIQUE(object_id, version) index, so the version chain holds even
// when the in-ledger read races.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"atlaswatch/internal/ledger"
	"atlaswatch/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS virtual_objects (
	id                 TEXT PRIMARY KEY,
	kind               TEXT NOT NULL,
	trust_tier         TEXT NOT NULL,
	governance         TEXT NOT NULL,
	name               TEXT NOT NULL,
	origin_uri         TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	evidence_ref       TEXT NOT NULL DEFAULT '',
	stability          REAL NOT NULL,
	novelty            REAL NOT NULL,
	revision_count     INTEGER NOT NULL,
	drift_score        REAL NOT NULL,
	structural_delta   REAL NOT NULL,
	semantic_delta     REAL NOT NULL,
	drift_note         TEXT NOT NULL DEFAULT '',
	content_checksum   TEXT NOT NULL DEFAULT '',
	anchor_manifest_id TEXT
);

CREATE TABLE IF NOT EXISTS atlas_snapshots (
	id               TEXT PRIMARY KEY,
	object_id        TEXT NOT NULL,
	version          INTEGER NOT NULL,
	captured_at      TEXT NOT NULL,
	payload          BLOB,
	topology_json    TEXT,
	stability        REAL NOT NULL,
	novelty          REAL NOT NULL,
	revision_count   INTEGER NOT NULL,
	drift_score      REAL NOT NULL,
	structural_delta REAL NOT NULL,
	semantic_delta   REAL NOT NULL,
	drift_note       TEXT NOT NULL DEFAULT '',
	auto_use_allowed INTEGER NOT NULL,
	UNIQUE(object_id, version)
);

CREATE TABLE IF NOT EXISTS excavation_metrics (
	id               TEXT PRIMARY KEY,
	object_id        TEXT NOT NULL,
	captured_at      TEXT NOT NULL,
	stability        REAL NOT NULL,
	novelty          REAL NOT NULL,
	revision_count   INTEGER NOT NULL,
	drift_score      REAL NOT NULL,
	structural_delta REAL NOT NULL,
	semantic_delta   REAL NOT NULL,
	drift_note       TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_metrics_object ON excavation_metrics(object_id, captured_at);
`

// Store is a SQLite-backed ledger.Store.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	dsn := path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// The modernc driver serializes access per connection; a single
	// connection avoids table-lock errors under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// UpsertDescriptor registers or replaces the descriptor row.
func (s *Store) UpsertDescriptor(ctx context.Context, d model.VirtualObjectDescriptor) error {
	var anchorID any
	if d.AnchorManifestID != nil {
		anchorID = d.AnchorManifestID.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO virtual_objects (
			id, kind, trust_tier, governance, name, origin_uri,
			created_at, updated_at, evidence_ref,
			stability, novelty, revision_count,
			drift_score, structural_delta, semantic_delta, drift_note,
			content_checksum, anchor_manifest_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			trust_tier = excluded.trust_tier,
			governance = excluded.governance,
			name = excluded.name,
			origin_uri = excluded.origin_uri,
			updated_at = excluded.updated_at,
			evidence_ref = excluded.evidence_ref,
			stability = excluded.stability,
			novelty = excluded.novelty,
			revision_count = excluded.revision_count,
			drift_score = excluded.drift_score,
			structural_delta = excluded.structural_delta,
			semantic_delta = excluded.semantic_delta,
			drift_note = excluded.drift_note,
			content_checksum = excluded.content_checksum,
			anchor_manifest_id = excluded.anchor_manifest_id`,
		d.ID.String(), string(d.Kind), string(d.TrustTier), string(d.Governance),
		d.Name, d.OriginURI,
		d.CreatedAt.UTC().Format(time.RFC3339Nano), d.UpdatedAt.UTC().Format(time.RFC3339Nano),
		d.EvidenceRef,
		d.Stability.Stability, d.Stability.Novelty, d.Stability.RevisionCount,
		d.Drift.DriftScore, d.Drift.StructuralDelta, d.Drift.SemanticDelta, d.Drift.Note,
		d.ContentChecksum, anchorID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert descriptor: %w", err)
	}
	return nil
}

// GetDescriptor returns the descriptor row, or (nil, nil) when unknown.
func (s *Store) GetDescriptor(ctx context.Context, id model.VirtualObjectID) (*model.VirtualObjectDescriptor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, trust_tier, governance, name, origin_uri,
		       created_at, updated_at, evidence_ref,
		       stability, novelty, revision_count,
		       drift_score, structural_delta, semantic_delta, drift_note,
		       content_checksum, anchor_manifest_id
		FROM virtual_objects WHERE id = ?`, id.String())

	var (
		d                    model.VirtualObjectDescriptor
		idStr, created, updt string
		anchorID             sql.NullString
	)
	err := row.Scan(&idStr, &d.Kind, &d.TrustTier, &d.Governance, &d.Name, &d.OriginURI,
		&created, &updt, &d.EvidenceRef,
		&d.Stability.Stability, &d.Stability.Novelty, &d.Stability.RevisionCount,
		&d.Drift.DriftScore, &d.Drift.StructuralDelta, &d.Drift.SemanticDelta, &d.Drift.Note,
		&d.ContentChecksum, &anchorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get descriptor: %w", err)
	}

	if d.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt descriptor id: %w", err)
	}
	if d.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339Nano, updt); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt updated_at: %w", err)
	}
	if anchorID.Valid {
		aid, err := uuid.Parse(anchorID.String)
		if err != nil {
			return nil, fmt.Errorf("sqlite: corrupt anchor_manifest_id: %w", err)
		}
		d.AnchorManifestID = &aid
	}
	return &d, nil
}

// InsertSnapshot appends a snapshot inside one transaction that takes the
// database write lock up front (single connection and the in-memory DSN
// serialize it regardless): read the chain tail, verify the record extends
// it by exactly one, insert. The UNIQUE(object_id, version) index backstops
// the check.
func (s *Store) InsertSnapshot(ctx context.Context, rec model.AtlasSnapshotRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM atlas_snapshots WHERE object_id = ?`,
		rec.ObjectID.String()).Scan(&maxVersion); err != nil {
		return fmt.Errorf("sqlite: read chain tail: %w", err)
	}

	expected := uint64(1)
	if maxVersion.Valid {
		expected = uint64(maxVersion.Int64) + 1
	}
	if rec.Version != expected {
		return &ledger.VersionConflictError{
			ObjectID:  rec.ObjectID,
			Attempted: rec.Version,
			Expected:  expected,
		}
	}

	var topoJSON any
	if rec.Topology != nil {
		b, err := json.Marshal(rec.Topology)
		if err != nil {
			return fmt.Errorf("sqlite: marshal topology: %w", err)
		}
		topoJSON = string(b)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO atlas_snapshots (
			id, object_id, version, captured_at, payload, topology_json,
			stability, novelty, revision_count,
			drift_score, structural_delta, semantic_delta, drift_note,
			auto_use_allowed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.ObjectID.String(), rec.Version,
		rec.CapturedAt.UTC().Format(time.RFC3339Nano), rec.Payload, topoJSON,
		rec.Stability.Stability, rec.Stability.Novelty, rec.Stability.RevisionCount,
		rec.Drift.DriftScore, rec.Drift.StructuralDelta, rec.Drift.SemanticDelta, rec.Drift.Note,
		boolToInt(rec.AutoUseAllowed),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &ledger.VersionConflictError{
				ObjectID:  rec.ObjectID,
				Attempted: rec.Version,
				Expected:  expected,
			}
		}
		return fmt.Errorf("sqlite: insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// LatestSnapshot returns the highest-version snapshot, or (nil, nil).
func (s *Store) LatestSnapshot(ctx context.Context, id model.VirtualObjectID) (*model.AtlasSnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, object_id, version, captured_at, payload, topology_json,
		       stability, novelty, revision_count,
		       drift_score, structural_delta, semantic_delta, drift_note,
		       auto_use_allowed
		FROM atlas_snapshots WHERE object_id = ?
		ORDER BY version DESC LIMIT 1`, id.String())

	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// AppendMetrics appends one metrics row.
func (s *Store) AppendMetrics(ctx context.Context, rec model.ExcavationMetricsRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO excavation_metrics (
			id, object_id, captured_at,
			stability, novelty, revision_count,
			drift_score, structural_delta, semantic_delta, drift_note,
			notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.ObjectID.String(), rec.CapturedAt.UTC().Format(time.RFC3339Nano),
		rec.Stability.Stability, rec.Stability.Novelty, rec.Stability.RevisionCount,
		rec.Drift.DriftScore, rec.Drift.StructuralDelta, rec.Drift.SemanticDelta, rec.Drift.Note,
		rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("sqlite: append metrics: %w", err)
	}
	return nil
}

// MetricsHistory returns the metrics trail, oldest first.
func (s *Store) MetricsHistory(ctx context.Context, id model.VirtualObjectID) ([]model.ExcavationMetricsRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, object_id, captured_at,
		       stability, novelty, revision_count,
		       drift_score, structural_delta, semantic_delta, drift_note,
		       notes
		FROM excavation_metrics WHERE object_id = ?
		ORDER BY captured_at ASC`, id.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: metrics history: %w", err)
	}
	defer rows.Close()

	var out []model.ExcavationMetricsRecord
	for rows.Next() {
		var (
			rec           model.ExcavationMetricsRecord
			idStr, objStr string
			capturedAt    string
		)
		if err := rows.Scan(&idStr, &objStr, &capturedAt,
			&rec.Stability.Stability, &rec.Stability.Novelty, &rec.Stability.RevisionCount,
			&rec.Drift.DriftScore, &rec.Drift.StructuralDelta, &rec.Drift.SemanticDelta, &rec.Drift.Note,
			&rec.Notes); err != nil {
			return nil, fmt.Errorf("sqlite: scan metrics: %w", err)
		}
		if rec.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt metrics id: %w", err)
		}
		if rec.ObjectID, err = uuid.Parse(objStr); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt metrics object id: %w", err)
		}
		if rec.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedAt); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt captured_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*model.AtlasSnapshotRecord, error) {
	var (
		rec           model.AtlasSnapshotRecord
		idStr, objStr string
		capturedAt    string
		topoJSON      sql.NullString
		autoUse       int
	)
	err := row.Scan(&idStr, &objStr, &rec.Version, &capturedAt, &rec.Payload, &topoJSON,
		&rec.Stability.Stability, &rec.Stability.Novelty, &rec.Stability.RevisionCount,
		&rec.Drift.DriftScore, &rec.Drift.StructuralDelta, &rec.Drift.SemanticDelta, &rec.Drift.Note,
		&autoUse)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt snapshot id: %w", err)
	}
	if rec.ObjectID, err = uuid.Parse(objStr); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt snapshot object id: %w", err)
	}
	if rec.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedAt); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt captured_at: %w", err)
	}
	if topoJSON.Valid {
		var topo model.GraphTopologyStats
		if err := json.Unmarshal([]byte(topoJSON.String), &topo); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt topology: %w", err)
		}
		rec.Topology = &topo
	}
	rec.AutoUseAllowed = autoUse != 0
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
