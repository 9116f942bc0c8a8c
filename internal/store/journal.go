package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nbartley/sequent/internal/model"
)

// MutationRecord is one accepted mutation in a project's journal.
//
// Seq is the project's logical clock value for the mutation and orders
// the journal totally within a project. Payload is the mutation's
// canonical JSON encoding; Kind names the operation so replay can route
// it without parsing the payload first.
type MutationRecord struct {
	Project model.ProjectID
	Seq     int64
	Kind    string
	Payload []byte
	Version string
}

// WriteMutation appends a mutation record to the journal.
// Uses ON CONFLICT DO NOTHING on (project_id, seq) for idempotency -
// re-recording an already-journaled mutation is silently ignored, which
// makes crash recovery and at-least-once delivery safe.
func (s *Store) WriteMutation(ctx context.Context, rec MutationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mutations (project_id, seq, kind, payload, version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, seq) DO NOTHING
	`,
		string(rec.Project),
		rec.Seq,
		rec.Kind,
		string(rec.Payload),
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("write mutation: %w", err)
	}
	return nil
}

// ReadMutations returns a project's journal ordered by sequence number.
// Returns an empty slice for an unknown project.
func (s *Store) ReadMutations(ctx context.Context, project model.ProjectID) ([]MutationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, seq, kind, payload, version
		FROM mutations
		WHERE project_id = ?
		ORDER BY seq
	`, string(project))
	if err != nil {
		return nil, fmt.Errorf("read mutations: %w", err)
	}
	defer rows.Close()

	var recs []MutationRecord
	for rows.Next() {
		var rec MutationRecord
		var proj, payload string
		if err := rows.Scan(&proj, &rec.Seq, &rec.Kind, &payload, &rec.Version); err != nil {
			return nil, fmt.Errorf("read mutations: scan: %w", err)
		}
		rec.Project = model.ProjectID(proj)
		rec.Payload = []byte(payload)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read mutations: %w", err)
	}
	return recs, nil
}

// LastSeq returns the highest journaled sequence number for a project,
// or 0 when the project has no journal. Used to resume the logical clock
// after replay.
func (s *Store) LastSeq(ctx context.Context, project model.ProjectID) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM mutations WHERE project_id = ?
	`, string(project)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// Projects returns the distinct project ids present in the journal,
// ordered lexically.
func (s *Store) Projects(ctx context.Context) ([]model.ProjectID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT project_id FROM mutations ORDER BY project_id
	`)
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	defer rows.Close()

	var out []model.ProjectID
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("projects: scan: %w", err)
		}
		out = append(out, model.ProjectID(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	return out, nil
}
