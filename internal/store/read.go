package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id is not in the journal.
var ErrSessionNotFound = errors.New("session not found")

// ReadSession returns one session row.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, algorithm, speed_ms, engine_version, codec_version
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Algorithm, &sess.SpeedMS, &sess.EngineVersion, &sess.CodecVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ListSessions returns every session ordered by id. UUIDv7 ids sort in
// creation order.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, algorithm, speed_ms, engine_version, codec_version
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Algorithm, &sess.SpeedMS, &sess.EngineVersion, &sess.CodecVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadActions returns a session's actions ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadActions(ctx context.Context, sessionID string) ([]ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, name, arg
		FROM actions
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	actions := []ActionRecord{}
	for rows.Next() {
		var a ActionRecord
		var kind string
		if err := rows.Scan(&a.Seq, &kind, &a.Name, &a.Arg); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.Kind = ActionKind(kind)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}

// ReadCommands returns a session's executed commands ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadCommands(ctx context.Context, sessionID string) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, cursor, encoded, error_code, error
		FROM commands
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	cmds := []CommandRecord{}
	for rows.Next() {
		var c CommandRecord
		if err := rows.Scan(&c.Seq, &c.Cursor, &c.Encoded, &c.ErrorCode, &c.Error); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		cmds = append(cmds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return cmds, nil
}

// ReadSnapshots returns a session's snapshots ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadSnapshots(ctx context.Context, sessionID string) ([]SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, step_index, scene_hash, objects
		FROM snapshots
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []SnapshotRecord{}
	for rows.Next() {
		var snap SnapshotRecord
		var objects string
		if err := rows.Scan(&snap.Seq, &snap.StepIndex, &snap.SceneHash, &objects); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Objects, err = unmarshalObjects(objects)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// LastSeq returns the highest seq recorded for a session, or 0.
// A resumed journal starts its clock here.
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM actions WHERE session_id = ?1
			UNION ALL
			SELECT seq FROM commands WHERE session_id = ?1
			UNION ALL
			SELECT seq FROM snapshots WHERE session_id = ?1
		)
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
