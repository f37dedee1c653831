package store

import (
	"context"
	"fmt"

	"github.com/roach88/stepviz/internal/ir"
)

// CreateSession inserts a session row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, algorithm, speed_ms, engine_version, codec_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Algorithm,
		sess.SpeedMS,
		sess.EngineVersion,
		sess.CodecVersion,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// WriteAction inserts an action record.
// Duplicate (session, seq) pairs are silently ignored.
func (s *Store) WriteAction(ctx context.Context, sessionID string, a ActionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (session_id, seq, kind, name, arg)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		a.Seq,
		string(a.Kind),
		a.Name,
		a.Arg,
	)
	if err != nil {
		return fmt.Errorf("write action: %w", err)
	}
	return nil
}

// WriteCommand inserts an executed command record.
// Duplicate (session, seq) pairs are silently ignored.
func (s *Store) WriteCommand(ctx context.Context, sessionID string, c CommandRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (session_id, seq, cursor, encoded, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		c.Seq,
		c.Cursor,
		c.Encoded,
		c.ErrorCode,
		c.Error,
	)
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// WriteSnapshot inserts a snapshot record. An empty SceneHash is computed
// from Objects.
func (s *Store) WriteSnapshot(ctx context.Context, sessionID string, snap SnapshotRecord) error {
	objects, err := marshalObjects(snap.Objects)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	hash := snap.SceneHash
	if hash == "" {
		hash, err = ir.SceneHash(snap.Objects)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (session_id, seq, step_index, scene_hash, objects)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		snap.Seq,
		snap.StepIndex,
		hash,
		objects,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// DeleteSession removes a session and, by cascade, all of its records.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
