package store

import (
	"context"
	"log/slog"

	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/history"
	"github.com/roach88/stepviz/internal/ir"
)

// Journal records one session. It implements engine.Observer and
// history.Listener, so it plugs into a Player with engine.WithObserver and
// into a Coordinator with history.WithListener.
//
// Observer callbacks cannot fail, so write errors are logged and the first
// one is kept for Err. A journal that has failed keeps trying; playback is
// never affected.
//
// Thread-safety: Journal shares the Player's goroutine.
type Journal struct {
	store   *Store
	session string
	clock   *engine.Clock
	ctx     context.Context
	logger  *slog.Logger
	err     error
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithJournalLogger sets the logger. Default: slog.Default().
func WithJournalLogger(l *slog.Logger) JournalOption {
	return func(j *Journal) {
		j.logger = l
	}
}

// StartJournal creates the session row and returns a journal for it.
// Reopening an existing session id resumes after its last seq.
func (s *Store) StartJournal(ctx context.Context, sess Session, opts ...JournalOption) (*Journal, error) {
	if sess.EngineVersion == "" {
		sess.EngineVersion = ir.EngineVersion
	}
	if sess.CodecVersion == "" {
		sess.CodecVersion = ir.CodecVersion
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	last, err := s.LastSeq(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		store:   s,
		session: sess.ID,
		clock:   engine.NewClockAt(last),
		ctx:     ctx,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.logger == nil {
		j.logger = slog.Default()
	}
	return j, nil
}

// SessionID returns the journaled session id.
func (j *Journal) SessionID() string {
	return j.session
}

// Err returns the first write error, if any.
func (j *Journal) Err() error {
	return j.err
}

// CommandExecuted implements engine.Observer.
func (j *Journal) CommandExecuted(index int, c ir.Command, err error) {
	rec := CommandRecord{
		Seq:     j.clock.Next(),
		Cursor:  index,
		Encoded: ir.Encode(c),
	}
	if err != nil {
		rec.Error = err.Error()
		rec.ErrorCode = string(engine.ErrorCode(err))
	}
	j.fail(j.store.WriteCommand(j.ctx, j.session, rec))
}

// SnapshotTaken implements engine.Observer.
func (j *Journal) SnapshotTaken(snap engine.Snapshot) {
	j.fail(j.store.WriteSnapshot(j.ctx, j.session, SnapshotRecord{
		Seq:       j.clock.Next(),
		StepIndex: snap.StepIndex,
		Objects:   snap.Objects,
	}))
}

// ActionRecorded implements history.Listener.
func (j *Journal) ActionRecorded(e history.Entry) {
	j.writeAction(ActionDo, e)
}

// ActionUndone implements history.Listener.
func (j *Journal) ActionUndone(e history.Entry) {
	j.writeAction(ActionUndo, e)
}

func (j *Journal) writeAction(kind ActionKind, e history.Entry) {
	j.fail(j.store.WriteAction(j.ctx, j.session, ActionRecord{
		Seq:  j.clock.Next(),
		Kind: kind,
		Name: e.Action.Name,
		Arg:  e.Arg,
	}))
}

func (j *Journal) fail(err error) {
	if err == nil {
		return
	}
	j.logger.Warn("journal write failed", "session", j.session, "error", err)
	if j.err == nil {
		j.err = err
	}
}
