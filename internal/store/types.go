package store

import (
	"github.com/roach88/stepviz/internal/ir"
)

// ActionKind distinguishes journaled do and undo records.
type ActionKind string

const (
	ActionDo   ActionKind = "do"
	ActionUndo ActionKind = "undo"
)

// Session is one journaled interactive session.
type Session struct {
	ID            string
	Algorithm     string
	SpeedMS       int
	EngineVersion string
	CodecVersion  string
}

// ActionRecord is one do or undo.
type ActionRecord struct {
	Seq  int64
	Kind ActionKind
	Name string
	Arg  string
}

// CommandRecord is one executed command in wire form.
type CommandRecord struct {
	Seq       int64
	Cursor    int
	Encoded   string
	ErrorCode string
	Error     string
}

// SnapshotRecord is one step boundary.
type SnapshotRecord struct {
	Seq       int64
	StepIndex int
	SceneHash string
	Objects   []ir.Object
}
